package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var triggerSource string

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Manage form submit triggers",
}

var triggerSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Bind the confirmation handler to a form submit source (idempotent)",
	RunE:  runTriggerSetup,
}

var triggerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered triggers",
	RunE:  runTriggerList,
}

func init() {
	triggerSetupCmd.Flags().StringVar(&triggerSource, "source", "", "event source (defaults to trigger.source, then store.spreadsheet_id)")
	triggerCmd.AddCommand(triggerSetupCmd)
	triggerCmd.AddCommand(triggerListCmd)
}

func runTriggerSetup(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	source := resolveSource(triggerSource, app.Config)
	created, err := app.Registrar.EnsureRegistered(cmd.Context(), source)
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Created trigger %s -> %s\n", source, app.Registrar.HandlerName())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Trigger already registered for %s\n", source)
	}
	return nil
}

func runTriggerList(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	triggers, err := app.Registrar.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No triggers registered")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tHANDLER\tSOURCE\tCREATED")
	for _, t := range triggers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.HandlerName, t.Source, t.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
