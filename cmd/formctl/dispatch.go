package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberelites/formmailer/internal/model"
)

var (
	dispatchValues []string
	dispatchSource string
)

var dispatchCmd = &cobra.Command{
	Use:     "dispatch",
	Short:   "Run the confirmation pipeline once for the given form values",
	Example: `  formctl dispatch --values "2026-10-18 14:05:00,jane@example.org,Jane Doe"`,
	RunE:    runDispatch,
}

func init() {
	dispatchCmd.Flags().StringSliceVar(&dispatchValues, "values", nil, "form values in column order: timestamp,email,full name")
	dispatchCmd.Flags().StringVar(&dispatchSource, "source", "", "event source recorded with the submission")
	dispatchCmd.MarkFlagRequired("values")
}

func runDispatch(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	sub := model.FormSubmission{
		Source:     resolveSource(dispatchSource, app.Config),
		Values:     dispatchValues,
		ReceivedAt: time.Now(),
	}

	result, err := app.Dispatcher.Handle(cmd.Context(), sub)
	if err != nil {
		return fmt.Errorf("submission failed and could not be logged: %w", err)
	}

	if result.Sent {
		fmt.Fprintln(cmd.OutOrStdout(), "Confirmation email sent")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Submission logged to %q: %v\n", app.Config.ErrorLog.SheetName, result.Failure)
	return nil
}
