package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberelites/formmailer/internal/bootstrap"
	"github.com/cyberelites/formmailer/internal/config"
	"github.com/cyberelites/formmailer/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "formctl",
	Short:         "Operator tool for formmailer triggers, dispatches and form QR codes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(qrcodeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadApp loads configuration and wires the services a command needs
func loadApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, "text").WithComponent("formctl")
	return bootstrap.New(ctx, cfg, log)
}

// resolveSource picks the flag value, then trigger.source, then the spreadsheet ID
func resolveSource(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg.Trigger.Source != "" {
		return cfg.Trigger.Source
	}
	return cfg.Store.SpreadsheetID
}
