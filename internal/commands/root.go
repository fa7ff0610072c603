// Package commands wires the CLI surface over the sync pipeline. Each
// subcommand maps to one pipeline stage so a cron job can run the whole
// chain or an operator can replay a single step.
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/safcost/banksync/internal/config"
	"github.com/safcost/banksync/internal/grist"
	"github.com/safcost/banksync/internal/logger"
	"github.com/safcost/banksync/internal/sheets"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "banksync",
		Short: "Sync bank transactions from a spreadsheet into Grist",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSyncCommand(),
		newFetchCommand(),
		newStageCommand(),
		newUploadCommand(),
		newLastRecordCommand(),
		newCheckCommand(),
	)

	return rootCmd
}

// setup loads configuration and attaches a configured logger to the command
// context. Every subcommand starts here.
func setup(cmd *cobra.Command) (*config.Config, context.Context, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Logger{}, fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.NewWithOptions(logger.Options{
		Level:     cfg.Log.Level,
		File:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
		Backups:   cfg.Log.Backups,
	})
	ctx := logger.WithContext(cmd.Context(), log)
	return cfg, ctx, log, nil
}

func newGristStore(cfg *config.Config) (*grist.Client, error) {
	if err := cfg.ValidateGrist(); err != nil {
		return nil, err
	}
	return grist.NewClient(cfg.Grist.BaseHost, cfg.Grist.DocID, cfg.Grist.TableName, cfg.Grist.APIKey), nil
}

func newSheetsSource(ctx context.Context, cfg *config.Config) (*sheets.Source, error) {
	if err := cfg.ValidateSheets(); err != nil {
		return nil, err
	}
	return sheets.NewSource(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, cfg.Sheets.WorksheetName)
}
