package commands

import (
	"github.com/spf13/cobra"

	"github.com/safcost/banksync/internal/sync"
)

func newSyncCommand() *cobra.Command {
	var perRecord bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run the full pipeline: fetch, stage and upload today's transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, log, err := setup(cmd)
			if err != nil {
				return err
			}

			store, err := newGristStore(cfg)
			if err != nil {
				return err
			}
			source, err := newSheetsSource(ctx, cfg)
			if err != nil {
				return err
			}

			runner := sync.NewRunner(cfg, store, source)
			runner.PerRecordUpload = perRecord

			if err := runner.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Sync failed")
				return err
			}
			log.Info().Msg("Sync complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&perRecord, "per-record", false, "insert records one at a time with the configured delay")

	return cmd
}

func newFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all rows from the spreadsheet into today's snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, _, err := setup(cmd)
			if err != nil {
				return err
			}

			source, err := newSheetsSource(ctx, cfg)
			if err != nil {
				return err
			}

			return sync.NewRunner(cfg, nil, source).Fetch(ctx)
		},
	}
}

func newStageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stage",
		Short: "Filter today's snapshot against the destination and stage the new records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, _, err := setup(cmd)
			if err != nil {
				return err
			}

			store, err := newGristStore(cfg)
			if err != nil {
				return err
			}

			return sync.NewRunner(cfg, store, nil).Stage(ctx)
		},
	}
}

func newUploadCommand() *cobra.Command {
	var perRecord bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the most recent staged batch to the destination table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, _, err := setup(cmd)
			if err != nil {
				return err
			}

			store, err := newGristStore(cfg)
			if err != nil {
				return err
			}

			runner := sync.NewRunner(cfg, store, nil)
			runner.PerRecordUpload = perRecord
			return runner.Upload(ctx)
		},
	}

	cmd.Flags().BoolVar(&perRecord, "per-record", false, "insert records one at a time with the configured delay")

	return cmd
}
