package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safcost/banksync/internal/domain"
	"github.com/safcost/banksync/internal/grist"
)

func newLastRecordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "last-record",
		Short: "Print the most recent record in the destination table",
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

			columns, err := store.Columns(ctx)
			if err != nil {
				return fmt.Errorf("fetch destination columns: %w", err)
			}
			schema := grist.SchemaFromColumns(columns)

			// Most recent means highest source row when the table tracks it,
			// latest transaction date otherwise.
			sortColumn := domain.ColDate
			if schema.HasColumn(domain.ColRowNum) {
				sortColumn = domain.ColRowNum
			}

			records, err := store.Records(ctx, sortColumn, true, 1)
			if err != nil {
				return fmt.Errorf("fetch last record: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "destination table is empty")
				return nil
			}

			out, err := json.MarshalIndent(records[0], "", "  ")
			if err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify access to the destination document and the spreadsheet source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, _, err := setup(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			store, err := newGristStore(cfg)
			if err != nil {
				return err
			}
			if err := store.CheckAccess(ctx); err != nil {
				return fmt.Errorf("destination access check failed: %w", err)
			}
			fmt.Fprintf(w, "destination document %s reachable\n", cfg.Grist.DocID)

			tables, err := store.Tables(ctx)
			if err != nil {
				return fmt.Errorf("list destination tables: %w", err)
			}
			fmt.Fprintf(w, "tables: %s\n", strings.Join(tables, ", "))

			// The sheet check is optional; upload-only deployments may not
			// carry spreadsheet credentials.
			if err := cfg.ValidateSheets(); err != nil {
				fmt.Fprintf(w, "spreadsheet source not configured (%v)\n", err)
				return nil
			}
			source, err := newSheetsSource(ctx, cfg)
			if err != nil {
				return fmt.Errorf("spreadsheet source: %w", err)
			}
			diag, err := source.Describe(ctx)
			if err != nil {
				return fmt.Errorf("spreadsheet access check failed: %w", err)
			}
			fmt.Fprintf(w, "worksheet %s: %d headers, %d expected columns found\n",
				cfg.Sheets.WorksheetName, len(diag.Headers), len(diag.Found))
			if len(diag.Missing) > 0 {
				fmt.Fprintf(w, "missing columns: %s\n", strings.Join(diag.Missing, ", "))
			}
			return nil
		},
	}
}
