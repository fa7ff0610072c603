// Package sheets reads bank-transaction rows from a Google Sheets worksheet
// using a service-account credential.
package sheets

import (
	"context"
	"fmt"

	"github.com/safcost/banksync/internal/domain"
	"github.com/safcost/banksync/internal/logger"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

// Source fetches rows from one spreadsheet worksheet.
type Source struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	worksheet     string
}

// NewSource creates a read-only Sheets client from a service-account JSON
// key file.
func NewSource(ctx context.Context, credentialsPath, spreadsheetID, worksheet string) (*Source, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("NewSource: create sheets service: %w", err)
	}

	return &Source{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}, nil
}

// FetchAllRows pulls every row from the worksheet and extracts the expected
// transaction columns. Missing expected columns are logged, not fatal;
// partial sheets are normal.
func (s *Source) FetchAllRows(ctx context.Context) ([]domain.TransactionRecord, error) {
	log := logger.FromContext(ctx)

	values, err := s.fetchGrid(ctx)
	if err != nil {
		return nil, err
	}

	records, diag, err := RecordsFromRows(values)
	if err != nil {
		return nil, fmt.Errorf("FetchAllRows: %w", err)
	}

	for _, missing := range diag.Missing {
		log.Warn().
			Str("field", missing).
			Strs("headers", diag.Headers).
			Msg("Expected column not found in worksheet")
	}

	log.Info().
		Int("record_count", len(records)).
		Str("worksheet", s.worksheet).
		Msg("Retrieved records from spreadsheet")

	return records, nil
}

// Describe fetches only the header row and reports which expected columns
// are present, for the connection check command.
func (s *Source) Describe(ctx context.Context) (Diagnosis, error) {
	values, err := s.fetchGrid(ctx)
	if err != nil {
		return Diagnosis{}, err
	}

	_, diag, err := RecordsFromRows(values)
	if err != nil {
		return diag, fmt.Errorf("Describe: %w", err)
	}
	return diag, nil
}

func (s *Source) fetchGrid(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.worksheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch worksheet %q: %w", s.worksheet, err)
	}

	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		values = append(values, cells)
	}
	return values, nil
}
