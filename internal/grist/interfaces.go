package grist

import "context"

// TableStore defines the destination table operations the sync engine needs.
// This interface enables mocking and testing without a live Grist server.
type TableStore interface {
	// Columns fetches the destination table structure.
	Columns(ctx context.Context) ([]Column, error)

	// Records queries rows ordered by sortColumn, capped at limit.
	Records(ctx context.Context, sortColumn string, descending bool, limit int) ([]Record, error)

	// BulkInsert creates all given rows in a single call.
	BulkInsert(ctx context.Context, records []RecordFields) error
}
