package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/safcost/banksync/internal/domain"
	"github.com/safcost/banksync/internal/grist"
	"github.com/safcost/banksync/internal/logger"
	"github.com/safcost/banksync/internal/normalize"
)

// Classification says what a cursor decided about one source record.
type Classification int

const (
	// ClassNew means the record is past the cursor and should be uploaded.
	ClassNew Classification = iota
	// ClassDuplicate means the record already exists in the destination.
	ClassDuplicate
	// ClassBeforeCursor means the record predates the last synced position.
	ClassBeforeCursor
)

// Cursor is a frozen last-synced position. It is resolved once per staging
// run, before any record is classified, so every record in a batch is judged
// against the same destination state.
type Cursor interface {
	Classify(rec domain.TransactionRecord) Classification
	Describe() string
}

// ResolveCursor picks the cursor strategy for the destination table. When
// the table tracks source row numbers the cursor is the highest row number
// seen; otherwise it falls back to the most recent transaction timestamp
// plus content matching against records tied at that timestamp. An
// unreadable destination is an error; an empty one yields a cursor that
// classifies everything as new.
func ResolveCursor(ctx context.Context, store grist.TableStore, schema grist.Schema, window int) (Cursor, error) {
	if schema.HasColumn(domain.ColRowNum) {
		return resolveRowSequence(ctx, store)
	}
	return resolveTimestamp(ctx, store, window)
}

type rowSequenceCursor struct {
	max int64
}

func resolveRowSequence(ctx context.Context, store grist.TableStore) (Cursor, error) {
	log := logger.FromContext(ctx)

	recs, err := store.Records(ctx, domain.ColRowNum, true, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch last synced row: %w", err)
	}
	if len(recs) == 0 {
		log.Info().Msg("Destination table is empty, treating all source rows as new")
		return rowSequenceCursor{}, nil
	}

	max, ok := destRowNum(recs[0])
	if !ok {
		log.Warn().Msg("Last destination record has no usable row number, treating all source rows as new")
		return rowSequenceCursor{}, nil
	}
	return rowSequenceCursor{max: max}, nil
}

func (c rowSequenceCursor) Classify(rec domain.TransactionRecord) Classification {
	if c.max == 0 || rec.RowNum == 0 {
		return ClassNew
	}
	if int64(rec.RowNum) > c.max {
		return ClassNew
	}
	return ClassBeforeCursor
}

func (c rowSequenceCursor) Describe() string {
	if c.max == 0 {
		return "row-sequence cursor (empty destination)"
	}
	return fmt.Sprintf("row-sequence cursor (last synced row %d)", c.max)
}

type timestampCursor struct {
	max  time.Time
	tied []grist.Record
	open bool // open means no usable cursor, classify everything as new
}

func resolveTimestamp(ctx context.Context, store grist.TableStore, window int) (Cursor, error) {
	log := logger.FromContext(ctx)

	recs, err := store.Records(ctx, domain.ColDate, true, window)
	if err != nil {
		return nil, fmt.Errorf("fetch recent records: %w", err)
	}
	if len(recs) == 0 {
		log.Info().Msg("Destination table is empty, treating all source rows as new")
		return timestampCursor{open: true}, nil
	}

	var (
		max   time.Time
		found bool
	)
	for _, r := range recs {
		t, ok := destDate(r.Fields[domain.ColDate], destBank(r))
		if !ok {
			continue
		}
		if !found || t.After(max) {
			max = t
			found = true
		}
	}
	if !found {
		log.Warn().
			Int("records", len(recs)).
			Msg("No destination record has a parseable date, treating all source rows as new")
		return timestampCursor{open: true}, nil
	}

	var tied []grist.Record
	for _, r := range recs {
		t, ok := destDate(r.Fields[domain.ColDate], destBank(r))
		if ok && t.Equal(max) {
			tied = append(tied, r)
		}
	}
	return timestampCursor{max: max, tied: tied}, nil
}

func (c timestampCursor) Classify(rec domain.TransactionRecord) Classification {
	if c.open {
		return ClassNew
	}
	t, ok := normalize.Date(rec.Get(domain.FieldDate), rec.Bank())
	if !ok {
		// Unsortable rows are kept rather than dropped.
		return ClassNew
	}
	if t.After(c.max) {
		return ClassNew
	}
	if t.Before(c.max) {
		return ClassBeforeCursor
	}
	for _, dst := range c.tied {
		if Matches(rec, dst) {
			return ClassDuplicate
		}
	}
	return ClassNew
}

func (c timestampCursor) Describe() string {
	if c.open {
		return "timestamp cursor (no usable position, all rows pass)"
	}
	return fmt.Sprintf("timestamp cursor (latest %s, %d tied records)",
		c.max.Format(dateTimeLayout), len(c.tied))
}
