package sync

import (
	"context"

	"github.com/safcost/banksync/internal/domain"
	"github.com/safcost/banksync/internal/grist"
	"github.com/safcost/banksync/internal/logger"
	"github.com/safcost/banksync/internal/normalize"
)

// fieldToColumn is the explicit translation from spreadsheet field names to
// destination column ids. Fields not listed here fall back to a match
// against the destination's column labels and ids.
var fieldToColumn = map[string]string{
	domain.FieldDate:        domain.ColDate,
	domain.FieldDescription: domain.ColDescription,
	domain.FieldAmount:      domain.ColAmount,
	domain.FieldReference:   domain.ColReference,
	domain.FieldValueDate:   domain.ColValueDate,
	domain.ColRowNum:        domain.ColRowNum,
}

// forcedDateFields are normalized as dates even when the destination column
// declares some other type; these source columns are always dates.
var forcedDateFields = map[string]bool{
	domain.FieldDate:      true,
	domain.FieldValueDate: true,
}

const (
	dateTimeLayout = "2006-01-02 15:04:05"
	dateOnlyLayout = "2006-01-02"
)

// Prepare maps one source record onto the destination schema, normalizing
// each field per its destination column type. Unmapped fields and values
// that fail to normalize are dropped with a warning; the destination never
// receives explicit nulls. The provenance row number is emitted when the
// destination tracks it.
func Prepare(ctx context.Context, rec domain.TransactionRecord, schema grist.Schema) grist.RecordFields {
	log := logger.FromContext(ctx)
	bank := rec.Bank()

	out := grist.RecordFields{}

	for name, value := range rec.Fields {
		if value == "" {
			continue
		}

		colID := resolveColumn(name, schema)
		if colID == "" {
			log.Warn().
				Str("field", name).
				Msg("Field not found in destination structure or explicit mapping, skipping")
			continue
		}
		col, ok := schema[colID]
		if !ok {
			log.Warn().
				Str("field", name).
				Str("column", colID).
				Msg("Mapped column not declared by destination, skipping")
			continue
		}

		switch {
		case col.Type == grist.TypeDate || col.Type == grist.TypeDateTime || forcedDateFields[name]:
			t, ok := normalize.Date(value, bank)
			if !ok {
				log.Warn().
					Str("field", name).
					Str("value", value).
					Str("bank", bank).
					Msg("Could not normalize date value, dropping field")
				continue
			}
			// Value_Date is a date-only column; everything else keeps time.
			if colID == domain.ColValueDate {
				out[colID] = t.Format(dateOnlyLayout)
			} else {
				out[colID] = t.Format(dateTimeLayout)
			}
		case col.Type == grist.TypeNumeric:
			v, ok := normalize.Amount(value)
			if !ok {
				log.Warn().
					Str("field", name).
					Str("value", value).
					Msg("Could not normalize amount value, dropping field")
				continue
			}
			out[colID] = v
		case col.Type == grist.TypeInt:
			v, ok := normalize.Integer(value)
			if !ok {
				log.Warn().
					Str("field", name).
					Str("value", value).
					Msg("Could not normalize integer value, dropping field")
				continue
			}
			out[colID] = v
		default:
			out[colID] = value
		}
	}

	if rec.RowNum > 0 && schema.HasColumn(domain.ColRowNum) {
		if _, set := out[domain.ColRowNum]; !set {
			out[domain.ColRowNum] = int64(rec.RowNum)
		}
	}

	return out
}

func resolveColumn(field string, schema grist.Schema) string {
	if colID, ok := fieldToColumn[field]; ok {
		return colID
	}
	for id, col := range schema {
		if col.Label == field || id == field {
			return id
		}
	}
	return ""
}
