// Package domain holds the transaction record passed between the spreadsheet
// source, the staging files and the sync engine.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Source field names as they appear in the spreadsheet header row.
const (
	FieldDate           = "Transaction Date"
	FieldDescription    = "Transaction Description"
	FieldAmount         = "Transaction Amount"
	FieldBank           = "Bank"
	FieldReference      = "Reference No."
	FieldValueDate      = "Value Date"
	FieldRunningBalance = "Running Balance"
)

// Destination column identifiers in the Grist table.
const (
	ColDate        = "Transaction_Date"
	ColDescription = "Transaction_Description"
	ColAmount      = "Transaction_Amount"
	ColReference   = "Reference_No"
	ColValueDate   = "Value_Date"
	ColRowNum      = "GSheets_RowNum"

	// ColBatchID, when the destination declares it, receives the upload batch
	// identifier so retried batches can be deduplicated remotely.
	ColBatchID = "Sync_Batch_ID"
)

// SourceFields lists the spreadsheet columns the sync extracts, in the order
// they are reported by diagnostics.
var SourceFields = []string{
	FieldDate,
	FieldDescription,
	FieldAmount,
	FieldBank,
	FieldReference,
	FieldValueDate,
	FieldRunningBalance,
}

const rowNumKey = "Row_Num"

// TransactionRecord is one source row: labeled text fields plus provenance.
// RowNum is the 1-based spreadsheet row position (header = row 1); zero means
// the record carries no row provenance.
type TransactionRecord struct {
	RowNum int
	Fields map[string]string
}

// Get returns the named field, or "" when absent.
func (r TransactionRecord) Get(name string) string {
	return r.Fields[name]
}

// Bank returns the bank hint used for date disambiguation.
func (r TransactionRecord) Bank() string {
	return r.Fields[FieldBank]
}

// IsBlank reports whether every field is empty.
func (r TransactionRecord) IsBlank() bool {
	for _, v := range r.Fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// MarshalJSON renders the record as a single flat object with Row_Num
// alongside the fields, the shape the staged files use on disk.
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		flat[k] = v
	}
	if r.RowNum > 0 {
		flat[rowNumKey] = r.RowNum
	}
	return json.Marshal(flat)
}

// UnmarshalJSON accepts the flat on-disk shape. Row_Num may arrive as a JSON
// number or a string; anything else is rejected.
func (r *TransactionRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	r.RowNum = 0
	r.Fields = make(map[string]string, len(flat))

	for k, v := range flat {
		if k == rowNumKey {
			switch n := v.(type) {
			case float64:
				r.RowNum = int(n)
			case string:
				parsed, err := strconv.Atoi(strings.TrimSpace(n))
				if err != nil {
					return fmt.Errorf("invalid %s value %q", rowNumKey, n)
				}
				r.RowNum = parsed
			default:
				return fmt.Errorf("invalid %s type %T", rowNumKey, v)
			}
			continue
		}

		switch s := v.(type) {
		case string:
			r.Fields[k] = s
		case float64:
			r.Fields[k] = strconv.FormatFloat(s, 'f', -1, 64)
		case nil:
			// Absent value; leave the field out entirely.
		default:
			return fmt.Errorf("field %q has type %T, want string", k, v)
		}
	}

	return nil
}
