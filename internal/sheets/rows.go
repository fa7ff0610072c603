package sheets

import (
	"fmt"
	"strings"

	"github.com/safcost/banksync/internal/domain"
)

// Diagnosis describes how the worksheet header row matched the expected
// transaction columns.
type Diagnosis struct {
	Headers []string
	Found   []string
	Missing []string
}

// RecordsFromRows turns a raw value grid into transaction records. The first
// row is the header; only the expected transaction columns are extracted.
// Rows whose cells are all blank are skipped. Each record carries its actual
// 1-based sheet row number (header = row 1) as provenance.
func RecordsFromRows(values [][]string) ([]domain.TransactionRecord, Diagnosis, error) {
	var diag Diagnosis
	if len(values) == 0 {
		return nil, diag, nil
	}

	headers := values[0]
	diag.Headers = headers

	fieldIndex := make(map[string]int)
	for _, field := range domain.SourceFields {
		idx := indexOf(headers, field)
		if idx < 0 {
			diag.Missing = append(diag.Missing, field)
			continue
		}
		fieldIndex[field] = idx
		diag.Found = append(diag.Found, field)
	}

	if len(fieldIndex) == 0 {
		return nil, diag, fmt.Errorf("none of the expected transaction columns found in header row %v", headers)
	}

	var records []domain.TransactionRecord
	for i, row := range values[1:] {
		if allBlank(row) {
			continue
		}

		rec := domain.TransactionRecord{
			RowNum: i + 2, // header occupies row 1
			Fields: make(map[string]string, len(fieldIndex)),
		}
		for field, col := range fieldIndex {
			if col >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[col]); v != "" {
				rec.Fields[field] = v
			}
		}
		records = append(records, rec)
	}

	return records, diag, nil
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

func allBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
