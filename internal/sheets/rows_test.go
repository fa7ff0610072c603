package sheets

import (
	"testing"

	"github.com/safcost/banksync/internal/domain"
)

func TestRecordsFromRows(t *testing.T) {
	values := [][]string{
		{"Transaction Date", "Transaction Description", "Transaction Amount", "Bank", "Notes"},
		{"29-08-2025", "UPI/GROCERY", "450.00", "HDFC", "ignore me"},
		{"", "  ", "", "", ""},
		{"07/02/2025", "NEFT/SALARY", "1,00,000", "ICICI", ""},
	}

	records, diag, err := RecordsFromRows(values)
	if err != nil {
		t.Fatalf("RecordsFromRows() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (blank row skipped)", len(records))
	}

	// Provenance row numbers are actual sheet positions: header is row 1,
	// and the skipped blank row still occupies row 3.
	if records[0].RowNum != 2 {
		t.Errorf("first RowNum = %d, want 2", records[0].RowNum)
	}
	if records[1].RowNum != 4 {
		t.Errorf("second RowNum = %d, want 4", records[1].RowNum)
	}

	if records[0].Get(domain.FieldDescription) != "UPI/GROCERY" {
		t.Errorf("description = %q", records[0].Get(domain.FieldDescription))
	}
	// Columns outside the expected set are not extracted.
	if _, ok := records[0].Fields["Notes"]; ok {
		t.Error("unexpected column extracted")
	}

	wantFound := 4
	if len(diag.Found) != wantFound {
		t.Errorf("diag.Found = %v, want %d entries", diag.Found, wantFound)
	}
	wantMissing := []string{domain.FieldReference, domain.FieldValueDate, domain.FieldRunningBalance}
	if len(diag.Missing) != len(wantMissing) {
		t.Errorf("diag.Missing = %v, want %v", diag.Missing, wantMissing)
	}
}

func TestRecordsFromRows_ShortRow(t *testing.T) {
	values := [][]string{
		{"Transaction Date", "Transaction Description", "Transaction Amount"},
		{"29-08-2025", "ATM WITHDRAWAL"},
	}

	records, _, err := RecordsFromRows(values)
	if err != nil {
		t.Fatalf("RecordsFromRows() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records[0].Fields[domain.FieldAmount]; ok {
		t.Error("field beyond row length should be absent")
	}
}

func TestRecordsFromRows_NoExpectedColumns(t *testing.T) {
	values := [][]string{
		{"Foo", "Bar"},
		{"1", "2"},
	}

	if _, _, err := RecordsFromRows(values); err == nil {
		t.Error("expected error when no expected column is present")
	}
}

func TestRecordsFromRows_Empty(t *testing.T) {
	records, diag, err := RecordsFromRows(nil)
	if err != nil {
		t.Fatalf("RecordsFromRows(nil) error = %v", err)
	}
	if len(records) != 0 || len(diag.Found) != 0 {
		t.Errorf("expected empty result, got %v / %v", records, diag)
	}
}
