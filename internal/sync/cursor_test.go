package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safcost/banksync/internal/domain"
	"github.com/safcost/banksync/internal/grist"
)

// fakeStore is a hand-rolled TableStore for cursor and pipeline tests.
type fakeStore struct {
	columns    []grist.Column
	columnsErr error

	records    []grist.Record
	recordsErr error
	lastSort   string
	lastLimit  int

	inserts   [][]grist.RecordFields
	insertErr error
}

func (f *fakeStore) Columns(ctx context.Context) ([]grist.Column, error) {
	return f.columns, f.columnsErr
}

func (f *fakeStore) Records(ctx context.Context, sortColumn string, descending bool, limit int) ([]grist.Record, error) {
	f.lastSort = sortColumn
	f.lastLimit = limit
	return f.records, f.recordsErr
}

func (f *fakeStore) BulkInsert(ctx context.Context, records []grist.RecordFields) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts = append(f.inserts, records)
	return nil
}

func srcRecord(rowNum int, date, desc, amount string) domain.TransactionRecord {
	return domain.TransactionRecord{
		RowNum: rowNum,
		Fields: map[string]string{
			domain.FieldDate:        date,
			domain.FieldDescription: desc,
			domain.FieldAmount:      amount,
		},
	}
}

func epoch(date string) float64 {
	t, err := time.Parse("2006-01-02 15:04:05", date)
	if err != nil {
		panic(err)
	}
	return float64(t.UTC().Unix())
}

func TestResolveCursorPicksRowSequence(t *testing.T) {
	store := &fakeStore{
		records: []grist.Record{
			{ID: 9, Fields: map[string]any{domain.ColRowNum: float64(41)}},
		},
	}
	schema := testSchema(true)

	cursor, err := ResolveCursor(quietContext(), store, schema, 200)
	if err != nil {
		t.Fatalf("ResolveCursor: %v", err)
	}
	if store.lastSort != domain.ColRowNum || store.lastLimit != 1 {
		t.Errorf("queried sort=%q limit=%d, want %q and 1", store.lastSort, store.lastLimit, domain.ColRowNum)
	}

	for _, tc := range []struct {
		rowNum int
		want   Classification
	}{
		{42, ClassNew},
		{41, ClassBeforeCursor},
		{2, ClassBeforeCursor},
		{0, ClassNew},
	} {
		got := cursor.Classify(srcRecord(tc.rowNum, "29-08-2025", "x", "1"))
		if got != tc.want {
			t.Errorf("row %d classified %v, want %v", tc.rowNum, got, tc.want)
		}
	}
}

func TestRowSequenceEmptyDestination(t *testing.T) {
	store := &fakeStore{}
	cursor, err := ResolveCursor(quietContext(), store, testSchema(true), 200)
	if err != nil {
		t.Fatalf("ResolveCursor: %v", err)
	}
	if got := cursor.Classify(srcRecord(2, "29-08-2025", "x", "1")); got != ClassNew {
		t.Errorf("empty destination classified %v, want ClassNew", got)
	}
}

func TestRowSequenceRemoteError(t *testing.T) {
	store := &fakeStore{recordsErr: errors.New("boom")}
	if _, err := ResolveCursor(quietContext(), store, testSchema(true), 200); err == nil {
		t.Fatal("expected error from unreachable destination")
	}
}

func TestTimestampCursorClassification(t *testing.T) {
	// Latest destination record is at T; one other tied record shares T.
	store := &fakeStore{
		records: []grist.Record{
			{ID: 1, Fields: map[string]any{
				domain.ColDate:        epoch("2025-08-28 10:00:00"),
				domain.ColDescription: "COFFEE",
				domain.ColAmount:      4.5,
			}},
			{ID: 2, Fields: map[string]any{
				domain.ColDate:        epoch("2025-08-28 10:00:00"),
				domain.ColDescription: "GROCERIES",
				domain.ColAmount:      82.0,
			}},
			{ID: 3, Fields: map[string]any{
				domain.ColDate:        epoch("2025-08-27 09:00:00"),
				domain.ColDescription: "RENT",
				domain.ColAmount:      1200.0,
			}},
		},
	}

	cursor, err := ResolveCursor(quietContext(), store, testSchema(false), 200)
	if err != nil {
		t.Fatalf("ResolveCursor: %v", err)
	}
	if store.lastSort != domain.ColDate || store.lastLimit != 200 {
		t.Errorf("queried sort=%q limit=%d, want %q and 200", store.lastSort, store.lastLimit, domain.ColDate)
	}

	for _, tc := range []struct {
		name string
		rec  domain.TransactionRecord
		want Classification
	}{
		{"after cursor", srcRecord(0, "28-08-2025 10:00:01", "NEW THING", "10"), ClassNew},
		{"before cursor", srcRecord(0, "28-08-2025 09:59:59", "OLD THING", "10"), ClassBeforeCursor},
		{"tied and matching", srcRecord(0, "28-08-2025 10:00:00", "COFFEE", "4.50"), ClassDuplicate},
		{"tied matching other tie member", srcRecord(0, "28-08-2025 10:00:00", "GROCERIES", "82"), ClassDuplicate},
		{"tied but different description", srcRecord(0, "28-08-2025 10:00:00", "COFFEE REFILL", "4.50"), ClassNew},
		{"tied but different amount", srcRecord(0, "28-08-2025 10:00:00", "COFFEE", "5.00"), ClassNew},
		{"unparseable date passes through", srcRecord(0, "unknown", "X", "1"), ClassNew},
	} {
		if got := cursor.Classify(tc.rec); got != tc.want {
			t.Errorf("%s: classified %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTimestampCursorEmptyDestination(t *testing.T) {
	store := &fakeStore{}
	cursor, err := ResolveCursor(quietContext(), store, testSchema(false), 200)
	if err != nil {
		t.Fatalf("ResolveCursor: %v", err)
	}
	if got := cursor.Classify(srcRecord(0, "01-01-2020", "x", "1")); got != ClassNew {
		t.Errorf("empty destination classified %v, want ClassNew", got)
	}
}

func TestTimestampCursorNoParseableDates(t *testing.T) {
	store := &fakeStore{
		records: []grist.Record{
			{ID: 1, Fields: map[string]any{domain.ColDate: "not a date"}},
			{ID: 2, Fields: map[string]any{domain.ColDate: nil}},
		},
	}
	cursor, err := ResolveCursor(quietContext(), store, testSchema(false), 200)
	if err != nil {
		t.Fatalf("ResolveCursor: %v", err)
	}
	if got := cursor.Classify(srcRecord(0, "01-01-1999", "x", "1")); got != ClassNew {
		t.Errorf("unusable destination dates classified %v, want ClassNew", got)
	}
}

func TestMatchesRequiresAllThreeKeys(t *testing.T) {
	dst := grist.Record{Fields: map[string]any{
		domain.ColDate:        epoch("2025-08-28 00:00:00"),
		domain.ColDescription: "COFFEE",
		domain.ColAmount:      4.5,
	}}

	for _, tc := range []struct {
		name string
		rec  domain.TransactionRecord
		want bool
	}{
		{"exact match", srcRecord(0, "28-08-2025", "COFFEE", "4.50"), true},
		{"formatted amount matches", srcRecord(0, "28-08-2025", "COFFEE", "₹4.50"), true},
		{"case differs", srcRecord(0, "28-08-2025", "coffee", "4.50"), false},
		{"missing description", srcRecord(0, "28-08-2025", "", "4.50"), false},
		{"unparseable date", srcRecord(0, "nope", "COFFEE", "4.50"), false},
		{"unparseable amount", srcRecord(0, "28-08-2025", "COFFEE", "four"), false},
	} {
		if got := Matches(tc.rec, dst); got != tc.want {
			t.Errorf("%s: Matches = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMatchesDestinationTextDate(t *testing.T) {
	dst := grist.Record{Fields: map[string]any{
		domain.ColDate:        "28-08-2025",
		domain.ColDescription: "COFFEE",
		domain.ColAmount:      "4.50",
	}}
	if !Matches(srcRecord(0, "28/08/2025", "COFFEE", "4.5"), dst) {
		t.Error("text-typed destination values should normalize and match")
	}
}
