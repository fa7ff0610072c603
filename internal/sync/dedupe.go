package sync

import (
	"strconv"
	"strings"
	"time"

	"github.com/safcost/banksync/internal/domain"
	"github.com/safcost/banksync/internal/grist"
	"github.com/safcost/banksync/internal/normalize"
)

// Matches reports whether a source record and a destination record describe
// the same transaction: normalized date, exact description text, and
// normalized amount all equal. Any of the six values failing to normalize
// means the pair cannot be compared and is reported as not matching, which
// errs toward re-inserting rather than silently dropping.
func Matches(src domain.TransactionRecord, dst grist.Record) bool {
	bank := src.Bank()

	srcDate, ok := normalize.Date(src.Get(domain.FieldDate), bank)
	if !ok {
		return false
	}
	srcDesc := src.Get(domain.FieldDescription)
	if srcDesc == "" {
		return false
	}
	srcAmt, ok := normalize.Amount(src.Get(domain.FieldAmount))
	if !ok {
		return false
	}

	dstDate, ok := destDate(dst.Fields[domain.ColDate], destBank(dst))
	if !ok {
		return false
	}
	dstDesc, ok := dst.Fields[domain.ColDescription].(string)
	if !ok || strings.TrimSpace(dstDesc) == "" {
		return false
	}
	dstAmt, ok := destAmount(dst.Fields[domain.ColAmount])
	if !ok {
		return false
	}

	return srcDate.Equal(dstDate) &&
		srcDesc == strings.TrimSpace(dstDesc) &&
		srcAmt == dstAmt
}

// destBank returns the bank tag stored on a destination record, if any, so
// its date can be reinterpreted under the same bank-specific rules as the
// source side.
func destBank(dst grist.Record) string {
	if v, ok := dst.Fields[domain.FieldBank].(string); ok {
		return v
	}
	return ""
}

// destDate interprets a destination date value. Date columns come back as
// epoch seconds (numbers), text columns as strings.
func destDate(v any, bank string) (time.Time, bool) {
	switch d := v.(type) {
	case string:
		return normalize.Date(d, bank)
	case float64:
		sec := int64(d)
		if float64(sec) != d {
			return time.Time{}, false
		}
		return time.Unix(sec, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func destAmount(v any) (float64, bool) {
	switch a := v.(type) {
	case float64:
		return a, true
	case string:
		return normalize.Amount(a)
	default:
		return 0, false
	}
}

// destRowNum extracts the provenance row number from a destination record.
func destRowNum(dst grist.Record) (int64, bool) {
	switch n := dst.Fields[domain.ColRowNum].(type) {
	case float64:
		return int64(n), true
	case string:
		v, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}
