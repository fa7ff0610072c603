package normalize

import (
	"strconv"
	"strings"
)

var amountStripper = strings.NewReplacer("$", "", ",", "", "₹", "")

// Amount parses a raw amount value, stripping currency and thousands
// decoration first. A blank or absent value returns ok=false, never zero;
// zero is a legitimate amount and must stay distinguishable from "missing".
func Amount(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(amountStripper.Replace(raw))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Integer parses a raw integer value with the same absent-on-blank rule as
// Amount.
func Integer(raw string) (int64, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
