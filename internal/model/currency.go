package model

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// CurrencySymbol prefixes every formatted portfolio value
const CurrencySymbol = "₹"

// FormatINR renders a rupee amount with thousands separators, e.g. ₹50,000,000.
func FormatINR(v int64) string {
	return CurrencySymbol + humanize.Comma(v)
}

// ParseINR reverses FormatINR. Anything that is not a number parses as zero.
func ParseINR(s string) int64 {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), CurrencySymbol))
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
