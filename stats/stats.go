// Package stats formats counts for display in the report.
package stats

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/grailbio/base/errors"
)

// Undefined is displayed in place of a ratio whose denominator is zero.
const Undefined = "N/A"

// ErrDivideByZero is returned by Percentage when the denominator is zero.
var ErrDivideByZero = errors.E(errors.Invalid, "stats: percentage with zero denominator")

// Percentage returns 100*num/den formatted with the given number of decimals
// and a trailing '%', e.g. Percentage(250, 1000, 2) == "25.00%".
func Percentage(num, den int64, decimals int) (string, error) {
	if den == 0 {
		return "", ErrDivideByZero
	}
	return FormatPercent(float64(num)/float64(den), decimals), nil
}

// FormatPercent formats fraction f as a percentage with the given number of
// decimals.
func FormatPercent(f float64, decimals int) string {
	return strconv.FormatFloat(100*f, 'f', decimals, 64) + "%"
}

// PercentOrUndefined is Percentage with Undefined substituted for a zero
// denominator.
func PercentOrUndefined(num, den int64, decimals int) string {
	s, err := Percentage(num, den, decimals)
	if err != nil {
		return Undefined
	}
	return s
}

// FormatFraction formats a fraction that may be undefined, as returned by
// coverage.Stats.Fraction.
func FormatFraction(f float64, ok bool, decimals int) string {
	if !ok {
		return Undefined
	}
	return FormatPercent(f, decimals)
}

// GroupedInteger formats v with thousands separators, e.g. "1,234,567".
func GroupedInteger(v int64) string {
	return humanize.Comma(v)
}
