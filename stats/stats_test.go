package stats

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/expect"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		num, den int64
		decimals int
		want     string
	}{
		{250, 1000, 2, "25.00%"},
		{1, 3, 1, "33.3%"},
		{2, 3, 3, "66.667%"},
		{0, 5, 0, "0%"},
		{5, 5, 1, "100.0%"},
		{7, 4, 2, "175.00%"},
	}
	for _, tt := range tests {
		got, err := Percentage(tt.num, tt.den, tt.decimals)
		expect.NoError(t, err)
		expect.EQ(t, got, tt.want)
	}
}

func TestPercentageZeroDenominator(t *testing.T) {
	for _, num := range []int64{0, 1} {
		got, err := Percentage(num, 0, 2)
		expect.EQ(t, got, "")
		expect.True(t, err == ErrDivideByZero)
		expect.True(t, errors.Is(errors.Invalid, err))
	}
	expect.EQ(t, PercentOrUndefined(0, 0, 2), Undefined)
	expect.EQ(t, PercentOrUndefined(1, 4, 1), "25.0%")
}

func TestFormatFraction(t *testing.T) {
	expect.EQ(t, FormatFraction(0.25, true, 2), "25.00%")
	expect.EQ(t, FormatFraction(0, false, 2), Undefined)
}

func TestGroupedInteger(t *testing.T) {
	expect.EQ(t, GroupedInteger(1234567), "1,234,567")
	expect.EQ(t, GroupedInteger(999), "999")
	expect.EQ(t, GroupedInteger(0), "0")
	expect.EQ(t, GroupedInteger(-1000), "-1,000")
}
