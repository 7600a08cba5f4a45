package vehicle

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// USD formats a price as whole dollars with thousands separators: $18,250.
func USD(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

// Miles formats a mileage figure with thousands separators.
func Miles(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// SignedPercent renders an impact such as +3.0% or -10.0%.
func SignedPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if v > 0 {
		s = "+" + s
	}
	return s + "%"
}

func itoa(n int) string { return strconv.Itoa(n) }
