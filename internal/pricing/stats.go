package pricing

import "sort"

type PriceStats struct {
	Count  int
	Min    float64
	Max    float64
	Median float64
	Mean   float64
}

// Summarize ignores non-positive prices. An empty population yields zero
// stats rather than an error.
func Summarize(prices []float64) PriceStats {
	sorted := positiveSorted(prices)
	n := len(sorted)
	if n == 0 {
		return PriceStats{}
	}
	sum := 0.0
	for _, p := range sorted {
		sum += p
	}
	return PriceStats{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Median: sorted[n/2],
		Mean:   sum / float64(n),
	}
}

// PricePercentile returns the share of the population priced strictly below
// price, as a percentage. Prices at or above the maximum rank 100.
func PricePercentile(price float64, prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	if price >= sorted[len(sorted)-1] {
		return 100
	}
	pos := sort.SearchFloat64s(sorted, price)
	return float64(pos) / float64(len(sorted)) * 100
}

func positiveSorted(prices []float64) []float64 {
	out := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p > 0 {
			out = append(out, p)
		}
	}
	sort.Float64s(out)
	return out
}
