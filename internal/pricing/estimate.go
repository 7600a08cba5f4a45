package pricing

import (
	"math"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const (
	// DefaultEstimate prices a subject when there is nothing to compare against.
	DefaultEstimate = 25000.0
	estimateFloor   = 0.7
)

// EstimatePrice prices a vehicle with the given mileage from the comparable
// set's pairwise price/mileage slope. The estimate never drops below 70% of
// the comparable average.
func EstimatePrice(comparables []vehicle.ComparableVehicle, mileage int) float64 {
	if len(comparables) == 0 {
		return DefaultEstimate
	}

	var priceDelta, mileageDelta float64
	for i := 0; i < len(comparables); i++ {
		for j := i + 1; j < len(comparables); j++ {
			dm := float64(comparables[i].Mileage - comparables[j].Mileage)
			if dm == 0 {
				continue
			}
			priceDelta += math.Abs(comparables[i].Price - comparables[j].Price)
			mileageDelta += math.Abs(dm)
		}
	}
	perMile := 0.0
	if mileageDelta > 0 {
		perMile = priceDelta / mileageDelta
	}

	var sumPrice, sumMiles float64
	for _, c := range comparables {
		sumPrice += c.Price
		sumMiles += float64(c.Mileage)
	}
	n := float64(len(comparables))
	avgPrice, avgMiles := sumPrice/n, sumMiles/n

	estimate := avgPrice - (float64(mileage)-avgMiles)*perMile
	return math.Round(math.Max(estimate, avgPrice*estimateFloor))
}
