package pricing

import (
	"fmt"
	"math"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const (
	mileageImpactPer10k = 5.0
	staleListingDays    = 15
	staleListingImpact  = -5.0
	cleanTitleImpact    = 3.0
	singleOwnerImpact   = 2.0
)

// AnalyzeFactors explains how the subject deviates from the comparable set.
// Output order is fixed: mileage, time on market, clean title, ownership.
func AnalyzeFactors(subject vehicle.ComparableVehicle, comparables []vehicle.ComparableVehicle) []vehicle.PriceFactor {
	factors := []vehicle.PriceFactor{mileageFactor(subject, comparables)}

	if subject.DaysOnMarket > 0 && len(comparables) > 0 {
		total := 0
		for _, c := range comparables {
			total += c.DaysOnMarket
		}
		diff := float64(subject.DaysOnMarket) - float64(total)/float64(len(comparables))
		if diff > staleListingDays {
			factors = append(factors, vehicle.PriceFactor{
				Factor:      vehicle.FactorTimeOnMarket,
				Impact:      staleListingImpact,
				Description: fmt.Sprintf("Listed for %d days (%d days longer than average)", subject.DaysOnMarket, int(math.Round(diff))),
			})
		}
	}

	if subject.AccidentFree {
		factors = append(factors, vehicle.PriceFactor{
			Factor:      vehicle.FactorCleanTitle,
			Impact:      cleanTitleImpact,
			Description: "Vehicle has a clean title history",
		})
	}
	if subject.OneOwner {
		factors = append(factors, vehicle.PriceFactor{
			Factor:      vehicle.FactorOwnership,
			Impact:      singleOwnerImpact,
			Description: "Single owner vehicle",
		})
	}
	return factors
}

func mileageFactor(subject vehicle.ComparableVehicle, comparables []vehicle.ComparableVehicle) vehicle.PriceFactor {
	avg := float64(subject.Mileage)
	if len(comparables) > 0 {
		total := 0
		for _, c := range comparables {
			total += c.Mileage
		}
		avg = float64(total) / float64(len(comparables))
	}

	diff := float64(subject.Mileage) - avg
	impact := math.Abs(diff) / 10000 * mileageImpactPer10k
	direction := "Lower"
	if diff > 0 {
		impact = -impact
		direction = "Higher"
	}
	return vehicle.PriceFactor{
		Factor:      vehicle.FactorMileage,
		Impact:      roundTenth(impact),
		Description: fmt.Sprintf("%s than average mileage (%s vs. avg. %s)", direction, vehicle.Miles(float64(subject.Mileage)), vehicle.Miles(avg)),
	}
}

func roundTenth(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0
	}
	return r
}
