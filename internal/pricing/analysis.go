package pricing

import (
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

// GoodPriceThreshold is the percentage below the market average at which an
// asking price counts as good.
const GoodPriceThreshold = -5.0

const synthesizedSubjectID = "subject-vehicle"

type Input struct {
	VIN     string
	ZIP     string
	Mileage int
	// Identity fills in a synthesized subject; only needed when the VIN is
	// missing from Comparables.
	Identity    vehicle.DecodedVehicle
	Comparables []vehicle.ComparableVehicle
	Source      vehicle.DataSource
}

func FindSubject(vin string, comparables []vehicle.ComparableVehicle) (vehicle.ComparableVehicle, bool) {
	for _, c := range comparables {
		if vehicle.SameVIN(c.VIN, vin) {
			return c, true
		}
	}
	return vehicle.ComparableVehicle{}, false
}

// SynthesizeSubject builds a subject listing priced from the comparables.
func SynthesizeSubject(in Input) vehicle.ComparableVehicle {
	return vehicle.ComparableVehicle{
		ID:            synthesizedSubjectID,
		VIN:           in.VIN,
		Year:          in.Identity.Year,
		Make:          in.Identity.Make,
		Model:         in.Identity.Model,
		Trim:          in.Identity.Trim,
		Mileage:       in.Mileage,
		Price:         EstimatePrice(in.Comparables, in.Mileage),
		Location:      vehicle.Location{Zip: in.ZIP},
		ExteriorColor: in.Identity.ExteriorColor,
		InteriorColor: in.Identity.InteriorColor,
	}
}

// Analyze positions the subject against the comparable set. Market statistics
// only cover observed listings: a synthesized subject never feeds its own
// estimate back into the average.
func Analyze(in Input) vehicle.PriceAnalysis {
	subject, found := FindSubject(in.VIN, in.Comparables)
	if !found {
		subject = SynthesizeSubject(in)
	}

	prices := make([]float64, 0, len(in.Comparables))
	for _, c := range in.Comparables {
		prices = append(prices, c.Price)
	}
	stats := Summarize(prices)
	avg := stats.Mean
	if stats.Count == 0 {
		avg = subject.Price
	}

	diff := subject.Price - avg
	pct := 0.0
	if avg > 0 {
		pct = diff / avg * 100
	}

	similar := make([]vehicle.ComparableVehicle, 0, len(in.Comparables)+1)
	similar = append(similar, subject)
	for _, c := range in.Comparables {
		if !vehicle.SameVIN(c.VIN, in.VIN) {
			similar = append(similar, c)
		}
	}

	source := in.Source
	if source == "" {
		source = vehicle.SourceLive
	}
	return vehicle.PriceAnalysis{
		AvgMarketPrice:       avg,
		MinPrice:             stats.Min,
		MaxPrice:             stats.Max,
		MedianPrice:          stats.Median,
		SubjectVehiclePrice:  subject.Price,
		PriceDifference:      diff,
		PercentageDifference: pct,
		IsPriceGood:          pct <= GoodPriceThreshold,
		SimilarVehicles:      similar,
		PriceFactors:         AnalyzeFactors(subject, in.Comparables),
		SubjectSynthesized:   !found,
		Source:               source,
	}
}
