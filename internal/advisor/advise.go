package advisor

import (
	"context"

	"github.com/joelkehle/vehicle-advisor/internal/negotiation"
	"github.com/joelkehle/vehicle-advisor/internal/pricing"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

// Advice is the full evaluation of one vehicle.
type Advice struct {
	Vehicle    vehicle.DecodedVehicle      `json:"vehicle"`
	Analysis   vehicle.PriceAnalysis       `json:"priceAnalysis"`
	Safety     vehicle.SafetyData          `json:"safetyData"`
	Strategy   vehicle.NegotiationStrategy `json:"negotiation"`
	Deal       pricing.DealEvaluation      `json:"deal"`
	Percentile float64                     `json:"percentile"`
}

// Evaluate derives the deal rating and price percentile of an analysis.
func Evaluate(a vehicle.PriceAnalysis) (pricing.DealEvaluation, float64) {
	deal := pricing.EvaluateDeal(a.SubjectVehiclePrice, a.AvgMarketPrice, a.PriceFactors)
	return deal, pricing.PricePercentile(a.SubjectVehiclePrice, a.ComparablePrices())
}

// Advise runs decode, pricing, safety and negotiation in sequence.
func (s *Service) Advise(ctx context.Context, vin, zip string, mileage int) (Advice, error) {
	decoded, err := s.LookupVIN(ctx, vin)
	if err != nil {
		return Advice{}, err
	}
	analysis, err := s.MarketData(ctx, vin, zip, mileage)
	if err != nil {
		return Advice{}, err
	}
	safety, err := s.Safety(ctx, vin, decoded.Make, decoded.Model, decoded.Year)
	if err != nil {
		return Advice{}, err
	}
	strategy := s.Negotiate(ctx, negotiation.Input{
		Vehicle:  decoded,
		Safety:   safety,
		Analysis: analysis,
		Mileage:  mileage,
	})
	deal, pct := Evaluate(analysis)
	return Advice{
		Vehicle:    decoded,
		Analysis:   analysis,
		Safety:     safety,
		Strategy:   strategy,
		Deal:       deal,
		Percentile: pct,
	}, nil
}
