package negotiation

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const (
	goodPriceDiscount  = 3
	fairPriceDiscount  = 10
	maxRecallPoints    = 3
	lowSafetyRating    = 2
	strongSafetyRating = 4
	inspectionPoint    = "Get a pre-purchase inspection before finalizing the purchase"
)

var openingOfferRatio = decimal.New(9, -1)

var additionalTips = []string{
	"Get a pre-purchase inspection from a trusted mechanic",
	"Check the vehicle history report for accidents or damage",
	"Verify if the warranty is transferable",
	"Be prepared to walk away if the price doesn't meet your target",
}

// Offers returns the target price and opening offer for an analysis: a 3%
// discount off the market average when the price is already good, 10%
// otherwise, with the opening offer at 90% of target.
func Offers(analysis vehicle.PriceAnalysis) (target, opening float64) {
	discount := int64(fairPriceDiscount)
	if analysis.IsPriceGood {
		discount = goodPriceDiscount
	}
	t := decimal.NewFromFloat(analysis.AvgMarketPrice).
		Mul(decimal.NewFromInt(100 - discount)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	o := t.Mul(openingOfferRatio).Round(0)
	return t.InexactFloat64(), o.InexactFloat64()
}

// Generate builds a rule-based strategy. It never fails and always fills the
// summary, all three scripts and the tips.
func Generate(decoded vehicle.DecodedVehicle, safety vehicle.SafetyData, analysis vehicle.PriceAnalysis, mileage int) vehicle.NegotiationStrategy {
	desc := decoded.Description()
	target, opening := Offers(analysis)
	concerns := concernsFor(safety, analysis)

	summary := fmt.Sprintf("Negotiation strategy for %s priced at %s", desc, vehicle.USD(analysis.SubjectVehiclePrice))
	if mileage > 0 {
		summary += fmt.Sprintf(" with %s miles", vehicle.Miles(float64(mileage)))
	}
	summary += fmt.Sprintf(". Aim for %s and open at %s.", vehicle.USD(target), vehicle.USD(opening))

	return vehicle.NegotiationStrategy{
		Summary:        summary,
		TargetPrice:    target,
		StartingOffer:  opening,
		KeyPoints:      keyPointsFor(safety, analysis),
		Advantages:     advantagesFor(safety, analysis),
		Concerns:       concerns,
		Scripts:        scriptsFor(desc, target, opening, concerns),
		AdditionalTips: append([]string(nil), additionalTips...),
		Source:         vehicle.StrategyRuleBased,
	}
}

func concernsFor(safety vehicle.SafetyData, analysis vehicle.PriceAnalysis) []string {
	out := []string{}
	if n := len(safety.Recalls); n > 0 {
		out = append(out, fmt.Sprintf("Vehicle has %d open %s that should be addressed", n, plural(n, "recall", "recalls")))
	}
	if analysis.PriceDifference > 0 {
		out = append(out, fmt.Sprintf("Vehicle is priced %.1f%% above market average (%s over)",
			analysis.PercentageDifference, vehicle.USD(analysis.PriceDifference)))
	}
	if f, ok := analysis.Factor(vehicle.FactorMileage); ok && f.Impact < 0 {
		out = append(out, fmt.Sprintf("Mileage is above average for comparable vehicles (%s price impact)", vehicle.SignedPercent(f.Impact)))
	}
	if r := safety.OverallRating; r > 0 && r <= lowSafetyRating {
		out = append(out, fmt.Sprintf("Safety rating is below average (%d/5)", r))
	}
	return out
}

func advantagesFor(safety vehicle.SafetyData, analysis vehicle.PriceAnalysis) []string {
	out := []string{}
	if analysis.PriceDifference < 0 {
		out = append(out, fmt.Sprintf("Vehicle is priced %.1f%% below market average (%s under)",
			math.Abs(analysis.PercentageDifference), vehicle.USD(-analysis.PriceDifference)))
	}
	if f, ok := analysis.Factor(vehicle.FactorMileage); ok && f.Impact >= 0 {
		if f.Impact == 0 {
			out = append(out, "Mileage is in line with comparable vehicles")
		} else {
			out = append(out, fmt.Sprintf("Mileage is below average for comparable vehicles (%s price impact)", vehicle.SignedPercent(f.Impact)))
		}
	}
	if safety.OverallRating >= strongSafetyRating {
		out = append(out, fmt.Sprintf("Strong safety rating (%d/5)", safety.OverallRating))
	}
	if _, ok := analysis.Factor(vehicle.FactorCleanTitle); ok {
		out = append(out, "Clean title history")
	}
	if _, ok := analysis.Factor(vehicle.FactorOwnership); ok {
		out = append(out, "Single owner vehicle")
	}
	return out
}

func keyPointsFor(safety vehicle.SafetyData, analysis vehicle.PriceAnalysis) []string {
	out := []string{}
	for i, r := range safety.Recalls {
		if i == maxRecallPoints {
			extra := len(safety.Recalls) - maxRecallPoints
			out = append(out, fmt.Sprintf("Ask for proof that the %d additional %s remedied",
				extra, plural(extra, "recall was", "recalls were")))
			break
		}
		out = append(out, recallPoint(r))
	}
	if f, ok := analysis.Factor(vehicle.FactorTimeOnMarket); ok && f.Impact < 0 {
		out = append(out, fmt.Sprintf("Days on market suggests room to negotiate: %s", lowerFirst(f.Description)))
	}
	if analysis.PriceDifference > 0 {
		out = append(out, fmt.Sprintf("Similar vehicles in the area sell for an average of %s", vehicle.USD(analysis.AvgMarketPrice)))
	}
	return append(out, inspectionPoint)
}

func recallPoint(r vehicle.Recall) string {
	component := strings.TrimSpace(r.Component)
	if component == "" {
		component = "unspecified component"
	}
	if c := strings.TrimSpace(r.CampaignNumber); c != "" {
		return fmt.Sprintf("Ask the dealer to confirm recall %s (%s) has been remedied", c, component)
	}
	return fmt.Sprintf("Ask the dealer to confirm the %s recall has been remedied", component)
}

func scriptsFor(desc string, target, opening float64, concerns []string) vehicle.Scripts {
	open := fmt.Sprintf("I've done some research on this %s and I'd like to make an offer of %s based on my research of the local market.",
		desc, vehicle.USD(opening))
	if len(concerns) > 0 {
		open += fmt.Sprintf(" I also need to factor in that %s.", lowerFirst(concerns[0]))
	}
	counter := "I understand your position, but considering the market value for similar vehicles"
	if len(concerns) > 1 {
		counter += fmt.Sprintf(" and that %s", lowerFirst(concerns[1]))
	}
	counter += fmt.Sprintf(", my best offer would be %s.", vehicle.USD(target))
	return vehicle.Scripts{
		Opening:      open,
		CounterOffer: counter,
		Closing:      fmt.Sprintf("If we can agree on %s, I'm prepared to move forward today.", vehicle.USD(target)),
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
