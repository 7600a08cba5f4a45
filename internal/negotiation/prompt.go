package negotiation

import (
	"fmt"
	"strings"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const systemPrompt = "You are an experienced car buying advisor who helps shoppers negotiate used vehicle purchases. Respond with strict JSON only."

const strategySchema = `{
  "summary": "Brief summary of the strategy",
  "targetPrice": number (a reasonable target price to aim for),
  "startingOffer": number (a lower starting offer price),
  "keyPoints": ["list", "of", "key", "negotiation", "points"],
  "advantages": ["list", "of", "vehicle", "advantages"],
  "concerns": ["list", "of", "concerns", "about", "the", "vehicle"],
  "scripts": {
    "opening": "Script for opening the negotiation",
    "counterOffer": "Script for counter offer",
    "closing": "Script for closing the deal"
  },
  "additionalTips": ["list", "of", "additional", "negotiation", "tips"]
}`

// Input is everything a strategy is derived from.
type Input struct {
	Vehicle  vehicle.DecodedVehicle `json:"decodedVin"`
	Safety   vehicle.SafetyData     `json:"safetyData"`
	Analysis vehicle.PriceAnalysis  `json:"priceAnalysis"`
	Mileage  int                    `json:"mileage"`
}

func BuildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("I need you to create a car buying negotiation strategy.\n\n")
	b.WriteString("Vehicle Information:\n")
	fmt.Fprintf(&b, "- %s\n", in.Vehicle.Description())
	fmt.Fprintf(&b, "- Mileage: %s miles\n", vehicle.Miles(float64(in.Mileage)))
	if in.Safety.OverallRating > 0 {
		fmt.Fprintf(&b, "- Safety Rating: %d/5\n", in.Safety.OverallRating)
	} else {
		b.WriteString("- No safety rating available\n")
	}
	if n := len(in.Safety.Recalls); n > 0 {
		fmt.Fprintf(&b, "- %d recalls found\n", n)
	} else {
		b.WriteString("- No recalls found\n")
	}
	fmt.Fprintf(&b, "- Current listing price: %s\n", vehicle.USD(in.Analysis.SubjectVehiclePrice))
	fmt.Fprintf(&b, "- Average market price: %s\n", vehicle.USD(in.Analysis.AvgMarketPrice))
	fmt.Fprintf(&b, "- Price difference: %s\n", vehicle.SignedPercent(in.Analysis.PercentageDifference))

	b.WriteString("\nPrice factors:\n")
	for _, f := range in.Analysis.PriceFactors {
		fmt.Fprintf(&b, "- %s: %s (Impact: %s)\n", f.Factor, f.Description, vehicle.SignedPercent(f.Impact))
	}

	b.WriteString("\nBased on this information, please create a detailed negotiation strategy with the following JSON structure:\n")
	b.WriteString(strategySchema)
	b.WriteString("\n\nIMPORTANT: Respond ONLY with the JSON. No explanations or other text.\n")
	return b.String()
}
