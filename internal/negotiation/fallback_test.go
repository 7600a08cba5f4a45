package negotiation

import (
	"strings"
	"testing"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

var civic = vehicle.DecodedVehicle{Year: 2019, Make: "Honda", Model: "Civic", Trim: "EX"}

func overpriced() vehicle.PriceAnalysis {
	return vehicle.PriceAnalysis{
		AvgMarketPrice:       20000,
		SubjectVehiclePrice:  22000,
		PriceDifference:      2000,
		PercentageDifference: 10,
		IsPriceGood:          false,
		PriceFactors: []vehicle.PriceFactor{
			{Factor: vehicle.FactorMileage, Impact: -10, Description: "Higher than average mileage (60,000 vs. avg. 40,000)"},
		},
	}
}

func TestOffersAboveAverage(t *testing.T) {
	target, opening := Offers(overpriced())
	if target != 18000 || opening != 16200 {
		t.Fatalf("target=%v opening=%v, want 18000/16200", target, opening)
	}
}

func TestOffersGoodPrice(t *testing.T) {
	a := vehicle.PriceAnalysis{AvgMarketPrice: 20000, SubjectVehiclePrice: 18000, PriceDifference: -2000, PercentageDifference: -10, IsPriceGood: true}
	target, opening := Offers(a)
	if target != 19400 || opening != 17460 {
		t.Fatalf("target=%v opening=%v, want 19400/17460", target, opening)
	}
}

func TestOffersRoundHalfUp(t *testing.T) {
	// 21667 * 0.9 = 19500.3 -> 19500; 19500 * 0.9 = 17550.
	target, opening := Offers(vehicle.PriceAnalysis{AvgMarketPrice: 21667})
	if target != 19500 || opening != 17550 {
		t.Fatalf("target=%v opening=%v", target, opening)
	}
	// 18335 * 0.9 = 16501.5 -> 16502 (half up).
	target, _ = Offers(vehicle.PriceAnalysis{AvgMarketPrice: 18335})
	if target != 16502 {
		t.Fatalf("target=%v want 16502", target)
	}
}

func TestGenerateOverpricedHighMileage(t *testing.T) {
	safety := vehicle.SafetyData{
		OverallRating: 2,
		Recalls:       []vehicle.Recall{{CampaignNumber: "19V182000", Component: "AIR BAGS"}},
	}
	s := Generate(civic, safety, overpriced(), 60000)

	if s.Source != vehicle.StrategyRuleBased {
		t.Fatalf("source=%s", s.Source)
	}
	wantConcerns := []string{
		"Vehicle has 1 open recall that should be addressed",
		"Vehicle is priced 10.0% above market average ($2,000 over)",
		"Mileage is above average for comparable vehicles (-10.0% price impact)",
		"Safety rating is below average (2/5)",
	}
	if len(s.Concerns) != len(wantConcerns) {
		t.Fatalf("concerns=%q", s.Concerns)
	}
	for i, want := range wantConcerns {
		if s.Concerns[i] != want {
			t.Fatalf("concern[%d]=%q want %q", i, s.Concerns[i], want)
		}
	}
	if len(s.Advantages) != 0 {
		t.Fatalf("expected no advantages, got %q", s.Advantages)
	}
	wantPoints := []string{
		"Ask the dealer to confirm recall 19V182000 (AIR BAGS) has been remedied",
		"Similar vehicles in the area sell for an average of $20,000",
		inspectionPoint,
	}
	if strings.Join(s.KeyPoints, "|") != strings.Join(wantPoints, "|") {
		t.Fatalf("keyPoints=%q", s.KeyPoints)
	}
	if !strings.Contains(s.Scripts.Opening, "$16,200") || !strings.Contains(s.Scripts.Opening, "2019 Honda Civic EX") {
		t.Fatalf("opening=%q", s.Scripts.Opening)
	}
	if !strings.Contains(s.Scripts.Opening, "vehicle has 1 open recall") {
		t.Fatalf("opening should cite the first concern: %q", s.Scripts.Opening)
	}
	if !strings.Contains(s.Scripts.CounterOffer, "vehicle is priced 10.0% above") || !strings.Contains(s.Scripts.CounterOffer, "$18,000") {
		t.Fatalf("counter=%q", s.Scripts.CounterOffer)
	}
	if !strings.Contains(s.Scripts.Closing, "$18,000") {
		t.Fatalf("closing=%q", s.Scripts.Closing)
	}
	if !strings.Contains(s.Summary, "priced at $22,000 with 60,000 miles") {
		t.Fatalf("summary=%q", s.Summary)
	}
}

func TestGenerateUnderpricedAdvantages(t *testing.T) {
	a := vehicle.PriceAnalysis{
		AvgMarketPrice:       20000,
		SubjectVehiclePrice:  18500,
		PriceDifference:      -1500,
		PercentageDifference: -7.5,
		IsPriceGood:          true,
		PriceFactors: []vehicle.PriceFactor{
			{Factor: vehicle.FactorMileage, Impact: 2.5},
			{Factor: vehicle.FactorTimeOnMarket, Impact: -5, Description: "Listed for 45 days (25 days longer than average)"},
			{Factor: vehicle.FactorCleanTitle, Impact: 3},
			{Factor: vehicle.FactorOwnership, Impact: 2},
		},
	}
	s := Generate(civic, vehicle.SafetyData{OverallRating: 5}, a, 30000)

	want := []string{
		"Vehicle is priced 7.5% below market average ($1,500 under)",
		"Mileage is below average for comparable vehicles (+2.5% price impact)",
		"Strong safety rating (5/5)",
		"Clean title history",
		"Single owner vehicle",
	}
	if strings.Join(s.Advantages, "|") != strings.Join(want, "|") {
		t.Fatalf("advantages=%q", s.Advantages)
	}
	if len(s.Concerns) != 0 {
		t.Fatalf("concerns=%q", s.Concerns)
	}
	if len(s.KeyPoints) != 2 || s.KeyPoints[0] != "Days on market suggests room to negotiate: listed for 45 days (25 days longer than average)" {
		t.Fatalf("keyPoints=%q", s.KeyPoints)
	}
	if s.TargetPrice != 19400 || s.StartingOffer != 17460 {
		t.Fatalf("target=%v opening=%v", s.TargetPrice, s.StartingOffer)
	}
}

func TestGenerateCapsRecallPoints(t *testing.T) {
	recalls := make([]vehicle.Recall, 5)
	for i := range recalls {
		recalls[i] = vehicle.Recall{Component: "BRAKES"}
	}
	s := Generate(civic, vehicle.SafetyData{Recalls: recalls}, vehicle.PriceAnalysis{AvgMarketPrice: 15000}, 0)
	if len(s.KeyPoints) != 5 {
		t.Fatalf("keyPoints=%q", s.KeyPoints)
	}
	if s.KeyPoints[0] != "Ask the dealer to confirm the BRAKES recall has been remedied" {
		t.Fatalf("first point=%q", s.KeyPoints[0])
	}
	if s.KeyPoints[3] != "Ask for proof that the 2 additional recalls were remedied" {
		t.Fatalf("overflow point=%q", s.KeyPoints[3])
	}
	if s.Concerns[0] != "Vehicle has 5 open recalls that should be addressed" {
		t.Fatalf("concern=%q", s.Concerns[0])
	}
}

func TestGenerateIsTotal(t *testing.T) {
	for name, tc := range map[string]struct {
		decoded  vehicle.DecodedVehicle
		analysis vehicle.PriceAnalysis
	}{
		"zero":       {},
		"no factors": {decoded: civic, analysis: vehicle.PriceAnalysis{AvgMarketPrice: 12000, SubjectVehiclePrice: 12000}},
		"negative":   {analysis: vehicle.PriceAnalysis{AvgMarketPrice: -1, PriceDifference: 5}},
	} {
		s := Generate(tc.decoded, vehicle.SafetyData{}, tc.analysis, 0)
		if s.Summary == "" || s.Scripts.Opening == "" || s.Scripts.CounterOffer == "" || s.Scripts.Closing == "" {
			t.Fatalf("%s: incomplete strategy %+v", name, s)
		}
		if len(s.AdditionalTips) < 1 || s.KeyPoints == nil || s.Advantages == nil || s.Concerns == nil {
			t.Fatalf("%s: missing lists %+v", name, s)
		}
		if s.KeyPoints[len(s.KeyPoints)-1] != inspectionPoint {
			t.Fatalf("%s: inspection point must close the list: %q", name, s.KeyPoints)
		}
	}
}

func TestGenerateTipsAreCopied(t *testing.T) {
	s := Generate(civic, vehicle.SafetyData{}, vehicle.PriceAnalysis{AvgMarketPrice: 10000}, 0)
	s.AdditionalTips[0] = "mutated"
	if additionalTips[0] == "mutated" {
		t.Fatal("strategy tips alias the shared list")
	}
}
