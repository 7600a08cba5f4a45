package vehicle

import "strings"

// DataSource tells callers whether a result came from the upstream service
// or was synthesized after an upstream failure.
type DataSource string

const (
	SourceLive     DataSource = "live"
	SourceFallback DataSource = "fallback"
)

// StrategySource distinguishes model-generated strategies from rule-based ones.
type StrategySource string

const (
	StrategyGenerated StrategySource = "generated"
	StrategyRuleBased StrategySource = "rule_based"
)

const (
	FactorMileage      = "Mileage"
	FactorTimeOnMarket = "Time on Market"
	FactorCleanTitle   = "Clean Title"
	FactorOwnership    = "Ownership"
)

type DecodedVehicle struct {
	Year          int        `json:"year"`
	Make          string     `json:"make"`
	Model         string     `json:"model"`
	Trim          string     `json:"trim"`
	Engine        string     `json:"engine"`
	Transmission  string     `json:"transmission"`
	Drivetrain    string     `json:"drivetrain"`
	BodyType      string     `json:"bodyType"`
	FuelType      string     `json:"fuelType"`
	ExteriorColor string     `json:"exteriorColor"`
	InteriorColor string     `json:"interiorColor"`
	StyleID       string     `json:"styleId"`
	MSRP          float64    `json:"msrp"`
	Source        DataSource `json:"source,omitempty"`
}

// Description renders "2020 Honda Civic EX", skipping empty parts.
func (d DecodedVehicle) Description() string {
	parts := make([]string, 0, 4)
	if d.Year > 0 {
		parts = append(parts, itoa(d.Year))
	}
	for _, p := range []string{d.Make, d.Model, d.Trim} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "vehicle"
	}
	return strings.Join(parts, " ")
}

type Location struct {
	City     string  `json:"city"`
	State    string  `json:"state"`
	Zip      string  `json:"zip"`
	Distance float64 `json:"distance"`
}

type ComparableVehicle struct {
	ID            string   `json:"id"`
	VIN           string   `json:"vin"`
	Year          int      `json:"year"`
	Make          string   `json:"make"`
	Model         string   `json:"model"`
	Trim          string   `json:"trim"`
	Mileage       int      `json:"mileage"`
	Price         float64  `json:"price"`
	DealerName    string   `json:"dealerName,omitempty"`
	Location      Location `json:"location"`
	DaysOnMarket  int      `json:"daysOnMarket"`
	ExteriorColor string   `json:"exteriorColor"`
	InteriorColor string   `json:"interiorColor"`
	OneOwner      bool     `json:"oneOwner"`
	AccidentFree  bool     `json:"accidentFree"`
	Link          string   `json:"link"`
}

type PriceFactor struct {
	Factor      string  `json:"factor"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

type PriceAnalysis struct {
	AvgMarketPrice       float64             `json:"avgMarketPrice"`
	MinPrice             float64             `json:"minPrice"`
	MaxPrice             float64             `json:"maxPrice"`
	MedianPrice          float64             `json:"medianPrice"`
	SubjectVehiclePrice  float64             `json:"subjectVehiclePrice"`
	PriceDifference      float64             `json:"priceDifference"`
	PercentageDifference float64             `json:"percentageDifference"`
	IsPriceGood          bool                `json:"isPriceGood"`
	SimilarVehicles      []ComparableVehicle `json:"similarVehicles"`
	PriceFactors         []PriceFactor       `json:"priceFactors"`
	SubjectSynthesized   bool                `json:"subjectSynthesized"`
	Source               DataSource          `json:"source,omitempty"`
}

// Factor returns the first factor with the given name.
func (p PriceAnalysis) Factor(name string) (PriceFactor, bool) {
	for _, f := range p.PriceFactors {
		if f.Factor == name {
			return f, true
		}
	}
	return PriceFactor{}, false
}

// ComparablePrices returns the positive prices of every listed vehicle except
// a synthesized subject, which is always the first entry when present.
func (p PriceAnalysis) ComparablePrices() []float64 {
	vehicles := p.SimilarVehicles
	if p.SubjectSynthesized && len(vehicles) > 0 {
		vehicles = vehicles[1:]
	}
	out := make([]float64, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Price > 0 {
			out = append(out, v.Price)
		}
	}
	return out
}

type Recall struct {
	CampaignNumber string `json:"campaignNumber"`
	Component      string `json:"component"`
	Summary        string `json:"summary"`
	Consequence    string `json:"consequence"`
	Remedy         string `json:"remedy"`
	Notes          string `json:"notes"`
	ReportDate     string `json:"reportDate"`
}

type Complaint struct {
	ID               int64  `json:"id"`
	Component        string `json:"component"`
	Summary          string `json:"summary"`
	Date             string `json:"date"`
	Mileage          int    `json:"mileage"`
	CrashInvolved    bool   `json:"crashInvolved"`
	InjuriesReported int    `json:"injuriesReported"`
}

type SafetyRating struct {
	Category    string `json:"category"`
	Rating      int    `json:"rating"`
	MaxRating   int    `json:"maxRating"`
	Description string `json:"description"`
}

type SafetyData struct {
	OverallRating   int            `json:"overallRating"`
	CategoryRatings []SafetyRating `json:"categoryRatings"`
	Recalls         []Recall       `json:"recalls"`
	Complaints      []Complaint    `json:"complaints"`
	Unavailable     []string       `json:"unavailable,omitempty"`
	Source          DataSource     `json:"source,omitempty"`
}

type Scripts struct {
	Opening      string `json:"opening"`
	CounterOffer string `json:"counterOffer"`
	Closing      string `json:"closing"`
}

type NegotiationStrategy struct {
	Summary        string         `json:"summary"`
	TargetPrice    float64        `json:"targetPrice"`
	StartingOffer  float64        `json:"startingOffer"`
	KeyPoints      []string       `json:"keyPoints"`
	Advantages     []string       `json:"advantages"`
	Concerns       []string       `json:"concerns"`
	Scripts        Scripts        `json:"scripts"`
	AdditionalTips []string       `json:"additionalTips"`
	Source         StrategySource `json:"source,omitempty"`
}
