// Package report renders a purchase evaluation as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joelkehle/vehicle-advisor/internal/pricing"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const maxListedComparables = 10

// Input carries the pieces of an evaluation. Safety and Strategy are
// optional; their sections are omitted when nil.
type Input struct {
	Vehicle   vehicle.DecodedVehicle
	Analysis  vehicle.PriceAnalysis
	Safety    *vehicle.SafetyData
	Strategy  *vehicle.NegotiationStrategy
	Generated time.Time
}

type Report struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func Build(in Input) (Report, error) {
	md := buildMarkdown(in)
	var html bytes.Buffer
	if err := markdown.Convert([]byte(md), &html); err != nil {
		return Report{}, fmt.Errorf("markdown convert: %w", err)
	}
	return Report{Markdown: md, HTML: html.String()}, nil
}

func buildMarkdown(in Input) string {
	a := in.Analysis
	generated := in.Generated
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Vehicle Purchase Report: %s\n\n", cell(in.Vehicle.Description()))
	fmt.Fprintf(&b, "- Generated: %s\n", generated.Format(time.RFC3339))
	if in.Vehicle.Engine != "" || in.Vehicle.Drivetrain != "" {
		fmt.Fprintf(&b, "- Build: %s\n", strings.Join(nonEmpty(in.Vehicle.Engine, in.Vehicle.Transmission, in.Vehicle.Drivetrain, in.Vehicle.BodyType), ", "))
	}
	if in.Vehicle.MSRP > 0 {
		fmt.Fprintf(&b, "- Original MSRP: %s\n", vehicle.USD(in.Vehicle.MSRP))
	}
	b.WriteString("\n")
	writeWarnings(&b, in)

	b.WriteString("## Market Position\n\n")
	b.WriteString("| Measure | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Asking price | %s |\n", vehicle.USD(a.SubjectVehiclePrice))
	fmt.Fprintf(&b, "| Market average | %s |\n", vehicle.USD(a.AvgMarketPrice))
	fmt.Fprintf(&b, "| Median | %s |\n", vehicle.USD(a.MedianPrice))
	fmt.Fprintf(&b, "| Range | %s to %s |\n", vehicle.USD(a.MinPrice), vehicle.USD(a.MaxPrice))
	fmt.Fprintf(&b, "| Difference | %s (%s) |\n", vehicle.USD(a.PriceDifference), vehicle.SignedPercent(a.PercentageDifference))
	pct := pricing.PricePercentile(a.SubjectVehiclePrice, a.ComparablePrices())
	fmt.Fprintf(&b, "| Percentile | %.0f |\n\n", pct)
	if a.IsPriceGood {
		b.WriteString("The asking price is at least 5% below the market average.\n\n")
	}

	deal := pricing.EvaluateDeal(a.SubjectVehiclePrice, a.AvgMarketPrice, a.PriceFactors)
	b.WriteString("## Deal Rating\n\n")
	fmt.Fprintf(&b, "**%s** (factor-adjusted difference %s)\n\n%s\n\n",
		strings.ToUpper(string(deal.Rating)), vehicle.SignedPercent(deal.PercentDiff), deal.Explanation)

	if len(a.PriceFactors) > 0 {
		b.WriteString("## Price Factors\n\n| Factor | Impact | Detail |\n|---|---|---|\n")
		for _, f := range a.PriceFactors {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(f.Factor), vehicle.SignedPercent(f.Impact), cell(f.Description))
		}
		b.WriteString("\n")
	}

	writeComparables(&b, a)
	if in.Safety != nil {
		writeSafety(&b, *in.Safety)
	}
	if in.Strategy != nil {
		writeStrategy(&b, *in.Strategy)
	}
	return b.String()
}

func writeWarnings(b *strings.Builder, in Input) {
	var warnings []string
	if in.Vehicle.Source == vehicle.SourceFallback {
		warnings = append(warnings, "Vehicle details could not be decoded; demo data is shown.")
	}
	if in.Analysis.Source == vehicle.SourceFallback {
		warnings = append(warnings, "Live market listings were unavailable; prices come from a generated demo market.")
	}
	if in.Analysis.SubjectSynthesized {
		warnings = append(warnings, "The vehicle was not among the listings; its price is estimated from comparable mileage.")
	}
	if in.Safety != nil && len(in.Safety.Unavailable) > 0 {
		warnings = append(warnings, fmt.Sprintf("Safety data unavailable: %s.", strings.Join(in.Safety.Unavailable, ", ")))
	}
	if in.Strategy != nil && in.Strategy.Source == vehicle.StrategyRuleBased {
		warnings = append(warnings, "The negotiation plan is rule-based.")
	}
	for _, w := range warnings {
		fmt.Fprintf(b, "> **Note:** %s\n>\n", w)
	}
	if len(warnings) > 0 {
		b.WriteString("\n")
	}
}

func writeComparables(b *strings.Builder, a vehicle.PriceAnalysis) {
	if len(a.SimilarVehicles) == 0 {
		return
	}
	b.WriteString("## Comparable Listings\n\n| Vehicle | Mileage | Price | Days listed | Location |\n|---|---|---|---|---|\n")
	for i, v := range a.SimilarVehicles {
		if i == maxListedComparables {
			fmt.Fprintf(b, "\n%d more listings not shown.\n", len(a.SimilarVehicles)-maxListedComparables)
			break
		}
		name := strings.Join(nonEmpty(yearString(v.Year), v.Make, v.Model, v.Trim), " ")
		if i == 0 {
			name = "**" + name + " (this vehicle)**"
		}
		loc := strings.Join(nonEmpty(v.Location.City, v.Location.State), ", ")
		fmt.Fprintf(b, "| %s | %s | %s | %d | %s |\n", cell(name), vehicle.Miles(float64(v.Mileage)), vehicle.USD(v.Price), v.DaysOnMarket, cell(loc))
	}
	b.WriteString("\n")
}

func writeSafety(b *strings.Builder, s vehicle.SafetyData) {
	b.WriteString("## Safety\n\n")
	if s.OverallRating > 0 {
		fmt.Fprintf(b, "Overall rating: %d/5\n\n", s.OverallRating)
	} else {
		b.WriteString("No overall rating on file.\n\n")
	}
	for _, r := range s.CategoryRatings {
		fmt.Fprintf(b, "- %s: %d/%d\n", r.Category, r.Rating, r.MaxRating)
	}
	if len(s.CategoryRatings) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "Recalls: %d. Owner complaints: %d.\n\n", len(s.Recalls), len(s.Complaints))
	for _, r := range s.Recalls {
		fmt.Fprintf(b, "- **%s** %s: %s\n", cell(r.CampaignNumber), cell(r.Component), cell(r.Summary))
	}
	if len(s.Recalls) > 0 {
		b.WriteString("\n")
	}
}

func writeStrategy(b *strings.Builder, s vehicle.NegotiationStrategy) {
	b.WriteString("## Negotiation Plan\n\n")
	fmt.Fprintf(b, "%s\n\n", s.Summary)
	fmt.Fprintf(b, "- Target price: %s\n- Opening offer: %s\n\n", vehicle.USD(s.TargetPrice), vehicle.USD(s.StartingOffer))
	writeList(b, "Key points", s.KeyPoints)
	writeList(b, "Advantages", s.Advantages)
	writeList(b, "Concerns", s.Concerns)
	b.WriteString("### Scripts\n\n")
	fmt.Fprintf(b, "- Opening: %s\n- Counter offer: %s\n- Closing: %s\n\n", s.Scripts.Opening, s.Scripts.CounterOffer, s.Scripts.Closing)
	writeList(b, "Tips", s.AdditionalTips)
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func cell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func yearString(y int) string {
	if y <= 0 {
		return ""
	}
	return fmt.Sprint(y)
}
