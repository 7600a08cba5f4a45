package pricing

import (
	"math"
	"strings"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

type DealRating string

const (
	RatingExcellent DealRating = "excellent"
	RatingGood      DealRating = "good"
	RatingFair      DealRating = "fair"
	RatingPoor      DealRating = "poor"
)

// significantImpact is the smallest |impact| named in a deal explanation.
const significantImpact = 2.0

type DealEvaluation struct {
	IsGoodDeal  bool       `json:"isGoodDeal"`
	PercentDiff float64    `json:"percentDiff"`
	Rating      DealRating `json:"rating"`
	Explanation string     `json:"explanation"`
}

// EvaluateDeal rates a price against the market average after backing out the
// factor adjustments. PercentDiff reports the adjusted deviation.
//
// This is a separate judgment from PriceAnalysis.IsPriceGood, which uses a flat
// -5% threshold and ignores factors.
func EvaluateDeal(price, avgPrice float64, factors []vehicle.PriceFactor) DealEvaluation {
	percentDiff := 0.0
	if avgPrice > 0 {
		percentDiff = (price - avgPrice) / avgPrice * 100
	}
	totalImpact := 0.0
	for _, f := range factors {
		totalImpact += f.Impact
	}
	adjusted := percentDiff - totalImpact

	var rating DealRating
	var explanation string
	switch {
	case adjusted <= -10:
		rating = RatingExcellent
		explanation = "This is an excellent deal, significantly below market average."
	case adjusted <= -5:
		rating = RatingGood
		explanation = "This is a good deal, below market average."
	case adjusted <= 5:
		rating = RatingFair
		explanation = "This is a fair deal, close to market average."
	default:
		rating = RatingPoor
		explanation = "This is overpriced compared to market average."
	}

	var significant []string
	for _, f := range factors {
		if math.Abs(f.Impact) >= significantImpact {
			significant = append(significant, f.Factor+" ("+vehicle.SignedPercent(f.Impact)+")")
		}
	}
	if len(significant) > 0 {
		explanation += " Factoring in: " + strings.Join(significant, ", ")
	}

	return DealEvaluation{
		IsGoodDeal:  adjusted <= 0,
		PercentDiff: adjusted,
		Rating:      rating,
		Explanation: explanation,
	}
}
