package pricing

import (
	"strings"
	"testing"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

func TestEvaluateDealAtAverageIsFair(t *testing.T) {
	d := EvaluateDeal(20000, 20000, nil)
	if d.Rating != RatingFair || !d.IsGoodDeal || d.PercentDiff != 0 {
		t.Fatalf("unexpected evaluation: %+v", d)
	}
}

func TestEvaluateDealTwelvePercentBelowIsExcellent(t *testing.T) {
	d := EvaluateDeal(17600, 20000, nil)
	if d.Rating != RatingExcellent || !d.IsGoodDeal {
		t.Fatalf("unexpected evaluation: %+v", d)
	}
}

func TestEvaluateDealThresholds(t *testing.T) {
	cases := []struct {
		price float64
		want  DealRating
		good  bool
	}{
		{18000, RatingExcellent, true},
		{18500, RatingGood, true},
		{19000, RatingGood, true},
		{20500, RatingFair, false},
		{21000, RatingFair, false},
		{21200, RatingPoor, false},
	}
	for _, tc := range cases {
		d := EvaluateDeal(tc.price, 20000, nil)
		if d.Rating != tc.want || d.IsGoodDeal != tc.good {
			t.Errorf("price=%v got %s/%v want %s/%v", tc.price, d.Rating, d.IsGoodDeal, tc.want, tc.good)
		}
	}
}

func TestEvaluateDealBacksOutFactors(t *testing.T) {
	factors := []vehicle.PriceFactor{
		{Factor: vehicle.FactorMileage, Impact: -10},
		{Factor: vehicle.FactorCleanTitle, Impact: 3},
		{Factor: "Minor", Impact: 1.5},
	}
	d := EvaluateDeal(20000, 20000, factors)
	if d.PercentDiff != 5.5 || d.Rating != RatingPoor || d.IsGoodDeal {
		t.Fatalf("unexpected evaluation: %+v", d)
	}
	if !strings.HasSuffix(d.Explanation, "Factoring in: Mileage (-10.0%), Clean Title (+3.0%)") {
		t.Fatalf("unexpected explanation: %q", d.Explanation)
	}
}

func TestEvaluateDealZeroAverage(t *testing.T) {
	d := EvaluateDeal(15000, 0, nil)
	if d.PercentDiff != 0 || d.Rating != RatingFair {
		t.Fatalf("unexpected evaluation: %+v", d)
	}
}
