package pricing

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const (
	fallbackComparableCount = 5
	fallbackZIP             = "12345"
)

var (
	fallbackCities = []string{"Springfield", "Riverdale", "Oakwood", "Pine Valley", "Maplewood"}
	fallbackStates = []string{"NY", "CA", "TX", "IL", "FL"}
	fallbackColors = []string{"Black", "White", "Silver", "Red", "Blue", "Gray"}
)

// FallbackComparables generates a demo market for vin. The same VIN always
// yields the same listings. The first listing is the subject, carrying the
// requested mileage.
func FallbackComparables(vin, zip string, mileage, count int) []vehicle.ComparableVehicle {
	if zip == "" {
		zip = fallbackZIP
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(vehicle.NormalizeVIN(vin)))
	r := rand.New(rand.NewPCG(h.Sum64(), uint64(count)))

	basePrice := 25000 + r.Float64()*5000
	baseMileage := 35000 + r.Float64()*20000

	out := make([]vehicle.ComparableVehicle, 0, count)
	for i := 0; i < count; i++ {
		miles := int(math.Round(baseMileage + r.Float64()*10000 - 5000))
		price := math.Round(basePrice + r.Float64()*3000 - 1500)
		listingVIN := fmt.Sprintf("MOCK%09d", r.IntN(1_000_000_000))
		if i == 0 {
			listingVIN = vin
			miles = mileage
		}
		loc := vehicle.Location{
			City:     fallbackCities[i%len(fallbackCities)],
			State:    fallbackStates[i%len(fallbackStates)],
			Zip:      zip,
			Distance: math.Round(float64(i*5) + r.Float64()*10),
		}
		out = append(out, vehicle.ComparableVehicle{
			ID:            fmt.Sprintf("mock-%d", i),
			VIN:           listingVIN,
			Year:          2020,
			Make:          "Demo",
			Model:         "Vehicle",
			Trim:          "Standard",
			Mileage:       miles,
			Price:         price,
			DealerName:    fmt.Sprintf("Demo Dealer %d", i+1),
			Location:      loc,
			DaysOnMarket:  int(math.Round(10 + r.Float64()*40)),
			ExteriorColor: fallbackColors[r.IntN(len(fallbackColors))],
			InteriorColor: "Black",
			OneOwner:      r.Float64() > 0.5,
			AccidentFree:  r.Float64() > 0.3,
			Link:          "#",
		})
	}
	return out
}

// FallbackAnalysis runs the regular analysis over a generated demo market and
// labels the result as fallback.
func FallbackAnalysis(vin, zip string, mileage int) vehicle.PriceAnalysis {
	return Analyze(Input{
		VIN:         vin,
		ZIP:         zip,
		Mileage:     mileage,
		Comparables: FallbackComparables(vin, zip, mileage, fallbackComparableCount),
		Source:      vehicle.SourceFallback,
	})
}
