package marketcheck

import "github.com/joelkehle/vehicle-advisor/internal/vehicle"

// FallbackVehicle is the demo identity served when VIN decoding fails.
func FallbackVehicle() vehicle.DecodedVehicle {
	return vehicle.DecodedVehicle{
		Year:          2020,
		Make:          "Demo",
		Model:         "Vehicle",
		Trim:          "Standard",
		Engine:        "2.0L 4-Cylinder",
		Transmission:  "Automatic",
		Drivetrain:    "FWD",
		BodyType:      "Sedan",
		FuelType:      "Gasoline",
		ExteriorColor: "White",
		InteriorColor: "Black",
		StyleID:       "DEMO123",
		MSRP:          25000,
		Source:        vehicle.SourceFallback,
	}
}
