package marketcheck

import (
	"github.com/joelkehle/vehicle-advisor/internal/upstream"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

type stringField struct {
	paths []string
	set   func(*vehicle.DecodedVehicle, string)
}

var decodedStringFields = []stringField{
	{[]string{"make"}, func(d *vehicle.DecodedVehicle, v string) { d.Make = v }},
	{[]string{"model"}, func(d *vehicle.DecodedVehicle, v string) { d.Model = v }},
	{[]string{"trim"}, func(d *vehicle.DecodedVehicle, v string) { d.Trim = v }},
	{[]string{"engine", "engine_description"}, func(d *vehicle.DecodedVehicle, v string) { d.Engine = v }},
	{[]string{"transmission", "transmission_description"}, func(d *vehicle.DecodedVehicle, v string) { d.Transmission = v }},
	{[]string{"drivetrain", "drive_type"}, func(d *vehicle.DecodedVehicle, v string) { d.Drivetrain = v }},
	{[]string{"body_type", "body_style"}, func(d *vehicle.DecodedVehicle, v string) { d.BodyType = v }},
	{[]string{"fuel_type"}, func(d *vehicle.DecodedVehicle, v string) { d.FuelType = v }},
	{[]string{"exterior_color", "base_ext_color"}, func(d *vehicle.DecodedVehicle, v string) { d.ExteriorColor = v }},
	{[]string{"interior_color", "base_int_color"}, func(d *vehicle.DecodedVehicle, v string) { d.InteriorColor = v }},
	{[]string{"style_id", "id"}, func(d *vehicle.DecodedVehicle, v string) { d.StyleID = v }},
}

// decodedFromRecord maps a VIN-decode payload. Some API versions wrap the
// specs in a "vehicle" object, others return them at the root.
func decodedFromRecord(r upstream.Record) vehicle.DecodedVehicle {
	if nested, ok := r["vehicle"].(map[string]any); ok {
		r = upstream.Record(nested)
	}
	var d vehicle.DecodedVehicle
	for _, f := range decodedStringFields {
		f.set(&d, r.String(f.paths...))
	}
	d.Year = r.Int("year", "model_year")
	d.MSRP = r.Float("msrp", "base_msrp")
	d.Source = vehicle.SourceLive
	return d
}

type listingField struct {
	paths []string
	set   func(*vehicle.ComparableVehicle, upstream.Record, []string)
}

func listingString(set func(*vehicle.ComparableVehicle, string)) func(*vehicle.ComparableVehicle, upstream.Record, []string) {
	return func(c *vehicle.ComparableVehicle, r upstream.Record, paths []string) { set(c, r.String(paths...)) }
}

var listingFields = []listingField{
	{[]string{"id"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.ID = v })},
	{[]string{"vin"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.VIN = v })},
	{[]string{"make", "build.make"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.Make = v })},
	{[]string{"model", "build.model"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.Model = v })},
	{[]string{"trim", "build.trim"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.Trim = v })},
	{[]string{"dealer_name", "dealer.name"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.DealerName = v })},
	{[]string{"city", "dealer.city"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.Location.City = v })},
	{[]string{"state", "dealer.state"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.Location.State = v })},
	{[]string{"zip", "dealer.zip"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.Location.Zip = v })},
	{[]string{"exterior_color", "base_ext_color"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.ExteriorColor = v })},
	{[]string{"interior_color", "base_int_color"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.InteriorColor = v })},
	{[]string{"vdp_url"}, listingString(func(c *vehicle.ComparableVehicle, v string) { c.Link = v })},
	{[]string{"year", "build.year"}, func(c *vehicle.ComparableVehicle, r upstream.Record, p []string) { c.Year = r.Int(p...) }},
	{[]string{"miles", "mileage"}, func(c *vehicle.ComparableVehicle, r upstream.Record, p []string) { c.Mileage = r.Int(p...) }},
	{[]string{"price"}, func(c *vehicle.ComparableVehicle, r upstream.Record, p []string) { c.Price = r.Float(p...) }},
	{[]string{"distance", "dist"}, func(c *vehicle.ComparableVehicle, r upstream.Record, p []string) { c.Location.Distance = r.Float(p...) }},
	{[]string{"dom", "days_on_market"}, func(c *vehicle.ComparableVehicle, r upstream.Record, p []string) { c.DaysOnMarket = r.Int(p...) }},
	{[]string{"one_owner", "carfax_1_owner"}, func(c *vehicle.ComparableVehicle, r upstream.Record, p []string) { c.OneOwner = r.Bool(p...) }},
	{[]string{"clean_title", "carfax_clean_title"}, func(c *vehicle.ComparableVehicle, r upstream.Record, p []string) { c.AccidentFree = r.Bool(p...) }},
}

func comparableFromRecord(r upstream.Record) vehicle.ComparableVehicle {
	var c vehicle.ComparableVehicle
	for _, f := range listingFields {
		f.set(&c, r, f.paths)
	}
	return c
}
