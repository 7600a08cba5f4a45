package vehicle

import (
	"regexp"
	"strings"
)

// Post-1981 VINs: 17 characters, letters I, O and Q excluded.
var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

func ValidVIN(vin string) bool {
	return vinPattern.MatchString(NormalizeVIN(vin))
}

// SameVIN compares two VINs ignoring case and surrounding space.
func SameVIN(a, b string) bool {
	return NormalizeVIN(a) == NormalizeVIN(b)
}
