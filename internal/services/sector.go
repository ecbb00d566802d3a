package services

import "strings"

// Sector derivation from driver identifiers.
//
// Driver ids encode a sector letter at position 0 and a 4-digit postcode
// suffix at positions 2-5 ("T_7518XX" -> sector T, postcode 75018). The
// offsets are a convention inherited from the upstream courier system and do
// not generalize; ids that don't conform fall back to the default sector.

const (
	defaultSector   = "A75018"
	defaultDistrict = "75018 Paris"
)

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// postcodeFromDriverID expands the 4-digit suffix into a full postcode
// ("7518" -> "75018"). Returns "" for non-conforming ids.
func postcodeFromDriverID(driverID string) string {
	if len(driverID) < 6 {
		return ""
	}

	suffix := driverID[2:6]
	if !isDigits(suffix) {
		return ""
	}
	return suffix[:2] + "0" + suffix[2:]
}

// sectorFromDriverID returns the sector code (letter + postcode) for a driver.
func sectorFromDriverID(driverID string) string {
	postcode := postcodeFromDriverID(driverID)
	if postcode == "" {
		return defaultSector
	}
	return strings.ToUpper(driverID[:1]) + postcode
}

// districtFromDriverID returns the "<postcode> Paris" district string used to
// complete and narrow geocoding queries.
func districtFromDriverID(driverID string) string {
	postcode := postcodeFromDriverID(driverID)
	if postcode == "" {
		return defaultDistrict
	}
	return postcode + " Paris"
}
