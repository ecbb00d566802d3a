package services

import (
	"fmt"
	"regexp"
	"strings"
)

// Address normalization pipeline for the resolution cascade.
//
// Each pass is a pure function string -> (string, warnings) applied in a fixed
// order, so individual fixes stay testable and reruns on the same input are
// deterministic. The passes target transcription errors seen in the courier
// feed: duplicated house numbers, numbers trailing the street, embedded
// customer surnames, and district tokens stuck in the middle of the line.

var (
	streetKeywordRe = regexp.MustCompile(`(?i)(rue|avenue|boulevard|place|impasse|allée|chemin|route|passage|square|quai|esplanade|cours|villa|résidence|lotissement|zone|parc|cité|hameau|lieu-dit)\s+([^,]+)`)
	trailingNumRe   = regexp.MustCompile(`^(.+?)\s+(\d+)\s*$`)
	adjacentNumsRe  = regexp.MustCompile(`(\d+)\s+(\d+)\s+`)
	districtRe      = regexp.MustCompile(`(?i)(\d+EME\s+ARRONDISSEMENT)`)
	incompleteRe    = regexp.MustCompile(`^(\d+),\s*(\d{5})\s+PARIS$`)
)

// Common customer surnames that leak from the recipient field into the street
// field upstream. Stripped during cleaning before re-geocoding.
var customerSurnames = []string{
	"MARTIN", "DUBOIS", "DURAND", "MOREAU", "LAURENT", "BERNARD", "THOMAS", "PETIT",
	"ROBERT", "RICHARD", "SIMON", "MICHEL", "LEFEBVRE", "LEROY", "ROUX", "DAVID",
	"BERTRAND", "MOREL", "FOURNIER", "GIRARD", "BONNET", "DUPONT", "LAMBERT",
	"FONTAINE", "ROUSSEAU", "VINCENT", "MULLER", "LEFEVRE", "ANDRE", "MARTINEZ",
	"LEGALL", "GARCIA",
}

// repairIncompleteAddress detects a "<number>, <postcode> PARIS" line with no
// street name and synthesizes a placeholder street so the cascade has
// something to work with. The repaired string feeds the next steps; it is not
// a terminal result.
func repairIncompleteAddress(address, driverID string) (string, []string) {
	m := incompleteRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(address)))
	if m == nil {
		return address, nil
	}

	repaired := fmt.Sprintf("%s RUE INCONNUE, %s PARIS", m[1], m[2])
	warnings := []string{
		fmt.Sprintf("incomplete address %q completed with placeholder street", address),
		fmt.Sprintf("sector fallback available: %s", districtFromDriverID(driverID)),
	}
	return repaired, warnings
}

// fixTrailingNumber moves a house number from the end of the line to the
// front ("Rue Jean Cottin 3" -> "3 Rue Jean Cottin"). Only applies when the
// rest of the line actually names a street, to avoid mangling postcodes.
func fixTrailingNumber(address string) string {
	m := trailingNumRe.FindStringSubmatch(address)
	if m == nil {
		return address
	}

	rest := strings.TrimSpace(m[1])
	if !streetKeywordRe.MatchString(rest) {
		return address
	}
	return m[2] + " " + rest
}

// collapseDuplicateNumber folds a repeated leading house number
// ("35 35 RUE X" -> "35 RUE X").
func collapseDuplicateNumber(address string) (string, string) {
	m := adjacentNumsRe.FindStringSubmatch(address)
	if m == nil || m[1] != m[2] {
		return address, ""
	}

	pattern := m[1] + " " + m[2]
	fixed := strings.Replace(address, pattern, m[1], 1)
	return fixed, fmt.Sprintf("duplicate house number %s corrected", m[1])
}

// keepLaterNumber resolves two different adjacent numbers by keeping the
// second one ("6 7 IMP" -> "7 IMP"); transcribers tend to get the later value
// right.
func keepLaterNumber(address string) (string, string) {
	m := adjacentNumsRe.FindStringSubmatch(address)
	if m == nil || m[1] == m[2] {
		return address, ""
	}

	pattern := m[1] + " " + m[2]
	fixed := strings.Replace(address, pattern, m[2], 1)
	return fixed, fmt.Sprintf("adjacent numbers %s %s resolved to %s", m[1], m[2], m[2])
}

// stripDistrict removes an embedded "<N>EME ARRONDISSEMENT" token.
func stripDistrict(address string) (string, string) {
	m := districtRe.FindStringSubmatch(address)
	if m == nil {
		return address, ""
	}
	return strings.Replace(address, m[1], "", 1), fmt.Sprintf("district token %q removed", m[1])
}

// stripCustomerNames drops tokens that exactly match a known customer
// surname. Token equality (not substring replacement) keeps street names like
// MARTINEZ intact when MARTIN is on the list.
func stripCustomerNames(address string) string {
	fields := strings.Fields(address)
	kept := fields[:0]

	for _, f := range fields {
		token := strings.Trim(f, ",.")
		surname := false
		for _, name := range customerSurnames {
			if token == name {
				surname = true
				break
			}
		}
		if !surname {
			kept = append(kept, f)
		}
	}

	if len(kept) == 0 {
		return address
	}
	return strings.Join(kept, " ")
}

// CleanAddress runs the normalization pipeline over one raw address line and
// reports what each pass changed. A result that shrinks below a usable length
// reverts to the input.
func CleanAddress(address string) (string, []string) {
	cleaned := strings.ToUpper(strings.TrimSpace(address))
	var warnings []string

	cleaned = fixTrailingNumber(cleaned)

	var w string
	cleaned, w = collapseDuplicateNumber(cleaned)
	if w != "" {
		warnings = append(warnings, w)
	}

	cleaned, w = keepLaterNumber(cleaned)
	if w != "" {
		warnings = append(warnings, w)
	}

	cleaned, w = stripDistrict(cleaned)
	if w != "" {
		warnings = append(warnings, w)
	}

	cleaned = stripCustomerNames(cleaned)

	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.ReplaceAll(cleaned, " ,", ",")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) < 10 {
		return address, warnings
	}
	return cleaned, warnings
}
