package services

import (
	"strings"
	"testing"
)

func TestCleanAddressDuplicateNumber(t *testing.T) {
	cleaned, warnings := CleanAddress("35 35 RUE MARC SEGUIN")

	if cleaned != "35 RUE MARC SEGUIN" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "35 RUE MARC SEGUIN")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
}

func TestCleanAddressKeepsLaterNumber(t *testing.T) {
	cleaned, warnings := CleanAddress("6 7 IMPASSE DU CURE")

	if cleaned != "7 IMPASSE DU CURE" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "7 IMPASSE DU CURE")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
}

func TestCleanAddressStripsDistrict(t *testing.T) {
	cleaned, _ := CleanAddress("16 RUE JEAN COTTIN 18EME ARRONDISSEMENT")

	if cleaned != "16 RUE JEAN COTTIN" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "16 RUE JEAN COTTIN")
	}
}

func TestCleanAddressMovesTrailingNumber(t *testing.T) {
	cleaned, _ := CleanAddress("Rue Jean Cottin 3")

	if cleaned != "3 RUE JEAN COTTIN" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "3 RUE JEAN COTTIN")
	}
}

func TestCleanAddressTrailingNumberNeedsStreetKeyword(t *testing.T) {
	// No street keyword, so the trailing digits stay where they are.
	cleaned, _ := CleanAddress("ZAC DES OLIVIERS 12")

	if cleaned != "ZAC DES OLIVIERS 12" {
		t.Fatalf("cleaned = %q, want input unchanged", cleaned)
	}
}

func TestCleanAddressStripsSurnames(t *testing.T) {
	cleaned, _ := CleanAddress("12 AVENUE MARTIN DES TERNES")

	if cleaned != "12 AVENUE DES TERNES" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "12 AVENUE DES TERNES")
	}
}

func TestCleanAddressKeepsSurnamePrefixedStreets(t *testing.T) {
	// MARTIN is on the surname list, MARTINEZ is a street name.
	cleaned, _ := CleanAddress("3 RUE MARTINEZ")

	if cleaned != "3 RUE MARTINEZ" {
		t.Fatalf("cleaned = %q, want %q", cleaned, "3 RUE MARTINEZ")
	}
}

func TestCleanAddressRevertsWhenTooShort(t *testing.T) {
	// Stripping both surnames leaves "12 RUE", which is unusable.
	cleaned, _ := CleanAddress("12 RUE MARTIN DUPONT")

	if cleaned != "12 RUE MARTIN DUPONT" {
		t.Fatalf("cleaned = %q, want the original input back", cleaned)
	}
}

func TestCleanAddressDeterministic(t *testing.T) {
	input := "35 35 RUE MARC SEGUIN 18EME ARRONDISSEMENT"

	first, _ := CleanAddress(input)
	second, _ := CleanAddress(input)

	if first != second {
		t.Fatalf("two runs disagree: %q vs %q", first, second)
	}
}

func TestRepairIncompleteAddress(t *testing.T) {
	repaired, warnings := repairIncompleteAddress("75, 75018 PARIS", "T_751800")

	if repaired != "75 RUE INCONNUE, 75018 PARIS" {
		t.Fatalf("repaired = %q, want %q", repaired, "75 RUE INCONNUE, 75018 PARIS")
	}
	if len(warnings) == 0 {
		t.Fatal("expected warnings for repaired address")
	}
	if !strings.Contains(warnings[0], "placeholder street") {
		t.Fatalf("warning = %q, want mention of placeholder street", warnings[0])
	}
}

func TestRepairIncompleteAddressIgnoresNormalLines(t *testing.T) {
	repaired, warnings := repairIncompleteAddress("16 RUE JEAN COTTIN", "T_751800")

	if repaired != "16 RUE JEAN COTTIN" {
		t.Fatalf("repaired = %q, want input unchanged", repaired)
	}
	if warnings != nil {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}
