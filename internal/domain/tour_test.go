package domain

import "testing"

func TestPackagesChecksumStable(t *testing.T) {
	packages := &TourPackages{
		Singles: []SinglePackage{{ID: "p1", Tracking: "PKG-1"}},
		Groups: []DeliveryGroup{{
			ID:            "g1",
			OfficialLabel: "12 RUE DE LA PAIX 75002",
			TotalPackages: 2,
			Customers: []CustomerGroup{{
				CustomerName: "ALICE",
				Packages:     []PackageInfo{{ID: "p2", Tracking: "PKG-2"}, {ID: "p3", Tracking: "PKG-3"}},
			}},
		}},
	}

	first, err := PackagesChecksum(packages)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	second, err := PackagesChecksum(packages)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}

	if first != second {
		t.Fatalf("checksums differ: %q vs %q", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("checksum length = %d, want 32 hex chars", len(first))
	}
}

func TestPackagesChecksumDetectsChange(t *testing.T) {
	a := &TourPackages{Singles: []SinglePackage{{ID: "p1", Tracking: "PKG-1"}}}
	b := &TourPackages{Singles: []SinglePackage{{ID: "p1", Tracking: "PKG-2"}}}

	sumA, err := PackagesChecksum(a)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	sumB, err := PackagesChecksum(b)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}

	if sumA == sumB {
		t.Fatal("different payloads must not collide")
	}
}

func TestTourPackagesCount(t *testing.T) {
	packages := &TourPackages{
		Singles:     []SinglePackage{{ID: "p1"}},
		Problematic: []SinglePackage{{ID: "p2"}},
		Groups:      []DeliveryGroup{{ID: "g1", TotalPackages: 3}},
	}

	if got := packages.Count(); got != 5 {
		t.Fatalf("count = %d, want 5", got)
	}
}
