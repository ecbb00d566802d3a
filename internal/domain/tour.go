package domain

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"
)

// TourPackages is the package payload of a tour, split into the three buckets
// a driver works through during a shift.
type TourPackages struct {
	Singles     []SinglePackage `json:"singles"`
	Groups      []DeliveryGroup `json:"groups"`
	Problematic []SinglePackage `json:"problematic"`
}

// Count returns the number of packages across all three buckets.
func (p *TourPackages) Count() int {
	n := len(p.Singles) + len(p.Problematic)
	for _, g := range p.Groups {
		n += g.TotalPackages
	}
	return n
}

// TourOptimization is the route-ordering result delegated to the external
// mapping service, stored alongside the packages it orders.
type TourOptimization struct {
	Order         []string  `json:"order"`
	TotalDistance *float64  `json:"total_distance,omitempty"`
	TotalDuration *float64  `json:"total_duration,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// TourState is the authoritative per-driver route snapshot. Version strictly
// increases on every accepted mutation and Checksum always matches the hash of
// the current Packages payload; a mismatch means corruption or a missed update.
type TourState struct {
	TourneeID       string            `json:"tournee_id"`
	DriverMatricule string            `json:"driver_matricule"`
	CompanyID       string            `json:"company_id"`
	Status          string            `json:"status"`
	Packages        TourPackages      `json:"packages"`
	Optimization    *TourOptimization `json:"optimization,omitempty"`
	LastActivity    time.Time         `json:"last_activity"`
	Version         uint32            `json:"version"`
	Checksum        string            `json:"checksum"`
}

// PackagesChecksum hashes the canonical JSON encoding of a tour's packages.
// Clients compare this hash to detect divergent state without shipping the
// full payload.
func PackagesChecksum(packages *TourPackages) (string, error) {
	encoded, err := json.Marshal(packages)
	if err != nil {
		return "", fmt.Errorf("checksum packages: encode: %w", err)
	}
	return fmt.Sprintf("%x", md5.Sum(encoded)), nil
}

// TourSyncRequest is a client-submitted tour delta.
type TourSyncRequest struct {
	TourneeID    string            `json:"tournee_id"`
	Version      uint32            `json:"version"`
	Packages     TourPackages      `json:"packages"`
	Optimization *TourOptimization `json:"optimization,omitempty"`
	Checksum     string            `json:"checksum"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}

// TourSyncResponse reports the outcome of one sync round. Conflicts are a
// first-class response variant, never an error.
type TourSyncResponse struct {
	Success   bool       `json:"success"`
	Tour      *TourState `json:"tour,omitempty"`
	Message   string     `json:"message,omitempty"`
	Conflicts []string   `json:"conflicts,omitempty"`
}
