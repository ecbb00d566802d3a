package domain

import (
	"strings"
	"time"
)

// ResolvedAddress is the canonical representation of a physical delivery point.
// Label and coordinates are fixed at creation; only the driver annotation fields
// (DoorCode, HasMailboxAccess, DriverNotes) change afterwards.
type ResolvedAddress struct {
	ID               string
	CompanyID        string
	OfficialLabel    string
	StreetName       string
	StreetNumber     string
	Postcode         string
	City             string
	Coordinates      Coordinates
	DoorCode         string
	HasMailboxAccess bool
	DriverNotes      string
	LastUpdatedBy    string
	UpdatedAt        time.Time
}

// SearchKey returns the fuzzy lookup key for this address, independent of its id.
func (a *ResolvedAddress) SearchKey() string {
	return strings.ToUpper(strings.TrimSpace(a.StreetName) + " " + strings.TrimSpace(a.Postcode))
}

// AddressSource identifies which layer produced an address lookup result.
type AddressSource string

const (
	SourceInMemory         AddressSource = "in_memory"
	SourceDurable          AddressSource = "durable"
	SourceExternalProvider AddressSource = "external_provider"
	SourceNotFound         AddressSource = "not_found"
)

// AddressLookupResult is the outcome of a find-or-resolve call.
type AddressLookupResult struct {
	Found   bool
	Address *ResolvedAddress
	Source  AddressSource
}
