package ports

import (
	"context"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
)

// Port: a boundary for the durable address reference-data store.
// Lookups return (nil, nil) on a clean miss; errors mean the store itself
// failed and must not be treated as "not found".
type AddressRepository interface {
	// Exact match on official_label, case-insensitive, scoped to a company.
	FindExact(ctx context.Context, companyID, label string) (*domain.ResolvedAddress, error)

	// Partial match on (street_name, street_number) scoped to a company.
	FindPartial(ctx context.Context, companyID, streetName, streetNumber string) (*domain.ResolvedAddress, error)

	// Insert a new address or refresh updated_at when official_label already
	// exists. Returns the stored row either way.
	Upsert(ctx context.Context, addr *domain.ResolvedAddress) (*domain.ResolvedAddress, error)

	// Mutate only the driver annotation fields of an existing address.
	UpdateDriverData(ctx context.Context, addressID, doorCode string, hasMailboxAccess bool, notes, updatedBy string) (*domain.ResolvedAddress, error)
}
