package ports

import (
	"context"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
)

// Contract for running the full resolution cascade on one raw address.
// The cache layer falls through to this after both lookup tiers miss.
type AddressResolver interface {
	Resolve(ctx context.Context, rawAddress, driverID string) domain.GeocodeAttempt
}
