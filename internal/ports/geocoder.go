package ports

import (
	"context"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
)

// GeocodeResult is one forward-geocoding answer from the external provider.
// Coordinates is nil when the provider found no match.
type GeocodeResult struct {
	Coordinates      *domain.Coordinates
	FormattedAddress string
}

// Contract for forward-geocoding a raw address string against the external
// provider. Implementations must honor context deadlines; a timed-out call is
// just a failed attempt, never fatal for a batch.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
}
