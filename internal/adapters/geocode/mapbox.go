package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/platform/obs"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/ports"
)

// MapboxGeocoder implements Geocoder using the Mapbox forward-geocoding API.
//
// It coordinates:
//   - Address normalization
//   - External API calls with retry/backoff
//
// The geocoder is safe for concurrent use.
type MapboxGeocoder struct {
	session *http.Client
	token   string
	baseURL string
	country string
}

func NewMapboxGeocoder(token string) (*MapboxGeocoder, error) {
	if token == "" {
		return nil, errors.New("mapbox token is empty")
	}

	geocoder := &MapboxGeocoder{
		session: &http.Client{Timeout: 10 * time.Second},
		token:   token,
		baseURL: "https://api.mapbox.com",
		country: "fr",
	}

	return geocoder, nil
}

// normalize ensures consistent queries by collapsing whitespace.
func (m *MapboxGeocoder) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type forwardResponse struct {
	Features []struct {
		Properties struct {
			FullAddress string `json:"full_address"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode resolves one address via /search/geocode/v6/forward. A response
// without features is a clean miss, not an error.
func (m *MapboxGeocoder) Geocode(ctx context.Context, address string) (_ ports.GeocodeResult, err error) {
	defer obs.Time(ctx, "mapbox.Geocode")(&err)

	norm := m.normalize(address)
	if norm == "" {
		return ports.GeocodeResult{}, errors.New("geocode: address must be non-empty")
	}

	endpoint := m.baseURL + "/search/geocode/v6/forward"

	resp, err := m.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := m.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := url.Values{}
		q.Set("q", norm)
		q.Set("country", m.country)
		q.Set("limit", "1")
		q.Set("access_token", m.token)
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return ports.GeocodeResult{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.GeocodeResult{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var decoded forwardResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.GeocodeResult{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return ports.GeocodeResult{}, nil
	}

	feature := decoded.Features[0]
	coords := feature.Geometry.Coordinates
	if len(coords) != 2 {
		return ports.GeocodeResult{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}

	return ports.GeocodeResult{
		Coordinates: &domain.Coordinates{
			Lon: coords[0],
			Lat: coords[1],
		},
		FormattedAddress: feature.Properties.FullAddress,
	}, nil
}
