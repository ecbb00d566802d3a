package geocode

import (
	"context"
	"fmt"
	"sync"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/ports"
)

// MockGeocoder serves scripted results keyed by the exact query string and
// counts calls, so tests can assert which cascade steps ran.
type MockGeocoder struct {
	mu      sync.Mutex
	results map[string]ports.GeocodeResult
	calls   []string
	failAll bool
}

func NewMockGeocoder(results map[string]ports.GeocodeResult) *MockGeocoder {
	if results == nil {
		results = make(map[string]ports.GeocodeResult)
	}
	return &MockGeocoder{results: results}
}

// FailAll makes every call return an error, simulating provider downtime.
func (g *MockGeocoder) FailAll() { g.failAll = true }

func (g *MockGeocoder) Geocode(ctx context.Context, address string) (ports.GeocodeResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, address)
	failAll := g.failAll
	r, ok := g.results[address]
	g.mu.Unlock()

	if failAll {
		return ports.GeocodeResult{}, fmt.Errorf("geocoder unavailable for %q", address)
	}
	if !ok {
		return ports.GeocodeResult{}, nil
	}
	return r, nil
}

// Calls returns the queries received so far, in order.
func (g *MockGeocoder) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *MockGeocoder) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
