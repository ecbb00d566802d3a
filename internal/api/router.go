package api

import (
	"net/http"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/api/handlers"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/cache"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	coordinator *services.Coordinator,
	grouper *services.Grouper,
	resolver *services.Resolver,
	addresses *cache.AddressCache,
	tours *cache.TourCache,
) http.Handler {
	mux := http.NewServeMux()

	tourHandler := &handlers.TourHandler{
		Coordinator: coordinator,
		Tours:       tours,
		Addresses:   addresses,
	}
	packageHandler := &handlers.PackageHandler{Grouper: grouper}
	addressHandler := &handlers.AddressHandler{
		Addresses: addresses,
		Resolver:  resolver,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/tours/sync", tourHandler.Sync)
	mux.HandleFunc("/tours/stats", tourHandler.Stats)
	mux.HandleFunc("/tours", tourHandler.Tour)
	mux.HandleFunc("/packages/grouped", packageHandler.Grouped)
	mux.HandleFunc("/addresses/resolve", addressHandler.Resolve)
	mux.HandleFunc("/addresses/resolve-batch", addressHandler.ResolveBatch)
	mux.HandleFunc("/addresses/driver-data", addressHandler.UpdateDriverData)

	return loggingMiddleware(mux)
}
