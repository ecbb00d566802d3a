package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/adapters/geocode"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/adapters/kv"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/adapters/repositories"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/api"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/cache"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/config"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/platform/db"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, Mapbox) behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")
	redisAddr := config.Get("REDIS_ADDR", "localhost:6379")
	redisPassword := config.Get("REDIS_PASSWORD", "")
	redisDB := config.GetInt("REDIS_DB", 0)
	strategy := services.ParseConflictStrategy(config.Get("CONFLICT_STRATEGY", "timestamp_wins"))

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	if strings.TrimSpace(mapboxToken) == "" {
		log.Fatal("MAPBOX_TOKEN is required")
	}

	database, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := kv.Open(ctx, redisAddr, redisPassword, redisDB)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	geocoder, err := geocode.NewMapboxGeocoder(mapboxToken)
	if err != nil {
		log.Fatal(err)
	}

	resolver := services.NewResolver(geocoder)
	repo := repositories.NewPgAddressRepository(database)
	addresses := cache.NewAddressCache(repo, resolver)

	tours := cache.NewTourCache(store, cache.TourCacheConfig{
		MemoryTTL:        config.GetDuration("TOUR_MEMORY_TTL", 30*time.Minute),
		DurableTTL:       config.GetDuration("TOUR_REDIS_TTL", 24*time.Hour),
		MaxMemoryEntries: config.GetInt("TOUR_MAX_MEMORY_ENTRIES", 1000),
	})

	coordinator := services.NewCoordinator(tours, strategy)
	grouper := services.NewGrouper(addresses)

	// Expired fast-tier entries are swept in the background; the durable tier
	// expires via Redis TTLs.
	go tours.StartCleanupLoop(ctx, config.GetDuration("TOUR_CLEANUP_INTERVAL", 5*time.Minute))

	router := api.NewRouter(coordinator, grouper, resolver, addresses, tours)

	// Timeouts are tuned for cold-cache batch geocoding (external API latency).
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s strategy=%s", port, strategy)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
