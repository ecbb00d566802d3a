package dto

import (
	"time"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
)

type GroupedPackagesRequest struct {
	Packages []domain.FeedPackage `json:"packages"`
}

type SyncTourRequest struct {
	TourneeID    string                   `json:"tournee_id"`
	Version      uint32                   `json:"version"`
	Packages     domain.TourPackages      `json:"packages"`
	Optimization *domain.TourOptimization `json:"optimization,omitempty"`
	Checksum     string                   `json:"checksum"`
	SubmittedAt  *time.Time               `json:"submitted_at,omitempty"`
}

type CacheStatsResponse struct {
	MemoryEntries    int        `json:"memory_entries"`
	MaxEntries       int        `json:"max_entries"`
	OldestTour       *time.Time `json:"oldest_tour,omitempty"`
	NewestTour       *time.Time `json:"newest_tour,omitempty"`
	AddressEntries   int        `json:"address_entries"`
	ConflictStrategy string     `json:"conflict_strategy"`
	MemoryTTLSeconds int        `json:"memory_ttl_seconds"`
	RedisTTLSeconds  int        `json:"redis_ttl_seconds"`
}
