package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/platform/obs"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/ports"
)

// TourCacheConfig carries the tier parameters. Defaults match production:
// fast tier expires after 30 minutes of inactivity, the durable tier after
// 24 hours, and the fast tier holds at most 1000 tours.
type TourCacheConfig struct {
	MemoryTTL        time.Duration
	DurableTTL       time.Duration
	MaxMemoryEntries int
}

func DefaultTourCacheConfig() TourCacheConfig {
	return TourCacheConfig{
		MemoryTTL:        30 * time.Minute,
		DurableTTL:       24 * time.Hour,
		MaxMemoryEntries: 1000,
	}
}

// TourCacheStats is a point-in-time snapshot of the fast tier.
type TourCacheStats struct {
	MemoryEntries int        `json:"memory_entries"`
	MaxEntries    int        `json:"max_entries"`
	OldestTour    *time.Time `json:"oldest_tour,omitempty"`
	NewestTour    *time.Time `json:"newest_tour,omitempty"`
}

// TourCache keeps tour state in two tiers: an in-process map for hot reads
// and a durable key-value store that survives restarts. Writes always land
// durably first so a crash between the two tiers loses speed, not data.
type TourCache struct {
	store ports.KVStore
	cfg   TourCacheConfig

	mu    sync.Mutex
	tours map[string]*domain.TourState
}

func NewTourCache(store ports.KVStore, cfg TourCacheConfig) *TourCache {
	if cfg.MemoryTTL <= 0 {
		cfg.MemoryTTL = DefaultTourCacheConfig().MemoryTTL
	}
	if cfg.DurableTTL <= 0 {
		cfg.DurableTTL = DefaultTourCacheConfig().DurableTTL
	}
	if cfg.MaxMemoryEntries <= 0 {
		cfg.MaxMemoryEntries = DefaultTourCacheConfig().MaxMemoryEntries
	}
	return &TourCache{
		store: store,
		cfg:   cfg,
		tours: make(map[string]*domain.TourState),
	}
}

// Config returns the tier parameters in effect after defaulting.
func (c *TourCache) Config() TourCacheConfig { return c.cfg }

func tourKey(tourneeID string) string {
	return "tournee:" + tourneeID
}

func (c *TourCache) fresh(t *domain.TourState, now time.Time) bool {
	return now.Sub(t.LastActivity) <= c.cfg.MemoryTTL
}

// Get returns the current state of a tour, or nil when unknown. Fast-tier
// entries past their inactivity window are treated as absent; a durable hit
// repopulates the fast tier.
func (c *TourCache) Get(ctx context.Context, tourneeID string) (_ *domain.TourState, err error) {
	defer obs.Time(ctx, "tourcache.Get")(&err)

	now := time.Now().UTC()

	c.mu.Lock()
	if t, ok := c.tours[tourneeID]; ok {
		if c.fresh(t, now) {
			c.mu.Unlock()
			return t, nil
		}
		delete(c.tours, tourneeID)
	}
	c.mu.Unlock()

	raw, ok, err := c.store.Get(ctx, tourKey(tourneeID))
	if err != nil {
		return nil, fmt.Errorf("get tour %s: %w", tourneeID, err)
	}
	if !ok {
		return nil, nil
	}

	var t domain.TourState
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("get tour %s: decode: %w", tourneeID, err)
	}

	c.admit(&t)
	return &t, nil
}

// Put validates and stores a new tour version. The checksum is recomputed
// from the packages; version starts at 1 for a new tour and must otherwise
// be supplied by the caller (the sync coordinator increments it).
func (c *TourCache) Put(ctx context.Context, t *domain.TourState) (err error) {
	defer obs.Time(ctx, "tourcache.Put")(&err)

	if t.TourneeID == "" {
		return fmt.Errorf("put tour: tournee id must be non-empty")
	}
	if t.Version == 0 {
		t.Version = 1
	}
	sum, err := domain.PackagesChecksum(&t.Packages)
	if err != nil {
		return fmt.Errorf("put tour %s: %w", t.TourneeID, err)
	}
	t.LastActivity = time.Now().UTC()
	t.Checksum = sum

	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("put tour %s: encode: %w", t.TourneeID, err)
	}

	// Durable tier first: a failure here leaves both tiers on the old state.
	if err := c.store.Set(ctx, tourKey(t.TourneeID), raw, c.cfg.DurableTTL); err != nil {
		return fmt.Errorf("put tour %s: %w", t.TourneeID, err)
	}

	c.admit(t)
	return nil
}

// admit inserts into the fast tier, evicting the least recently active tour
// when the tier is full.
func (c *TourCache) admit(t *domain.TourState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tours[t.TourneeID]; !ok && len(c.tours) >= c.cfg.MaxMemoryEntries {
		var victim string
		var oldest time.Time
		for id, cached := range c.tours {
			if victim == "" || cached.LastActivity.Before(oldest) {
				victim = id
				oldest = cached.LastActivity
			}
		}
		if victim != "" {
			delete(c.tours, victim)
			log.Printf("tour cache: evicted tour=%s last_activity=%s", victim, oldest.Format(time.RFC3339))
		}
	}
	c.tours[t.TourneeID] = t
}

// Invalidate removes a tour from both tiers.
func (c *TourCache) Invalidate(ctx context.Context, tourneeID string) (err error) {
	defer obs.Time(ctx, "tourcache.Invalidate")(&err)

	c.mu.Lock()
	delete(c.tours, tourneeID)
	c.mu.Unlock()

	if err := c.store.Delete(ctx, tourKey(tourneeID)); err != nil {
		return fmt.Errorf("invalidate tour %s: %w", tourneeID, err)
	}
	return nil
}

// CleanupExpired drops fast-tier entries past the inactivity window and
// returns how many were removed. The durable tier expires on its own TTL.
func (c *TourCache) CleanupExpired() int {
	now := time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, t := range c.tours {
		if !c.fresh(t, now) {
			delete(c.tours, id)
			removed++
		}
	}
	return removed
}

// StartCleanupLoop runs CleanupExpired on a fixed interval until ctx ends.
func (c *TourCache) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.CleanupExpired(); n > 0 {
				log.Printf("tour cache: cleanup removed=%d", n)
			}
		}
	}
}

// Stats snapshots the fast tier.
func (c *TourCache) Stats() TourCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := TourCacheStats{
		MemoryEntries: len(c.tours),
		MaxEntries:    c.cfg.MaxMemoryEntries,
	}
	for _, t := range c.tours {
		la := t.LastActivity
		if stats.OldestTour == nil || la.Before(*stats.OldestTour) {
			v := la
			stats.OldestTour = &v
		}
		if stats.NewestTour == nil || la.After(*stats.NewestTour) {
			v := la
			stats.NewestTour = &v
		}
	}
	return stats
}
