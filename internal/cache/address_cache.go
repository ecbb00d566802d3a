package cache

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/platform/obs"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/ports"
)

var (
	streetComponentsRe = regexp.MustCompile(`^(\d+)\s+(.+)$`)
	postcodeCityRe     = regexp.MustCompile(`(\d{5})\s+([^,]+)`)
)

// AddressCache memoizes resolved addresses across three layers: a
// process-local map keyed by the exact raw string, the durable repository,
// and finally the resolution cascade. Within one process lifetime the same
// raw string never triggers more than one external geocoding call.
//
// The in-memory map is a performance layer only; the repository stays the
// shared source of truth across processes.
type AddressCache struct {
	repo     ports.AddressRepository
	resolver ports.AddressResolver

	mu       sync.Mutex
	byRaw    map[string]*domain.ResolvedAddress
	inflight map[string]chan struct{}
}

func NewAddressCache(repo ports.AddressRepository, resolver ports.AddressResolver) *AddressCache {
	return &AddressCache{
		repo:     repo,
		resolver: resolver,
		byRaw:    make(map[string]*domain.ResolvedAddress),
		inflight: make(map[string]chan struct{}),
	}
}

// lookupLocal checks the process-local map. The lock covers only the map
// access, never I/O.
func (c *AddressCache) lookupLocal(raw string) (*domain.ResolvedAddress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr, ok := c.byRaw[raw]
	return addr, ok
}

func (c *AddressCache) storeLocal(raw string, addr *domain.ResolvedAddress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRaw[raw] = addr
	c.byRaw[addr.SearchKey()] = addr
}

// acquire claims the resolution slot for a raw string. If another goroutine
// already holds it, acquire blocks until that resolution finishes and reports
// claimed=false so the caller re-checks the map instead of calling the
// provider a second time.
func (c *AddressCache) acquire(ctx context.Context, raw string) (claimed bool, err error) {
	for {
		c.mu.Lock()
		ch, busy := c.inflight[raw]
		if !busy {
			c.inflight[raw] = make(chan struct{})
			c.mu.Unlock()
			return true, nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ch:
			if _, ok := c.lookupLocal(raw); ok {
				return false, nil
			}
			// The other resolution failed; try to claim the slot ourselves.
		}
	}
}

func (c *AddressCache) release(raw string) {
	c.mu.Lock()
	ch := c.inflight[raw]
	delete(c.inflight, raw)
	c.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// FindOrResolve looks an address up through the cascade of layers and, on a
// provider hit, persists the new address and promotes it locally.
func (c *AddressCache) FindOrResolve(ctx context.Context, rawAddress, companyID, driverID string) (_ *domain.AddressLookupResult, err error) {
	defer obs.Time(ctx, "addresscache.FindOrResolve")(&err)

	raw := strings.TrimSpace(rawAddress)
	if raw == "" {
		return nil, fmt.Errorf("find or resolve: raw address must be non-empty")
	}

	if addr, ok := c.lookupLocal(raw); ok {
		return &domain.AddressLookupResult{Found: true, Address: addr, Source: domain.SourceInMemory}, nil
	}

	claimed, err := c.acquire(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("find or resolve: %w", err)
	}
	if !claimed {
		addr, _ := c.lookupLocal(raw)
		return &domain.AddressLookupResult{Found: true, Address: addr, Source: domain.SourceInMemory}, nil
	}
	defer c.release(raw)

	if addr, err := c.findDurable(ctx, raw, companyID); err != nil {
		return nil, fmt.Errorf("find or resolve: durable lookup: %w", err)
	} else if addr != nil {
		c.storeLocal(raw, addr)
		return &domain.AddressLookupResult{Found: true, Address: addr, Source: domain.SourceDurable}, nil
	}

	attempt := c.resolver.Resolve(ctx, raw, driverID)
	if !attempt.Success {
		log.Printf("%v: addr=%q driver=%s", domain.ErrResolutionFailed, raw, driverID)
		return &domain.AddressLookupResult{Found: false, Source: domain.SourceNotFound}, nil
	}

	saved, err := c.persistResolved(ctx, raw, companyID, attempt)
	if err != nil {
		return nil, fmt.Errorf("find or resolve: persist: %w", err)
	}

	c.storeLocal(raw, saved)
	return &domain.AddressLookupResult{Found: true, Address: saved, Source: domain.SourceExternalProvider}, nil
}

// findDurable tries an exact official_label match, then a partial
// (street_name, street_number) match extracted from the raw string.
func (c *AddressCache) findDurable(ctx context.Context, raw, companyID string) (*domain.ResolvedAddress, error) {
	addr, err := c.repo.FindExact(ctx, companyID, raw)
	if err != nil {
		return nil, err
	}
	if addr != nil {
		return addr, nil
	}

	number, street := extractStreetComponents(raw)
	if number == "" || street == "" {
		return nil, nil
	}
	return c.repo.FindPartial(ctx, companyID, street, number)
}

func (c *AddressCache) persistResolved(ctx context.Context, raw, companyID string, attempt domain.GeocodeAttempt) (*domain.ResolvedAddress, error) {
	label := attempt.FormattedAddress
	if label == "" {
		label = raw
	}

	number, street := extractStreetComponents(label)
	postcode, city := extractPostcodeCity(label)

	addr := &domain.ResolvedAddress{
		CompanyID:     companyID,
		OfficialLabel: label,
		StreetName:    street,
		StreetNumber:  number,
		Postcode:      postcode,
		City:          city,
		Coordinates:   *attempt.Coordinates,
	}

	saved, err := c.repo.Upsert(ctx, addr)
	if err != nil {
		return nil, err
	}

	log.Printf("address persisted: label=%q source=%s", saved.OfficialLabel, attempt.Method)
	return saved, nil
}

// UpdateDriverData mutates only the driver annotation fields and refreshes
// the local cache entry under the address's search key. Repeating the same
// call produces the same stored state.
func (c *AddressCache) UpdateDriverData(ctx context.Context, addressID, doorCode string, hasMailboxAccess bool, notes, updatedBy string) (_ *domain.ResolvedAddress, err error) {
	defer obs.Time(ctx, "addresscache.UpdateDriverData")(&err)

	updated, err := c.repo.UpdateDriverData(ctx, addressID, doorCode, hasMailboxAccess, notes, updatedBy)
	if err != nil {
		return nil, fmt.Errorf("update driver data: %w", err)
	}

	c.mu.Lock()
	c.byRaw[updated.SearchKey()] = updated
	// Refresh any raw-string aliases pointing at the same address.
	for key, cached := range c.byRaw {
		if cached.ID == updated.ID {
			c.byRaw[key] = updated
		}
	}
	c.mu.Unlock()

	return updated, nil
}

// FindBySearchKey checks the local map for "<street_name> <postcode>" without
// touching the durable store. Used by the grouping engine for trusted
// upstream-geocoded addresses.
func (c *AddressCache) FindBySearchKey(streetName, postcode string) (*domain.ResolvedAddress, bool) {
	key := strings.ToUpper(strings.TrimSpace(streetName) + " " + strings.TrimSpace(postcode))
	return c.lookupLocal(key)
}

// CreateIfAbsent returns the reference-data row for a street/postcode pair,
// creating it from feed-supplied coordinates when it doesn't exist yet.
func (c *AddressCache) CreateIfAbsent(ctx context.Context, companyID, streetName, streetNumber, postcode, city string, coords domain.Coordinates) (*domain.ResolvedAddress, error) {
	if addr, ok := c.FindBySearchKey(streetName, postcode); ok {
		return addr, nil
	}

	label := strings.TrimSpace(strings.Join(strings.Fields(streetNumber+" "+streetName+" "+postcode+" "+city), " "))
	if existing, err := c.repo.FindExact(ctx, companyID, label); err != nil {
		return nil, fmt.Errorf("create if absent: exact lookup: %w", err)
	} else if existing != nil {
		c.storeLocal(label, existing)
		return existing, nil
	}

	saved, err := c.repo.Upsert(ctx, &domain.ResolvedAddress{
		CompanyID:     companyID,
		OfficialLabel: label,
		StreetName:    streetName,
		StreetNumber:  streetNumber,
		Postcode:      postcode,
		City:          city,
		Coordinates:   coords,
	})
	if err != nil {
		return nil, fmt.Errorf("create if absent: upsert: %w", err)
	}

	c.storeLocal(label, saved)
	return saved, nil
}

// Stats reports the local map size for the stats endpoint.
func (c *AddressCache) Stats() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byRaw)
}

// extractStreetComponents splits "123 Rue de la Paix" into ("123", "Rue de la
// Paix"). Addresses without a leading number yield an empty number.
func extractStreetComponents(address string) (number, street string) {
	m := streetComponentsRe.FindStringSubmatch(strings.TrimSpace(address))
	if m == nil {
		return "", strings.TrimSpace(address)
	}
	return m[1], m[2]
}

// extractPostcodeCity pulls "75018 Paris" out of a formatted address.
func extractPostcodeCity(address string) (postcode, city string) {
	m := postcodeCityRe.FindStringSubmatch(address)
	if m == nil {
		return "", ""
	}
	return m[1], strings.TrimSpace(m[2])
}
