package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
)

// fakeTourStore mimics the tour cache's Put contract (version defaulting,
// checksum and last_activity refresh) against a plain map.
type fakeTourStore struct {
	tours map[string]*domain.TourState
	puts  int
}

func newFakeTourStore() *fakeTourStore {
	return &fakeTourStore{tours: make(map[string]*domain.TourState)}
}

func (f *fakeTourStore) Get(ctx context.Context, tourneeID string) (*domain.TourState, error) {
	t, ok := f.tours[tourneeID]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTourStore) Put(ctx context.Context, t *domain.TourState) error {
	if t.Version == 0 {
		t.Version = 1
	}
	sum, err := domain.PackagesChecksum(&t.Packages)
	if err != nil {
		return err
	}
	t.Checksum = sum
	t.LastActivity = time.Now().UTC()

	copied := *t
	f.tours[t.TourneeID] = &copied
	f.puts++
	return nil
}

func (f *fakeTourStore) Invalidate(ctx context.Context, tourneeID string) error {
	delete(f.tours, tourneeID)
	return nil
}

func driverCaller(id string) Caller {
	return Caller{DriverID: id, CompanyID: "company-1", Role: RoleDriver}
}

func packagesWith(trackings ...string) domain.TourPackages {
	var p domain.TourPackages
	for _, tr := range trackings {
		p.Singles = append(p.Singles, domain.SinglePackage{ID: tr, Tracking: tr})
	}
	return p
}

func firstSync(t *testing.T, c *Coordinator, store *fakeTourStore, tourneeID string) *domain.TourState {
	t.Helper()
	resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID:   tourneeID,
		Version:     1,
		Packages:    packagesWith("PKG-1"),
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if !resp.Success {
		t.Fatalf("first sync rejected: %+v", resp)
	}
	return store.tours[tourneeID]
}

func TestSyncCreatesNewTour(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyTimestampWins)

	created := firstSync(t, c, store, "tour-1")

	if created.Version != 1 {
		t.Fatalf("version = %d, want 1", created.Version)
	}
	if created.DriverMatricule != "driver-1" {
		t.Fatalf("driver = %q, want driver-1", created.DriverMatricule)
	}
	if created.Checksum == "" {
		t.Fatal("expected a computed checksum")
	}
}

func TestSyncCleanUpdateBumpsVersion(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyTimestampWins)

	current := firstSync(t, c, store, "tour-1")

	resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     current.Version,
		Packages:    packagesWith("PKG-1", "PKG-2"),
		Checksum:    current.Checksum,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Tour.Version != 2 {
		t.Fatalf("version = %d, want 2", resp.Tour.Version)
	}

	wantSum, err := domain.PackagesChecksum(&resp.Tour.Packages)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if resp.Tour.Checksum != wantSum {
		t.Fatalf("checksum = %q, want %q", resp.Tour.Checksum, wantSum)
	}
}

func TestSyncServerWinsRejectsStaleVersion(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyServerWins)

	firstSync(t, c, store, "tour-1")
	store.tours["tour-1"].Version = 5
	serverState := *store.tours["tour-1"]

	resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     3,
		Packages:    packagesWith("PKG-9"),
		Checksum:    "stale",
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Success {
		t.Fatal("expected rejection")
	}
	if len(resp.Conflicts) == 0 {
		t.Fatal("expected populated conflicts")
	}
	if store.tours["tour-1"].Version != serverState.Version {
		t.Fatal("server state must stay unchanged on ServerWins rejection")
	}
}

func TestSyncClientWinsAcceptsConflict(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyClientWins)

	firstSync(t, c, store, "tour-1")
	store.tours["tour-1"].Version = 5

	resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     3,
		Packages:    packagesWith("PKG-9"),
		Checksum:    "stale",
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Success {
		t.Fatalf("expected acceptance, got %+v", resp)
	}
	if resp.Tour.Version != 6 {
		t.Fatalf("version = %d, want 6", resp.Tour.Version)
	}
	if len(resp.Tour.Packages.Singles) != 1 || resp.Tour.Packages.Singles[0].Tracking != "PKG-9" {
		t.Fatal("expected the client payload to win")
	}
}

func TestSyncTimestampWins(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyTimestampWins)

	firstSync(t, c, store, "tour-1")

	// Older than the server's last activity: the server keeps its state.
	resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     1,
		Packages:    packagesWith("PKG-9"),
		Checksum:    "divergent",
		SubmittedAt: time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Success {
		t.Fatal("stale submission must lose to fresher server state")
	}

	// Newer than the server's last activity: the client wins.
	resp, err = c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     1,
		Packages:    packagesWith("PKG-9"),
		Checksum:    "divergent",
		SubmittedAt: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("fresh submission must win, got %+v", resp)
	}
	if resp.Tour.Version != 2 {
		t.Fatalf("version = %d, want 2", resp.Tour.Version)
	}
}

func TestSyncMergeIsTerminal(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyMerge)

	firstSync(t, c, store, "tour-1")
	before := *store.tours["tour-1"]
	putsBefore := store.puts

	resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     1,
		Packages:    packagesWith("PKG-9"),
		Checksum:    "divergent",
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Success {
		t.Fatal("merge conflicts are not auto-resolvable")
	}
	if len(resp.Conflicts) == 0 {
		t.Fatal("expected populated conflicts")
	}
	if store.puts != putsBefore {
		t.Fatal("merge must not write state")
	}
	if store.tours["tour-1"].Version != before.Version {
		t.Fatal("server state must stay untouched")
	}
}

func TestSyncPermissionGate(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyTimestampWins)

	firstSync(t, c, store, "tour-1")

	// Another driver may not touch this tour.
	_, err := c.Sync(context.Background(), driverCaller("driver-2"), &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     1,
		SubmittedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("expected permission error")
	}

	// An admin of the same company may.
	admin := Caller{DriverID: "admin-1", CompanyID: "company-1", Role: RoleAdmin}
	resp, err := c.Sync(context.Background(), admin, &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     1,
		Packages:    packagesWith("PKG-1"),
		Checksum:    store.tours["tour-1"].Checksum,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("admin sync: %v", err)
	}
	if !resp.Success {
		t.Fatalf("admin sync rejected: %+v", resp)
	}

	// An admin of another company may not.
	foreign := Caller{DriverID: "admin-2", CompanyID: "company-2", Role: RoleAdmin}
	if _, err := c.GetTour(context.Background(), foreign, "tour-1"); err == nil {
		t.Fatal("expected permission error for foreign admin")
	}

	// A super admin may read anything.
	root := Caller{DriverID: "root", CompanyID: "other", Role: RoleSuperAdmin}
	if _, err := c.GetTour(context.Background(), root, "tour-1"); err != nil {
		t.Fatalf("super admin read: %v", err)
	}
}

func TestSyncVersionMonotonicity(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyServerWins)

	current := firstSync(t, c, store, "tour-1")

	for i := 0; i < 3; i++ {
		resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
			TourneeID:   "tour-1",
			Version:     current.Version,
			Packages:    current.Packages,
			Checksum:    current.Checksum,
			SubmittedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		if !resp.Success {
			t.Fatalf("round %d rejected: %+v", i, resp)
		}
		if resp.Tour.Version != current.Version+1 {
			t.Fatalf("round %d: version = %d, want %d", i, resp.Tour.Version, current.Version+1)
		}
		current = resp.Tour
	}
}

func TestSyncConcurrentAcceptsDistinctVersions(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyTimestampWins)

	firstSync(t, c, store, "tour-1")

	const workers = 32
	versions := make(chan uint32, workers)
	// A submission time past every server write keeps TimestampWins on the
	// client's side for all workers.
	submitted := time.Now().UTC().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
				TourneeID:   "tour-1",
				Version:     1,
				Packages:    packagesWith("PKG-1", trackingFor(n)),
				SubmittedAt: submitted,
			})
			if err != nil {
				t.Errorf("worker %d: %v", n, err)
				return
			}
			if !resp.Success {
				t.Errorf("worker %d rejected: %+v", n, resp)
				return
			}
			versions <- resp.Tour.Version
		}(i)
	}
	wg.Wait()
	close(versions)

	seen := make(map[uint32]bool)
	for v := range versions {
		if seen[v] {
			t.Fatalf("version %d assigned to more than one accepted sync", v)
		}
		seen[v] = true
	}
	if len(seen) != workers {
		t.Fatalf("accepted syncs = %d, want %d", len(seen), workers)
	}
	if got := store.tours["tour-1"].Version; got != workers+1 {
		t.Fatalf("final version = %d, want %d", got, workers+1)
	}
}

func trackingFor(n int) string {
	return fmt.Sprintf("PKG-%04d", n)
}

func TestSyncAcceptReplacesOptimization(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyTimestampWins)

	resp, err := c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID: "tour-1",
		Version:   1,
		Packages:  packagesWith("PKG-1"),
		Optimization: &domain.TourOptimization{
			Order:     []string{"PKG-1"},
			Timestamp: time.Now().UTC(),
		},
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if resp.Tour.Optimization == nil {
		t.Fatal("expected the created tour to carry the optimization")
	}

	current := store.tours["tour-1"]
	resp, err = c.Sync(context.Background(), driverCaller("driver-1"), &domain.TourSyncRequest{
		TourneeID:   "tour-1",
		Version:     current.Version,
		Packages:    current.Packages,
		Checksum:    current.Checksum,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if !resp.Success {
		t.Fatalf("second sync rejected: %+v", resp)
	}
	if resp.Tour.Optimization != nil {
		t.Fatal("a sync without an optimization must clear the stored one")
	}
	if store.tours["tour-1"].Optimization != nil {
		t.Fatal("stored tour still carries the previous optimization")
	}
}

func TestEndShiftRemovesTour(t *testing.T) {
	store := newFakeTourStore()
	c := NewCoordinator(store, StrategyTimestampWins)

	firstSync(t, c, store, "tour-1")

	if err := c.EndShift(context.Background(), driverCaller("driver-1"), "tour-1"); err != nil {
		t.Fatalf("end shift: %v", err)
	}
	if _, ok := store.tours["tour-1"]; ok {
		t.Fatal("tour still present after shift end")
	}
}

func TestParseConflictStrategy(t *testing.T) {
	if got := ParseConflictStrategy("server_wins"); got != StrategyServerWins {
		t.Fatalf("got %q", got)
	}
	if got := ParseConflictStrategy("nonsense"); got != StrategyTimestampWins {
		t.Fatalf("default = %q, want timestamp_wins", got)
	}
}
