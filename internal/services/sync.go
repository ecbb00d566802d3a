package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/platform/obs"
)

// ConflictStrategy selects how the coordinator settles divergent client and
// server tour state.
type ConflictStrategy string

const (
	StrategyServerWins    ConflictStrategy = "server_wins"
	StrategyClientWins    ConflictStrategy = "client_wins"
	StrategyTimestampWins ConflictStrategy = "timestamp_wins"
	StrategyMerge         ConflictStrategy = "merge"
)

// ParseConflictStrategy maps a config value to a strategy, defaulting to
// TimestampWins for unknown input.
func ParseConflictStrategy(s string) ConflictStrategy {
	switch ConflictStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyServerWins:
		return StrategyServerWins
	case StrategyClientWins:
		return StrategyClientWins
	case StrategyMerge:
		return StrategyMerge
	default:
		return StrategyTimestampWins
	}
}

// Role is the caller's privilege level, carried in from the auth layer.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleDriver     Role = "driver"
)

// Caller identifies who is syncing. Drivers may only touch their own tour;
// admins any tour within their company; super admins any tour.
type Caller struct {
	DriverID  string
	CompanyID string
	Role      Role
}

// TourStore is the slice of the tour cache the coordinator drives. Every
// state mutation goes through Put so both storage tiers stay consistent.
type TourStore interface {
	Get(ctx context.Context, tourneeID string) (*domain.TourState, error)
	Put(ctx context.Context, t *domain.TourState) error
	Invalidate(ctx context.Context, tourneeID string) error
}

// Coordinator applies client sync requests to the authoritative tour state,
// detecting conflicts by version and checksum and settling them with the
// configured strategy.
//
// The read-modify-write of one sync round is serialized per tour, so two
// accepted mutations can never observe the same snapshot and assign the same
// version. Different tours proceed in parallel.
type Coordinator struct {
	tours    TourStore
	strategy ConflictStrategy

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(tours TourStore, strategy ConflictStrategy) *Coordinator {
	return &Coordinator{
		tours:    tours,
		strategy: strategy,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (c *Coordinator) Strategy() ConflictStrategy { return c.strategy }

// tourLock returns the mutex serializing sync rounds for one tour.
func (c *Coordinator) tourLock(tourneeID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[tourneeID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[tourneeID] = l
	}
	return l
}

// authorize checks tour ownership before any read or mutation.
func authorize(caller Caller, t *domain.TourState) error {
	switch caller.Role {
	case RoleSuperAdmin:
		return nil
	case RoleAdmin:
		if t.CompanyID == caller.CompanyID {
			return nil
		}
	case RoleDriver:
		if t.DriverMatricule == caller.DriverID {
			return nil
		}
	}
	return fmt.Errorf("caller %s (role=%s) on tour %s: %w",
		caller.DriverID, caller.Role, t.TourneeID, domain.ErrPermissionDenied)
}

// Sync runs one synchronization round for a tour. Conflicts come back as a
// populated response, never as an error; errors mean storage trouble or a
// permission failure.
func (c *Coordinator) Sync(ctx context.Context, caller Caller, req *domain.TourSyncRequest) (_ *domain.TourSyncResponse, err error) {
	defer obs.Time(ctx, "coordinator.Sync")(&err)

	if req.TourneeID == "" {
		return nil, fmt.Errorf("sync: tournee id must be non-empty")
	}

	lock := c.tourLock(req.TourneeID)
	lock.Lock()
	defer lock.Unlock()

	current, err := c.tours.Get(ctx, req.TourneeID)
	if err != nil {
		return nil, fmt.Errorf("sync tour %s: %w", req.TourneeID, err)
	}

	if current == nil {
		return c.create(ctx, caller, req)
	}

	if err := authorize(caller, current); err != nil {
		return nil, err
	}

	conflicts := detectConflicts(req, current)
	if len(conflicts) == 0 {
		return c.accept(ctx, caller, req, current, "sync applied")
	}

	log.Printf("sync conflict: tour=%s strategy=%s client_version=%d server_version=%d",
		req.TourneeID, c.strategy, req.Version, current.Version)

	switch c.strategy {
	case StrategyServerWins:
		return &domain.TourSyncResponse{
			Success:   false,
			Tour:      current,
			Message:   "server state retained",
			Conflicts: conflicts,
		}, nil

	case StrategyClientWins:
		return c.accept(ctx, caller, req, current, "client state accepted")

	case StrategyMerge:
		// Not auto-resolvable. The state stays untouched and the caller
		// reconciles by hand.
		return &domain.TourSyncResponse{
			Success:   false,
			Tour:      current,
			Message:   "manual reconciliation required",
			Conflicts: conflicts,
		}, nil

	default: // TimestampWins
		if req.SubmittedAt.After(current.LastActivity) {
			return c.accept(ctx, caller, req, current, "client submission is more recent")
		}
		return &domain.TourSyncResponse{
			Success:   false,
			Tour:      current,
			Message:   "server state is more recent",
			Conflicts: conflicts,
		}, nil
	}
}

// create initializes tour state at version 1 from the first sync.
func (c *Coordinator) create(ctx context.Context, caller Caller, req *domain.TourSyncRequest) (*domain.TourSyncResponse, error) {
	t := &domain.TourState{
		TourneeID:       req.TourneeID,
		DriverMatricule: caller.DriverID,
		CompanyID:       caller.CompanyID,
		Status:          "active",
		Packages:        req.Packages,
		Optimization:    req.Optimization,
		Version:         1,
	}
	if err := c.tours.Put(ctx, t); err != nil {
		return nil, fmt.Errorf("sync tour %s: create: %w", req.TourneeID, err)
	}

	log.Printf("tour created: tour=%s driver=%s packages=%d",
		t.TourneeID, t.DriverMatricule, t.Packages.Count())
	return &domain.TourSyncResponse{Success: true, Tour: t, Message: "tour created"}, nil
}

// accept takes the request's payload as the new authoritative content and
// bumps the version past the server's.
func (c *Coordinator) accept(ctx context.Context, caller Caller, req *domain.TourSyncRequest, current *domain.TourState, message string) (*domain.TourSyncResponse, error) {
	next := &domain.TourState{
		TourneeID:       current.TourneeID,
		DriverMatricule: current.DriverMatricule,
		CompanyID:       current.CompanyID,
		Status:          current.Status,
		Packages:        req.Packages,
		Optimization:    req.Optimization,
		Version:         current.Version + 1,
	}
	if err := c.tours.Put(ctx, next); err != nil {
		return nil, fmt.Errorf("sync tour %s: apply: %w", req.TourneeID, err)
	}
	return &domain.TourSyncResponse{Success: true, Tour: next, Message: message}, nil
}

// detectConflicts compares the request against server state. An empty result
// means the request applies cleanly.
func detectConflicts(req *domain.TourSyncRequest, current *domain.TourState) []string {
	var conflicts []string
	if req.Version < current.Version {
		conflicts = append(conflicts, fmt.Sprintf(
			"version behind: client=%d server=%d", req.Version, current.Version))
	}
	if req.Checksum != current.Checksum {
		conflicts = append(conflicts, fmt.Sprintf(
			"checksum mismatch: client=%s server=%s", req.Checksum, current.Checksum))
	}
	return conflicts
}

// GetTour reads a tour with the permission gate applied.
func (c *Coordinator) GetTour(ctx context.Context, caller Caller, tourneeID string) (*domain.TourState, error) {
	t, err := c.tours.Get(ctx, tourneeID)
	if err != nil {
		return nil, fmt.Errorf("get tour %s: %w", tourneeID, err)
	}
	if t == nil {
		return nil, nil
	}
	if err := authorize(caller, t); err != nil {
		return nil, err
	}
	return t, nil
}

// EndShift drops a tour from both cache tiers when a driver's shift ends.
func (c *Coordinator) EndShift(ctx context.Context, caller Caller, tourneeID string) error {
	lock := c.tourLock(tourneeID)
	lock.Lock()
	defer lock.Unlock()

	t, err := c.tours.Get(ctx, tourneeID)
	if err != nil {
		return fmt.Errorf("end shift %s: %w", tourneeID, err)
	}
	if t != nil {
		if err := authorize(caller, t); err != nil {
			return err
		}
	}
	if err := c.tours.Invalidate(ctx, tourneeID); err != nil {
		return fmt.Errorf("end shift %s: %w", tourneeID, err)
	}
	log.Printf("tour invalidated: tour=%s driver=%s at=%s",
		tourneeID, caller.DriverID, time.Now().UTC().Format(time.RFC3339))
	return nil
}
