package conflict

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned when resolving a conflict id the registry does not
// hold.
var ErrNotFound = errors.New("conflict not found")

// Registry tracks detected conflicts keyed by journey identity. Registered
// conflicts survive until explicitly resolved; resolution stamps ResolvedAt
// and records the chosen policy without deleting history.
//
// The registry is an explicit object owned by one orchestrator instance - no
// ambient state - so per-tenant orchestrators stay isolated and tests need no
// reset hooks. MemoryRegistry is the in-process implementation; the store
// package provides a durable one for the CLI.
type Registry interface {
	Register(ctx context.Context, c Conflict) error
	ListFor(ctx context.Context, journeyID string) ([]Conflict, error)
	Unresolved(ctx context.Context) ([]Conflict, error)
	Resolve(ctx context.Context, conflictID string, resolution Resolution) error
	IsBlocking(ctx context.Context, journeyID string) (bool, error)
}

// MemoryRegistry is the in-memory Registry. Access within one orchestrator
// run is strictly sequential; the mutex only guards against callers sharing a
// registry across goroutines.
type MemoryRegistry struct {
	mu        sync.Mutex
	byJourney map[string][]*Conflict
	byID      map[string]*Conflict
	now       func() time.Time
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byJourney: make(map[string][]*Conflict),
		byID:      make(map[string]*Conflict),
		now:       time.Now,
	}
}

// Register records a detected conflict.
func (r *MemoryRegistry) Register(_ context.Context, c Conflict) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := c
	r.byJourney[c.JourneyID] = append(r.byJourney[c.JourneyID], &stored)
	r.byID[c.ID] = &stored
	return nil
}

// ListFor returns every conflict recorded for a journey, resolved or not, in
// registration order.
func (r *MemoryRegistry) ListFor(_ context.Context, journeyID string) ([]Conflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byJourney[journeyID]
	out := make([]Conflict, len(list))
	for i, c := range list {
		out[i] = *c
	}
	return out, nil
}

// Unresolved returns every conflict without a resolution, across journeys.
func (r *MemoryRegistry) Unresolved(_ context.Context) ([]Conflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Conflict
	for _, list := range r.byJourney {
		for _, c := range list {
			if !c.Resolved() {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

// Resolve stamps the conflict resolved with the chosen policy. The conflict
// stays in the registry as history.
func (r *MemoryRegistry) Resolve(_ context.Context, conflictID string, resolution Resolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[conflictID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, conflictID)
	}
	resolvedAt := r.now()
	c.ResolvedAt = &resolvedAt
	c.Policy = resolution
	return nil
}

// IsBlocking reports whether any unresolved conflict for the journey requires
// manual resolution.
func (r *MemoryRegistry) IsBlocking(_ context.Context, journeyID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.byJourney[journeyID] {
		if c.Blocking() {
			return true, nil
		}
	}
	return false, nil
}
