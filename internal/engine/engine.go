// Package engine drives reconciliation: it walks the worklist of pending
// journeys, classifies divergence from the remote workflow engine, pushes
// local changes outward through the retry policy, and records every decision
// in the append-only sync history.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/touchpointhq/journeysync/internal/conflict"
	"github.com/touchpointhq/journeysync/internal/journey"
	"github.com/touchpointhq/journeysync/internal/remote"
	"github.com/touchpointhq/journeysync/internal/retry"
)

// Store is the journey store surface the orchestrator consumes. The concrete
// store (SQLite, in-memory test fake) lives behind this interface.
type Store interface {
	// FetchPending returns journeys eligible for sync, optionally scoped to
	// an owner.
	FetchPending(ctx context.Context, ownerID string) ([]journey.Journey, error)

	// FetchJourney returns a journey by id, or (nil, nil) when absent.
	FetchJourney(ctx context.Context, id string) (*journey.Journey, error)

	// UpdateSyncStatus transitions a journey's sync status and persists any
	// populated fields of the update.
	UpdateSyncStatus(ctx context.Context, id string, update journey.SyncUpdate) error

	// AppendHistory appends one immutable history entry.
	AppendHistory(ctx context.Context, entry journey.HistoryEntry) error

	// History returns history entries, newest first, optionally scoped to a
	// journey.
	History(ctx context.Context, journeyID string) ([]journey.HistoryEntry, error)
}

// IDGenerator produces history entry identities.
type IDGenerator interface {
	Generate() string
}

type uuidGen struct{}

func (uuidGen) Generate() string { return uuid.NewString() }

// Orchestrator is the single-writer batch driver. One instance owns its
// run-scoped statistics and its conflict registry; records are processed
// strictly sequentially because the remote API has a global rate ceiling that
// parallel requests would violate.
//
// Coordination between multiple orchestrator instances is a deployment
// concern (single active run per tenant); two interleaved runs over the same
// journey can corrupt version/lastSync.
type Orchestrator struct {
	store    Store
	api      remote.API
	mapper   remote.Mapper
	detector *conflict.Detector
	registry conflict.Registry
	limiter  *retry.Policy
	ids      IDGenerator
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDetector replaces the conflict detector.
func WithDetector(d *conflict.Detector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithRegistry replaces the conflict registry (e.g. the durable SQLite one).
func WithRegistry(r conflict.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithRetryPolicy replaces the remote-call retry policy.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(o *Orchestrator) { o.limiter = p }
}

// WithIDGenerator replaces the history identity source (tests use a fixed
// sequence).
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *Orchestrator) { o.ids = gen }
}

// WithNow replaces the time source.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator over the given collaborators with default
// detector, in-memory registry, and retry policy.
func New(store Store, api remote.API, mapper remote.Mapper, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		api:      api,
		mapper:   mapper,
		detector: conflict.NewDetector(),
		registry: conflict.NewMemoryRegistry(),
		limiter:  retry.New(),
		ids:      uuidGen{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry exposes the orchestrator's conflict registry for triage surfaces
// (CLI listing and resolution).
func (o *Orchestrator) Registry() conflict.Registry {
	return o.registry
}
