// Package remote defines the collaborator surface toward the external
// workflow engine: the entity shape the engine exposes, the narrow API the
// reconciliation core consumes, and the mapper that projects a local journey
// into the wire payload.
package remote

import (
	"context"
	"time"
)

// Entity is the external system's representation of a synchronized journey.
type Entity struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	UpdatedAt time.Time    `json:"updated_at"`
	Steps     []EntityStep `json:"steps"`
	Settings  Settings     `json:"settings"`
}

// Settings carries engine-side metadata echoed back to us.
type Settings struct {
	// RecordVersion echoes the journey's version at last push. Zero when the
	// entity was never pushed by this system.
	RecordVersion int `json:"record_version,omitempty"`
}

// EntityStep is the external step representation.
type EntityStep struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Delay     int    `json:"delay"`
	DelayUnit string `json:"delay_unit"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Payload is the write-side shape for create and update calls. The whole
// ordered step list is pushed together; there is no partial-step sync.
type Payload struct {
	Name     string       `json:"name"`
	Steps    []EntityStep `json:"steps"`
	Settings Settings     `json:"settings"`
}

// API is the remote workflow engine surface the orchestrator talks to.
// Every call may suspend; create and update may fail with a rate-limit
// signal (retry.RateLimitError) which the retry policy handles.
type API interface {
	// FetchEntity returns the entity, or (nil, nil) when the remote side has
	// no entity under that id. Not-found is a state, not an error.
	FetchEntity(ctx context.Context, remoteID string) (*Entity, error)

	// CreateEntity creates a new entity and returns its remote id.
	CreateEntity(ctx context.Context, payload Payload) (string, error)

	// UpdateEntity replaces the entity under remoteID with the payload.
	UpdateEntity(ctx context.Context, remoteID string, payload Payload) error

	// DeleteEntity removes the entity. Used by manual rollback only.
	DeleteEntity(ctx context.Context, remoteID string) error
}
