package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registeredConflict(t *testing.T, r Registry, id, journeyID string, policy Resolution) Conflict {
	t.Helper()
	c := Conflict{
		ID:         id,
		JourneyID:  journeyID,
		Type:       TypeExternalModification,
		Severity:   SeverityHigh,
		Policy:     policy,
		DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.Register(context.Background(), c))
	return c
}

func TestMemoryRegistry_RegisterAndList(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	registeredConflict(t, r, "c-1", "jny-1", ResolutionManual)
	registeredConflict(t, r, "c-2", "jny-1", ResolutionMerge)
	registeredConflict(t, r, "c-3", "jny-2", ResolutionAutoCreate)

	list, err := r.ListFor(ctx, "jny-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c-1", list[0].ID)
	assert.Equal(t, "c-2", list[1].ID)

	other, err := r.ListFor(ctx, "jny-404")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryRegistry_IsBlocking(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	registeredConflict(t, r, "c-1", "jny-1", ResolutionManual)
	registeredConflict(t, r, "c-2", "jny-2", ResolutionAutoOverwrite)

	blocking, err := r.IsBlocking(ctx, "jny-1")
	require.NoError(t, err)
	assert.True(t, blocking)

	// Non-manual policies never block.
	blocking, err = r.IsBlocking(ctx, "jny-2")
	require.NoError(t, err)
	assert.False(t, blocking)

	blocking, err = r.IsBlocking(ctx, "jny-404")
	require.NoError(t, err)
	assert.False(t, blocking)
}

func TestMemoryRegistry_ResolveUnblocks(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	registeredConflict(t, r, "c-1", "jny-1", ResolutionManual)

	require.NoError(t, r.Resolve(ctx, "c-1", ResolutionAutoOverwrite))

	blocking, err := r.IsBlocking(ctx, "jny-1")
	require.NoError(t, err)
	assert.False(t, blocking)

	// Resolution keeps the conflict as history, stamped and re-policied.
	list, err := r.ListFor(ctx, "jny-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].ResolvedAt)
	assert.Equal(t, ResolutionAutoOverwrite, list[0].Policy)
}

func TestMemoryRegistry_ResolveUnknownID(t *testing.T) {
	r := NewMemoryRegistry()
	err := r.Resolve(context.Background(), "nope", ResolutionManual)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRegistry_Unresolved(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	registeredConflict(t, r, "c-1", "jny-1", ResolutionManual)
	registeredConflict(t, r, "c-2", "jny-2", ResolutionMerge)
	require.NoError(t, r.Resolve(ctx, "c-2", ResolutionMerge))

	open, err := r.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "c-1", open[0].ID)
}

func TestMemoryRegistry_IsolatedInstances(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryRegistry()
	b := NewMemoryRegistry()

	registeredConflict(t, a, "c-1", "jny-1", ResolutionManual)

	blocking, err := b.IsBlocking(ctx, "jny-1")
	require.NoError(t, err)
	assert.False(t, blocking, "registries must not share state")
}
