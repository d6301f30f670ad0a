package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialflow/dialflow/internal/adapters/memory"
	"github.com/dialflow/dialflow/pkg/domain"
)

func TestStore_Roundtrip(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	state := domain.NewCallState("CA1", "greeter", "start")
	state.Set("name", "Ada")
	require.NoError(t, store.Save(ctx, "CA1", state))

	loaded, err := store.Load(ctx, "CA1")
	require.NoError(t, err)
	assert.Equal(t, "CA1", loaded.CallID)
	assert.Equal(t, "Ada", loaded.Vars["name"])
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	state := domain.NewCallState("CA1", "wf", "start")
	state.TurnCount = 1
	require.NoError(t, store.Save(ctx, "CA1", state))

	// Mutating after save must not leak into the stored snapshot.
	state.TurnCount = 99

	loaded, err := store.Load(ctx, "CA1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TurnCount)
}

func TestStore_LoadMissing(t *testing.T) {
	store := memory.NewStore()

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrCallNotFound)
}

func TestStore_DeleteAndList(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "CA1", domain.NewCallState("CA1", "wf", "start")))
	require.NoError(t, store.Save(ctx, "CA2", domain.NewCallState("CA2", "wf", "start")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CA1", "CA2"}, ids)

	require.NoError(t, store.Delete(ctx, "CA1"))
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CA2"}, ids)
}
