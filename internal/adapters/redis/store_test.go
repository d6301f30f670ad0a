package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialflow/dialflow/internal/adapters/redis"
	"github.com/dialflow/dialflow/pkg/domain"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client, opts...), mr
}

func TestStore_Roundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	state := domain.NewCallState("CA1", "greeter", "start")
	state.Status = domain.StatusActive
	state.Set("name", "Ada")
	state.TurnCount = 2

	require.NoError(t, store.Save(ctx, "CA1", state))

	loaded, err := store.Load(ctx, "CA1")
	require.NoError(t, err)
	assert.Equal(t, "CA1", loaded.CallID)
	assert.Equal(t, "greeter", loaded.WorkflowID)
	assert.Equal(t, domain.StatusActive, loaded.Status)
	assert.Equal(t, "Ada", loaded.Vars["name"])
	assert.Equal(t, 2, loaded.TurnCount)
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrCallNotFound)
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "CA1", domain.NewCallState("CA1", "wf", "start")))
	require.NoError(t, store.Delete(ctx, "CA1"))

	_, err := store.Load(ctx, "CA1")
	assert.ErrorIs(t, err, domain.ErrCallNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_List(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "CA1", domain.NewCallState("CA1", "wf", "start")))
	require.NoError(t, store.Save(ctx, "CA2", domain.NewCallState("CA2", "wf", "start")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CA1", "CA2"}, ids)
}

func TestStore_TTLExpiration(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "CA1", domain.NewCallState("CA1", "wf", "start")))

	mr.FastForward(2 * time.Second)

	_, err := store.Load(ctx, "CA1")
	assert.ErrorIs(t, err, domain.ErrCallNotFound)

	// Index pruning is score-based on wall-clock time.
	time.Sleep(1100 * time.Millisecond)
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_Prefix(t *testing.T) {
	store, mr := newTestStore(t, redis.WithPrefix("calls:test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "CA1", domain.NewCallState("CA1", "wf", "start")))
	assert.True(t, mr.Exists("calls:test:CA1"))
}
