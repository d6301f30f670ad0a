package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialflow/dialflow/internal/adapters/memory"
	"github.com/dialflow/dialflow/pkg/domain"
	"github.com/dialflow/dialflow/pkg/session"
)

func newSession(callID string) *session.Session {
	return &session.Session{State: domain.NewCallState(callID, "wf", "start")}
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	r := session.NewRegistry()
	defer r.Close()

	factoryCalls := 0
	factory := func() (*session.Session, error) {
		factoryCalls++
		return newSession("CA1"), nil
	}

	first, created, err := r.GetOrCreate("CA1", factory)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := r.GetOrCreate("CA1", factory)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, 1, factoryCalls)
	assert.Equal(t, 1, r.Len())
}

func TestGetOrCreate_FactoryError(t *testing.T) {
	r := session.NewRegistry()
	defer r.Close()

	_, _, err := r.GetOrCreate("CA1", func() (*session.Session, error) {
		return nil, errors.New("unknown workflow")
	})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestWithTurn_SerializesTurns(t *testing.T) {
	r := session.NewRegistry()
	defer r.Close()

	sess, _, err := r.GetOrCreate("CA1", func() (*session.Session, error) {
		return newSession("CA1"), nil
	})
	require.NoError(t, err)

	// The counter is unsynchronized on purpose: only turn serialization
	// keeps this race-free.
	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.WithTurn(context.Background(), sess, func(context.Context) error {
				sess.State.TurnCount++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, turns, sess.State.TurnCount)
}

func TestWithTurn_SnapshotsToStore(t *testing.T) {
	store := memory.NewStore()
	r := session.NewRegistry(session.WithStore(store))
	defer r.Close()

	sess, _, err := r.GetOrCreate("CA1", func() (*session.Session, error) {
		return newSession("CA1"), nil
	})
	require.NoError(t, err)

	err = r.WithTurn(context.Background(), sess, func(context.Context) error {
		sess.State.Set("name", "Ada")
		sess.State.TurnCount = 3
		return nil
	})
	require.NoError(t, err)

	loaded, err := store.Load(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.TurnCount)
	assert.Equal(t, "Ada", loaded.Vars["name"])
}

func TestRemove_KeepsFinalSnapshot(t *testing.T) {
	store := memory.NewStore()
	r := session.NewRegistry(session.WithStore(store))
	defer r.Close()

	sess, _, err := r.GetOrCreate("CA1", func() (*session.Session, error) {
		return newSession("CA1"), nil
	})
	require.NoError(t, err)

	sess.State.Status = domain.StatusEnded
	r.Remove(context.Background(), "CA1")

	assert.Equal(t, 0, r.Len())
	_, ok := r.Get("CA1")
	assert.False(t, ok)

	loaded, err := store.Load(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, loaded.Status)
}

func TestJanitor_EvictsIdleSessions(t *testing.T) {
	r := session.NewRegistry(
		session.WithIdleTimeout(20*time.Millisecond),
		session.WithSweepInterval(10*time.Millisecond),
	)
	defer r.Close()

	sess, _, err := r.GetOrCreate("CA1", func() (*session.Session, error) {
		return newSession("CA1"), nil
	})
	require.NoError(t, err)

	evicted := make(chan struct{})
	var once sync.Once
	sess.SetEvictFunc(func() { once.Do(func() { close(evicted) }) })

	sess.State.LastActivityAt = time.Now().UTC().Add(-time.Minute)

	select {
	case <-evicted:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not evict the idle session")
	}

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, sess.State.Ended())
}
