// Package session tracks the live call sessions of the process: one entry
// per call id, created by the first setup event and disposed on terminal
// state or idle timeout.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dialflow/dialflow/internal/logging"
	"github.com/dialflow/dialflow/internal/metrics"
	"github.com/dialflow/dialflow/internal/runtime"
	"github.com/dialflow/dialflow/pkg/domain"
	"github.com/dialflow/dialflow/pkg/ports"
)

// Session pairs one call's mutable state with the interpreter for its
// workflow. The state is exclusively owned by the registry entry; protocol
// handlers hold only a borrowed reference for the life of one connection.
type Session struct {
	State  *domain.CallState
	Engine *runtime.Engine

	mu sync.Mutex

	// onEvict is invoked by the janitor when the session is removed for
	// inactivity, so the owning connection can close gracefully.
	onEvict func()
}

// SetEvictFunc registers the connection-close callback used on idle
// eviction. The callback must be safe to invoke from another goroutine.
func (s *Session) SetEvictFunc(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Registry is the process-wide map from call id to live session.
// Map mutation is the only globally synchronized operation; per-session
// turn serialization happens on the session lock.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store   ports.CallStore
	idleTTL time.Duration
	sweep   time.Duration
	logger  *slog.Logger

	done chan struct{}
	once sync.Once
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore enables call-state snapshot persistence.
func WithStore(store ports.CallStore) Option {
	return func(r *Registry) { r.store = store }
}

// WithIdleTimeout sets how long a session may stay inactive before the
// janitor evicts it. Zero disables eviction.
func WithIdleTimeout(ttl time.Duration) Option {
	return func(r *Registry) { r.idleTTL = ttl }
}

// WithSweepInterval sets how often the janitor scans for idle sessions.
func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.sweep = d
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry and starts its janitor when an
// idle timeout is configured.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		sweep:    30 * time.Second,
		logger:   logging.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.idleTTL > 0 {
		go r.janitor()
	}
	return r
}

// GetOrCreate returns the session for a call id, creating it with the
// factory on first sight. A setup retry for a known call id returns the
// existing session and created=false; the factory is not invoked.
func (r *Registry) GetOrCreate(callID string, create func() (*Session, error)) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[callID]; ok {
		return sess, false, nil
	}

	sess, err := create()
	if err != nil {
		return nil, false, err
	}
	r.sessions[callID] = sess
	metrics.ActiveCalls.Inc()
	return sess, true, nil
}

// Get returns the session for a call id, if registered.
func (r *Registry) Get(callID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[callID]
	return sess, ok
}

// Remove drops the session from the registry. The final state snapshot is
// kept in the store (when configured) for post-mortem inspection.
func (r *Registry) Remove(ctx context.Context, callID string) {
	r.mu.Lock()
	sess, ok := r.sessions[callID]
	if ok {
		delete(r.sessions, callID)
		metrics.ActiveCalls.Dec()
	}
	r.mu.Unlock()

	if ok && r.store != nil {
		if err := r.store.Save(ctx, callID, sess.State); err != nil {
			r.logger.Warn("failed to persist final call state", "call_id", callID, "err", err)
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// WithTurn serializes one turn against the session: no other turn for the
// same call may run concurrently, which is what keeps the variable store
// and graph position consistent.
func (r *Registry) WithTurn(ctx context.Context, sess *Session, fn func(context.Context) error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	if r.store != nil {
		if err := r.store.Save(ctx, sess.State.CallID, sess.State); err != nil {
			r.logger.Warn("failed to persist call state", "call_id", sess.State.CallID, "err", err)
		}
	}
	return nil
}

// Close stops the janitor. Live sessions are left to their connections.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.done) })
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

// evictIdle is a resource-exhaustion guard, not a protocol feature: calls
// that stopped producing events are ended and dropped.
func (r *Registry) evictIdle() {
	cutoff := time.Now().UTC().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*Session
	for _, sess := range r.sessions {
		if sess.State.LastActivityAt.Before(cutoff) {
			expired = append(expired, sess)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.mu.Lock()
		sess.State.Status = domain.StatusEnded
		evict := sess.onEvict
		sess.mu.Unlock()

		r.logger.Info("evicting idle call", "call_id", sess.State.CallID,
			"last_activity", sess.State.LastActivityAt)
		if evict != nil {
			evict()
		}
		r.Remove(context.Background(), sess.State.CallID)
	}
}
