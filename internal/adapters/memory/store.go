// Package memory implements ports.CallStore in process memory.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dialflow/dialflow/pkg/domain"
)

// Store keeps call-state snapshots in a map. Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Save persists a snapshot. States are serialized on write so callers
// cannot mutate stored snapshots through retained pointers.
func (s *Store) Save(ctx context.Context, callID string, state *domain.CallState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[callID] = data
	return nil
}

// Load retrieves a snapshot.
func (s *Store) Load(ctx context.Context, callID string) (*domain.CallState, error) {
	s.mu.RLock()
	data, ok := s.data[callID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrCallNotFound
	}

	var state domain.CallState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, callID)
	return nil
}

// List returns the stored call ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
