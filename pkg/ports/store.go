package ports

import (
	"context"

	"github.com/dialflow/dialflow/pkg/domain"
)

// CallStore persists call-state snapshots. The registry writes a snapshot
// after each completed turn when a store is configured, so operators can
// inspect live and recently-ended calls.
type CallStore interface {
	// Save persists the state for a call id.
	Save(ctx context.Context, callID string, state *domain.CallState) error

	// Load retrieves the state for a call id.
	// Returns domain.ErrCallNotFound if the call does not exist.
	Load(ctx context.Context, callID string) (*domain.CallState, error)

	// Delete removes the state for a call id.
	Delete(ctx context.Context, callID string) error

	// List returns the ids of stored calls.
	List(ctx context.Context) ([]string, error)
}
