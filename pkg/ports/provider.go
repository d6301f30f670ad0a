package ports

import (
	"context"

	"github.com/dialflow/dialflow/pkg/domain"
)

// AIProvider completes a conversation. Implementations must honor the
// context deadline and surface failures as returned errors, never panics:
// node execution is written to degrade politely on provider failure.
type AIProvider interface {
	Complete(ctx context.Context, system string, history []domain.Message) (string, error)
}

// AIProviderFunc adapts a function to the AIProvider interface.
type AIProviderFunc func(ctx context.Context, system string, history []domain.Message) (string, error)

// Complete implements AIProvider.
func (f AIProviderFunc) Complete(ctx context.Context, system string, history []domain.Message) (string, error) {
	return f(ctx, system, history)
}
