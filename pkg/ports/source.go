package ports

import (
	"context"

	"github.com/dialflow/dialflow/pkg/domain"
)

// GraphSource supplies the validated workflow graph for a workflow id at
// session-setup time. The engine treats the returned graph as read-only.
type GraphSource interface {
	Graph(ctx context.Context, workflowID string) (*domain.Graph, error)
}
