// Package file implements ports.GraphSource over a directory of YAML
// workflow definitions, one file per workflow id.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dialflow/dialflow/pkg/domain"
)

// Source loads and validates workflow graphs from <dir>/<workflowID>.yaml.
// Validated graphs are cached and shared read-only across sessions.
type Source struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*domain.Graph
}

// NewSource creates a graph source rooted at dir.
func NewSource(dir string) *Source {
	return &Source{
		dir:   dir,
		cache: make(map[string]*domain.Graph),
	}
}

// Graph returns the validated workflow for an id. Validation errors are
// fatal: a broken graph never reaches execution.
func (s *Source) Graph(ctx context.Context, workflowID string) (*domain.Graph, error) {
	if strings.ContainsAny(workflowID, `/\`) || workflowID == "" {
		return nil, fmt.Errorf("invalid workflow id %q", workflowID)
	}

	s.mu.RLock()
	graph, ok := s.cache[workflowID]
	s.mu.RUnlock()
	if ok {
		return graph, nil
	}

	path := filepath.Join(s.dir, workflowID+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %q: %w", workflowID, err)
	}

	graph, err = Parse(data)
	if err != nil {
		return nil, fmt.Errorf("workflow %q: %w", workflowID, err)
	}
	if graph.ID == "" {
		graph.ID = workflowID
	}

	s.mu.Lock()
	s.cache[workflowID] = graph
	s.mu.Unlock()
	return graph, nil
}

// Parse unmarshals and validates a workflow definition.
func Parse(data []byte) (*domain.Graph, error) {
	var graph domain.Graph
	if err := yaml.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("invalid workflow yaml: %w", err)
	}

	result := graph.Validate()
	if !result.OK() {
		return nil, fmt.Errorf("workflow validation failed: %s", strings.Join(result.Errors, "; "))
	}
	return &graph, nil
}
