// Package runtime implements the workflow interpreter: the per-call state
// machine that walks a validated graph one turn at a time, executing node
// semantics and producing outbound protocol responses.
package runtime

import (
	"log/slog"

	"github.com/dialflow/dialflow/internal/logging"
	"github.com/dialflow/dialflow/pkg/domain"
	"github.com/dialflow/dialflow/pkg/intent"
	"github.com/dialflow/dialflow/pkg/ports"
)

const (
	// defaultHopLimit bounds how many nodes a single turn may traverse, so
	// a cyclic graph of silent nodes cannot spin forever inside one turn.
	defaultHopLimit = 32

	genericGoodbye   = "Thanks for calling. Goodbye!"
	genericApology   = "I'm sorry, something went wrong on our side. I'll end the call here. Goodbye."
	genericAiRetry   = "I'm sorry, I'm having trouble answering right now. Could you say that again?"
	genericTransfer  = "Please hold while I transfer your call."
	transferApology  = "I'm sorry, I couldn't transfer your call just now. Is there anything else I can help with?"
	goodbyeEndReason = "caller requested hangup"
)

// Engine interprets one workflow graph. It is safe to share across the
// sessions executing that graph: the graph is read-only and all mutable
// call state is passed in per turn.
type Engine struct {
	graph     *domain.Graph
	detector  *intent.Detector
	provider  ports.AIProvider
	httpc     ports.HTTPCaller
	telephony ports.TelephonyControl
	logger    *slog.Logger

	hopLimit          int
	fallbackEndNodeID string
}

// Option configures an Engine.
type Option func(*Engine)

// WithDetector sets the termination-intent detector.
func WithDetector(d *intent.Detector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithAIProvider sets the provider used by ai nodes.
func WithAIProvider(p ports.AIProvider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithHTTPCaller sets the collaborator used by api_request nodes.
func WithHTTPCaller(c ports.HTTPCaller) Option {
	return func(e *Engine) { e.httpc = c }
}

// WithTelephony sets the call-control collaborator used by transfer nodes.
func WithTelephony(t ports.TelephonyControl) Option {
	return func(e *Engine) { e.telephony = t }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHopLimit overrides the per-turn node traversal bound.
func WithHopLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.hopLimit = n
		}
	}
}

// WithFallbackEndNode pins the end node used for termination-intent
// diversion when none is directly reachable from the current node.
func WithFallbackEndNode(nodeID string) Option {
	return func(e *Engine) { e.fallbackEndNodeID = nodeID }
}

// NewEngine creates an interpreter for a validated graph.
func NewEngine(graph *domain.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:    graph,
		detector: intent.NewDetector(),
		logger:   logging.NewNop(),
		hopLimit: defaultHopLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the read-only workflow this engine interprets.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}
