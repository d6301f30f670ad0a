package dialflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/dialflow/dialflow/internal/adapters/file"
	"github.com/dialflow/dialflow/internal/logging"
	"github.com/dialflow/dialflow/internal/runtime"
	"github.com/dialflow/dialflow/pkg/domain"
	"github.com/dialflow/dialflow/pkg/intent"
	"github.com/dialflow/dialflow/pkg/ports"
	"github.com/dialflow/dialflow/pkg/session"
)

// Service is the high-level entry point for embedding the call engine
// without the websocket transport: the host feeds protocol events in and
// delivers the responses over whatever channel it owns.
type Service struct {
	source    ports.GraphSource
	store     ports.CallStore
	provider  ports.AIProvider
	httpc     ports.HTTPCaller
	telephony ports.TelephonyControl
	detector  *intent.Detector
	logger    *slog.Logger
	idleTTL   time.Duration

	registry *session.Registry
}

// Option configures a Service.
type Option func(*Service)

// WithGraphSource injects a custom workflow source, bypassing the default
// directory loader.
func WithGraphSource(src ports.GraphSource) Option {
	return func(s *Service) { s.source = src }
}

// WithStore enables call-state snapshot persistence.
func WithStore(store ports.CallStore) Option {
	return func(s *Service) { s.store = store }
}

// WithAIProvider sets the provider used by ai nodes and the detector
// fallback.
func WithAIProvider(p ports.AIProvider) Option {
	return func(s *Service) { s.provider = p }
}

// WithHTTPCaller sets the collaborator used by api_request nodes.
func WithHTTPCaller(c ports.HTTPCaller) Option {
	return func(s *Service) { s.httpc = c }
}

// WithTelephony sets the call-control collaborator.
func WithTelephony(t ports.TelephonyControl) Option {
	return func(s *Service) { s.telephony = t }
}

// WithDetector replaces the default termination-intent detector.
func WithDetector(d *intent.Detector) Option {
	return func(s *Service) { s.detector = d }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIdleTimeout evicts sessions with no activity for this long.
func WithIdleTimeout(ttl time.Duration) Option {
	return func(s *Service) { s.idleTTL = ttl }
}

// New creates a Service reading workflows from workflowDir. The directory
// may be empty when WithGraphSource is provided.
func New(workflowDir string, opts ...Option) *Service {
	s := &Service{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = file.NewSource(workflowDir)
	}
	if s.detector == nil {
		var detectorOpts []intent.Option
		if s.provider != nil {
			detectorOpts = append(detectorOpts, intent.WithProvider(s.provider))
		}
		s.detector = intent.NewDetector(detectorOpts...)
	}

	registryOpts := []session.Option{
		session.WithLogger(s.logger),
		session.WithIdleTimeout(s.idleTTL),
	}
	if s.store != nil {
		registryOpts = append(registryOpts, session.WithStore(s.store))
	}
	s.registry = session.NewRegistry(registryOpts...)
	return s
}

// StartCall begins (or idempotently rejoins) a session for the setup event
// and returns the opening responses of the workflow.
func (s *Service) StartCall(ctx context.Context, workflowID string, setup domain.SetupEvent) ([]domain.Response, error) {
	sess, _, err := s.registry.GetOrCreate(setup.CallID, func() (*session.Session, error) {
		graph, err := s.source.Graph(ctx, workflowID)
		if err != nil {
			return nil, err
		}
		return &session.Session{
			State: domain.NewCallState(setup.CallID, workflowID, graph.Entry()),
			Engine: runtime.NewEngine(graph,
				runtime.WithDetector(s.detector),
				runtime.WithAIProvider(s.provider),
				runtime.WithHTTPCaller(s.httpc),
				runtime.WithTelephony(s.telephony),
				runtime.WithLogger(s.logger),
			),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	var responses []domain.Response
	err = s.registry.WithTurn(ctx, sess, func(ctx context.Context) error {
		responses, err = sess.Engine.Setup(ctx, sess.State, setup)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sess.State.Ended() {
		s.registry.Remove(ctx, setup.CallID)
	}
	return responses, nil
}

// HandleEvent runs one inbound event against a live call. The session is
// disposed automatically once it reaches its terminal state.
func (s *Service) HandleEvent(ctx context.Context, callID string, ev domain.Event) ([]domain.Response, error) {
	sess, ok := s.registry.Get(callID)
	if !ok {
		return nil, domain.ErrCallNotFound
	}

	var responses []domain.Response
	err := s.registry.WithTurn(ctx, sess, func(ctx context.Context) error {
		var err error
		responses, err = sess.Engine.Turn(ctx, sess.State, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sess.State.Ended() {
		s.registry.Remove(ctx, callID)
	}
	return responses, nil
}

// EndCall force-ends a session, keeping its final snapshot when a store is
// configured.
func (s *Service) EndCall(ctx context.Context, callID string) {
	if sess, ok := s.registry.Get(callID); ok {
		sess.State.Status = domain.StatusEnded
	}
	s.registry.Remove(ctx, callID)
}

// ActiveCalls returns how many sessions are currently live.
func (s *Service) ActiveCalls() int {
	return s.registry.Len()
}

// Close stops background maintenance. Live sessions are left to their
// owners.
func (s *Service) Close() {
	s.registry.Close()
}
