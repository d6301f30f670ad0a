package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dialflow/dialflow/internal/logging"
	"github.com/dialflow/dialflow/internal/runtime"
	"github.com/dialflow/dialflow/pkg/domain"
	"github.com/dialflow/dialflow/pkg/intent"
	"github.com/dialflow/dialflow/pkg/ports"
	"github.com/dialflow/dialflow/pkg/session"
)

const (
	defaultHandshakeTimeout = 5 * time.Second
	defaultMaxFrameBytes    = 64 * 1024
)

// Handler serves the call-protocol websocket endpoint. One connection maps
// to one call; the workflow id is carried in the URL path.
type Handler struct {
	Graphs    ports.GraphSource
	Registry  *session.Registry
	Provider  ports.AIProvider
	HTTPC     ports.HTTPCaller
	Telephony ports.TelephonyControl
	Detector  *intent.Detector
	Logger    *slog.Logger

	HandshakeTimeout time.Duration
	MaxFrameBytes    int64
}

// Routes mounts the handler on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/relay/{workflowID}", h.ServeCall)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logging.NewNop()
}

// conn wraps the websocket with a write lock: turn responses are written
// from the connection goroutine while the janitor may write an eviction
// goodbye from its own.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeFrame(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) writeResponses(responses []domain.Response) error {
	for _, resp := range responses {
		data, err := EncodeResponse(resp)
		if err != nil {
			return err
		}
		if err := c.writeFrame(data); err != nil {
			return err
		}
	}
	return nil
}

func (c *conn) writeError(message string) {
	if data, err := EncodeResponse(domain.ErrorResponse{Message: message}); err == nil {
		_ = c.writeFrame(data)
	}
}

func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = c.ws.Close()
}

// ServeCall upgrades the connection and drives the session until the call
// ends or the connection drops.
func (h *Handler) ServeCall(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")
	log := h.logger().With("workflow_id", workflowID)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &conn{ws: ws}
	defer c.close()

	maxBytes := h.MaxFrameBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxFrameBytes
	}
	ws.SetReadLimit(maxBytes)

	// The first frame must be setup, within the handshake window.
	handshake := h.HandshakeTimeout
	if handshake <= 0 {
		handshake = defaultHandshakeTimeout
	}
	_ = ws.SetReadDeadline(time.Now().Add(handshake))
	_, first, err := ws.ReadMessage()
	if err != nil {
		log.Warn("failed to read setup frame", "err", err)
		return
	}
	_ = ws.SetReadDeadline(time.Time{})

	ev, err := DecodeEvent(first)
	if err != nil {
		log.Warn("rejecting malformed first frame", "err", err)
		c.writeError("first frame must be setup")
		return
	}
	setup, ok := ev.(domain.SetupEvent)
	if !ok {
		log.Warn("rejecting out-of-order first frame", "err", domain.ErrProtocolViolation)
		c.writeError("first frame must be setup")
		return
	}

	sess, err := h.establish(r.Context(), workflowID, setup)
	if err != nil {
		log.Error("failed to establish session", "call_id", setup.CallID, "err", err)
		c.writeError("workflow unavailable")
		return
	}
	log = log.With("call_id", setup.CallID)

	// Closing the connection cancels whatever external call the current
	// turn is waiting on.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess.SetEvictFunc(func() {
		if data, err := EncodeResponse(domain.EndResponse{Reason: "idle timeout"}); err == nil {
			_ = c.writeFrame(data)
		}
		cancel()
		c.close()
	})

	if h.runTurn(ctx, c, sess, setup, log) {
		h.Registry.Remove(context.Background(), setup.CallID)
		return
	}

	frames := make(chan []byte)
	go func() {
		defer cancel()
		defer close(frames)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug("connection read ended", "err", err)
				}
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for data := range frames {
		ev, err := DecodeEvent(data)
		if err != nil {
			// One bad frame never kills the connection.
			log.Warn("ignoring malformed frame", "err", err)
			c.writeError(err.Error())
			continue
		}
		if h.runTurn(ctx, c, sess, ev, log) {
			h.Registry.Remove(context.Background(), setup.CallID)
			return
		}
	}

	// Connection dropped without a terminal event.
	h.Registry.Remove(context.Background(), setup.CallID)
	log.Info("connection closed", "turns", sess.State.TurnCount)
}

// establish resolves the workflow graph and registers (or rejoins) the
// session for this call id. Setup retries reuse the existing session.
func (h *Handler) establish(ctx context.Context, workflowID string, setup domain.SetupEvent) (*session.Session, error) {
	sess, created, err := h.Registry.GetOrCreate(setup.CallID, func() (*session.Session, error) {
		graph, err := h.Graphs.Graph(ctx, workflowID)
		if err != nil {
			return nil, err
		}

		opts := []runtime.Option{
			runtime.WithAIProvider(h.Provider),
			runtime.WithHTTPCaller(h.HTTPC),
			runtime.WithTelephony(h.Telephony),
			runtime.WithLogger(h.Logger),
		}
		if h.Detector != nil {
			opts = append(opts, runtime.WithDetector(h.Detector))
		}

		return &session.Session{
			State:  domain.NewCallState(setup.CallID, workflowID, graph.Entry()),
			Engine: runtime.NewEngine(graph, opts...),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if !created {
		h.logger().Debug("setup retry for known call", "call_id", setup.CallID)
	}
	return sess, nil
}

// runTurn feeds one event through the interpreter under the session lock
// and writes the responses in order. Returns true when the session ended.
func (h *Handler) runTurn(ctx context.Context, c *conn, sess *session.Session, ev domain.Event, log *slog.Logger) bool {
	var responses []domain.Response
	err := h.Registry.WithTurn(ctx, sess, func(ctx context.Context) error {
		var err error
		switch ev := ev.(type) {
		case domain.SetupEvent:
			responses, err = sess.Engine.Setup(ctx, sess.State, ev)
		default:
			responses, err = sess.Engine.Turn(ctx, sess.State, ev)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrProtocolViolation) {
			c.writeError(err.Error())
			return false
		}
		if ctx.Err() != nil {
			// Connection is gone; nothing left to deliver.
			return true
		}
		log.Error("turn failed", "err", err)
		c.writeError("internal error")
		return sess.State.Ended()
	}

	if err := c.writeResponses(responses); err != nil {
		log.Debug("failed to deliver responses", "err", err)
		return true
	}
	return sess.State.Ended()
}
