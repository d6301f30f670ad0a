package runtime

import (
	"context"
	"fmt"

	"github.com/dialflow/dialflow/internal/metrics"
	"github.com/dialflow/dialflow/pkg/domain"
)

// Setup activates a fresh session: call metadata is captured into the
// variable scope and the graph runs forward from the entry node until it
// needs caller input (or ends).
func (e *Engine) Setup(ctx context.Context, state *domain.CallState, ev domain.SetupEvent) ([]domain.Response, error) {
	if state.Status != domain.StatusAwaitingSetup {
		// Provider retried the handshake; the session already ran its
		// entry sequence, so there is nothing new to say.
		return nil, nil
	}

	state.Set("call_id", ev.CallID)
	state.Set("from", ev.From)
	state.Set("to", ev.To)
	state.Set("direction", ev.Direction)
	state.Status = domain.StatusActive
	state.Touch()

	metrics.CallsStarted.Inc()
	e.logger.Info("call started", "call_id", ev.CallID, "from", ev.From, "to", ev.To)

	return e.runForward(ctx, state)
}

// Turn processes one inbound event against the session. Responses are
// produced if and only if the event warrants them; an ended session
// acknowledges everything silently.
func (e *Engine) Turn(ctx context.Context, state *domain.CallState, ev domain.Event) ([]domain.Response, error) {
	if state.Ended() {
		return nil, nil
	}
	if state.Status == domain.StatusAwaitingSetup {
		return nil, fmt.Errorf("%w: event before setup", domain.ErrProtocolViolation)
	}

	switch ev := ev.(type) {
	case domain.PromptEvent:
		return e.promptTurn(ctx, state, ev)
	case domain.DtmfEvent:
		return e.inputTurn(ctx, state, ev.Digit)
	case domain.InterruptEvent:
		// Barge-in carries no graph transition; the next prompt starts a
		// fresh turn instead of continuing the interrupted output.
		state.Interrupted = true
		state.Touch()
		e.logger.Debug("caller barge-in", "call_id", state.CallID, "reason", ev.Reason)
		return nil, nil
	case domain.ErrorEvent:
		e.logger.Warn("provider reported error", "call_id", state.CallID, "kind", ev.Kind, "err", ev.Message)
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unsupported event %T", domain.ErrProtocolViolation, ev)
	}
}

func (e *Engine) promptTurn(ctx context.Context, state *domain.CallState, ev domain.PromptEvent) ([]domain.Response, error) {
	state.Interrupted = false

	if c := e.detector.Classify(ctx, ev.Text, state.History); c.EndIntent {
		metrics.TerminationIntents.WithLabelValues(c.MatchedRule).Inc()
		e.logger.Info("termination intent detected",
			"call_id", state.CallID, "rule", c.MatchedRule, "confidence", c.Confidence)
		state.History = append(state.History, domain.Message{Role: "user", Content: ev.Text})
		return e.divertToEnd(ctx, state), nil
	}

	return e.inputTurn(ctx, state, ev.Text)
}

// inputTurn handles a caller answer (utterance or DTMF digit): resolve a
// pending gather, then run the graph forward until it waits again.
func (e *Engine) inputTurn(ctx context.Context, state *domain.CallState, input string) ([]domain.Response, error) {
	state.TurnCount++
	state.Touch()
	state.Set("last_input", input)
	state.History = append(state.History, domain.Message{Role: "user", Content: input})

	node := e.graph.NodeByID(state.CurrentNodeID)
	if node == nil {
		return e.failTurn(state, nil, &domain.RouteError{
			NodeID: state.CurrentNodeID, Reason: "current node missing from graph",
		}), nil
	}

	if node.Kind == domain.KindGather && state.Prompted {
		var cfg domain.GatherConfig
		if err := node.DecodeConfig(&cfg); err != nil {
			return e.failTurn(state, nil, err), nil
		}
		if cfg.SaveTo != "" {
			state.Set(cfg.SaveTo, input)
		}
		state.Prompted = false
		if err := e.advance(state, node); err != nil {
			return e.failTurn(state, nil, err), nil
		}
	}

	return e.runForward(ctx, state)
}

// divertToEnd routes a session to its farewell when the caller asked to
// hang up, regardless of where the graph currently stands.
func (e *Engine) divertToEnd(ctx context.Context, state *domain.CallState) []domain.Response {
	state.TurnCount++
	state.Touch()

	endNode := e.locateEndNode(state.CurrentNodeID)
	if endNode == nil {
		state.Status = domain.StatusEnded
		return []domain.Response{
			domain.TextResponse{Content: genericGoodbye, Last: true},
			domain.EndResponse{Reason: goodbyeEndReason},
		}
	}

	state.CurrentNodeID = endNode.ID
	out, err := e.executeEnd(ctx, state, endNode)
	if err != nil {
		return e.failTurn(state, nil, err)
	}
	return out
}

// locateEndNode prefers an end node directly reachable from the current
// node, then a configured fallback, then the first end node in declared
// order.
func (e *Engine) locateEndNode(fromID string) *domain.Node {
	for _, edge := range e.graph.NextEdges(fromID) {
		if t := e.graph.NodeByID(edge.To); t != nil && t.Kind == domain.KindEnd {
			return t
		}
	}
	if e.fallbackEndNodeID != "" {
		if n := e.graph.NodeByID(e.fallbackEndNodeID); n != nil && n.Kind == domain.KindEnd {
			return n
		}
	}
	return e.graph.EndNodeNear(fromID)
}

// failTurn handles a graph configuration fault: the caller gets a polite
// goodbye instead of a silent stall, the session ends, and the fault is
// logged for operator diagnosis.
func (e *Engine) failTurn(state *domain.CallState, sofar []domain.Response, cause error) []domain.Response {
	e.logger.Error("turn failed, ending session",
		"call_id", state.CallID, "node", state.CurrentNodeID, "err", cause)
	state.Status = domain.StatusEnded
	return append(sofar,
		domain.TextResponse{Content: genericApology, Last: true},
		domain.EndResponse{Reason: "configuration error"},
	)
}
