package runtime

import (
	"context"
	"time"

	"github.com/dialflow/dialflow/internal/metrics"
	"github.com/dialflow/dialflow/pkg/domain"
	"github.com/dialflow/dialflow/pkg/expr"
)

// runForward walks the graph from the current node until the session needs
// caller input, ends, or hits the hop limit. Silent nodes chain within the
// turn; every spoken message is appended to the outbound responses in
// execution order.
func (e *Engine) runForward(ctx context.Context, state *domain.CallState) ([]domain.Response, error) {
	var out []domain.Response

	for hops := 0; hops < e.hopLimit; hops++ {
		if err := ctx.Err(); err != nil {
			// Connection is gone; no further response will be delivered.
			state.Status = domain.StatusEnded
			return nil, err
		}

		node := e.graph.NodeByID(state.CurrentNodeID)
		if node == nil {
			return e.failTurn(state, out, &domain.RouteError{
				NodeID: state.CurrentNodeID, Reason: "node missing from graph",
			}), nil
		}

		start := time.Now()
		metrics.NodeExecutions.WithLabelValues(string(node.Kind)).Inc()

		responses, done, err := e.executeNode(ctx, state, node)
		metrics.NodeDuration.WithLabelValues(string(node.Kind)).Observe(time.Since(start).Seconds())
		if err != nil {
			return e.failTurn(state, out, err), nil
		}
		out = append(out, responses...)
		if done {
			return out, nil
		}
	}

	return e.failTurn(state, out, &domain.RouteError{
		NodeID: state.CurrentNodeID, Reason: "hop limit exceeded, graph likely cycles through silent nodes",
	}), nil
}

// executeNode runs one node's semantics. done=true stops the turn: the
// session is waiting for the caller or has ended.
func (e *Engine) executeNode(ctx context.Context, state *domain.CallState, node *domain.Node) ([]domain.Response, bool, error) {
	e.logger.Debug("executing node", "call_id", state.CallID, "node", node.ID, "kind", node.Kind)

	switch node.Kind {
	case domain.KindStart:
		return nil, false, e.advance(state, node)

	case domain.KindPlayAudio:
		var cfg domain.PlayAudioConfig
		if err := node.DecodeConfig(&cfg); err != nil {
			return nil, false, err
		}
		text := expr.Render(cfg.Message, state.Vars)
		return []domain.Response{domain.TextResponse{Content: text, Last: true}},
			false, e.advance(state, node)

	case domain.KindGather:
		return e.executeGather(state, node)

	case domain.KindAi:
		return e.executeAi(ctx, state, node)

	case domain.KindLogic:
		var cfg domain.LogicConfig
		if err := node.DecodeConfig(&cfg); err != nil {
			return nil, false, err
		}
		value, err := expr.Eval(cfg.Expression, state.Vars)
		if err != nil {
			// A broken expression must not strand the call mid-graph.
			e.logger.Warn("logic expression failed", "call_id", state.CallID, "node", node.ID, "err", err)
		} else if cfg.SaveTo != "" {
			state.Set(cfg.SaveTo, value)
		}
		return nil, false, e.advance(state, node)

	case domain.KindBranch:
		return nil, false, e.advance(state, node)

	case domain.KindApiRequest:
		return e.executeApiRequest(ctx, state, node)

	case domain.KindTransferCall:
		return e.executeTransfer(ctx, state, node)

	case domain.KindEnd:
		out, err := e.executeEnd(ctx, state, node)
		return out, true, err

	default:
		return nil, false, &domain.RouteError{NodeID: node.ID, Reason: "unknown node kind"}
	}
}

// executeGather speaks the prompt once, then waits. The answer is consumed
// by the next input turn, which stores it and advances past this node.
func (e *Engine) executeGather(state *domain.CallState, node *domain.Node) ([]domain.Response, bool, error) {
	if state.Prompted {
		return nil, true, nil
	}
	var cfg domain.GatherConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, false, err
	}
	state.Prompted = true
	prompt := expr.Render(cfg.Prompt, state.Vars)
	return []domain.Response{domain.TextResponse{Content: prompt, Last: true}}, true, nil
}

// executeAi sends the conversation to the provider and speaks its reply.
// Provider failure is recoverable: the caller hears a fallback message and
// the node is retried on the next turn.
func (e *Engine) executeAi(ctx context.Context, state *domain.CallState, node *domain.Node) ([]domain.Response, bool, error) {
	var cfg domain.AiConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, false, err
	}

	if e.provider == nil {
		e.logger.Error("ai node reached but no provider configured", "call_id", state.CallID, "node", node.ID)
		return []domain.Response{domain.TextResponse{Content: e.aiFallback(cfg), Last: true}}, true, nil
	}

	system := expr.Render(cfg.SystemPrompt, state.Vars)
	reply, err := e.provider.Complete(ctx, system, state.History)
	if err != nil {
		if ctx.Err() != nil {
			state.Status = domain.StatusEnded
			return nil, true, ctx.Err()
		}
		e.logger.Warn("ai provider failed, staying on node", "call_id", state.CallID, "node", node.ID, "err", err)
		return []domain.Response{domain.TextResponse{Content: e.aiFallback(cfg), Last: true}}, true, nil
	}

	state.History = append(state.History, domain.Message{Role: "assistant", Content: reply})
	if err := e.advance(state, node); err != nil {
		return nil, false, err
	}
	// The reply invites the caller to speak; one AI completion per turn.
	return []domain.Response{domain.TextResponse{Content: reply, Last: true}}, true, nil
}

func (e *Engine) aiFallback(cfg domain.AiConfig) string {
	if cfg.FallbackMessage != "" {
		return cfg.FallbackMessage
	}
	return genericAiRetry
}

// executeApiRequest performs the node's outbound HTTP call. Failures store
// an error marker instead of aborting the turn.
func (e *Engine) executeApiRequest(ctx context.Context, state *domain.CallState, node *domain.Node) ([]domain.Response, bool, error) {
	var cfg domain.ApiRequestConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, false, err
	}

	if e.httpc == nil {
		e.logger.Error("api_request node reached but no http caller configured",
			"call_id", state.CallID, "node", node.ID)
		e.storeApiFailure(state, cfg, "no http caller configured")
		return nil, false, e.advance(state, node)
	}

	url := expr.Render(cfg.URL, state.Vars)
	body := expr.Render(cfg.Body, state.Vars)
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = expr.Render(v, state.Vars)
	}

	result, err := e.httpc.Request(ctx, cfg.Method, url, headers, []byte(body))
	if err != nil {
		if ctx.Err() != nil {
			state.Status = domain.StatusEnded
			return nil, true, ctx.Err()
		}
		e.logger.Warn("api_request failed", "call_id", state.CallID, "node", node.ID, "url", url, "err", err)
		e.storeApiFailure(state, cfg, err.Error())
		return nil, false, e.advance(state, node)
	}

	if cfg.SaveTo != "" {
		state.Set(cfg.SaveTo, extractResponse(result.Body, cfg.Extract))
		state.Set(cfg.SaveTo+"_status", result.Status)
	}
	return nil, false, e.advance(state, node)
}

func (e *Engine) storeApiFailure(state *domain.CallState, cfg domain.ApiRequestConfig, msg string) {
	if cfg.SaveTo != "" {
		state.Set(cfg.SaveTo+"_error", msg)
	}
}

// executeTransfer speaks the hold message, asks the telephony collaborator
// to move the call, and ends the session once the transfer is accepted.
func (e *Engine) executeTransfer(ctx context.Context, state *domain.CallState, node *domain.Node) ([]domain.Response, bool, error) {
	var cfg domain.TransferConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, false, err
	}

	target := expr.Render(cfg.Target, state.Vars)
	message := genericTransfer
	if cfg.Message != "" {
		message = expr.Render(cfg.Message, state.Vars)
	}

	if e.telephony != nil {
		if err := e.telephony.Transfer(ctx, state.CallID, target); err != nil {
			if ctx.Err() != nil {
				state.Status = domain.StatusEnded
				return nil, true, ctx.Err()
			}
			e.logger.Warn("transfer failed, staying on node",
				"call_id", state.CallID, "node", node.ID, "target", target, "err", err)
			return []domain.Response{domain.TextResponse{Content: transferApology, Last: true}}, true, nil
		}
	}

	e.logger.Info("call transferred", "call_id", state.CallID, "target", target)
	state.Status = domain.StatusEnded
	return []domain.Response{
		domain.TextResponse{Content: message, Last: true},
		domain.EndResponse{Reason: "transferred to " + target},
	}, true, nil
}

// executeEnd speaks the farewell and terminates the session.
func (e *Engine) executeEnd(ctx context.Context, state *domain.CallState, node *domain.Node) ([]domain.Response, error) {
	var cfg domain.EndConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, err
	}

	state.Status = domain.StatusEnded

	message := genericGoodbye
	if cfg.Message != "" {
		message = expr.Render(cfg.Message, state.Vars)
	}

	if e.telephony != nil {
		// Best effort: the end frame already asks the provider to hang up.
		if err := e.telephony.Hangup(ctx, state.CallID); err != nil {
			e.logger.Debug("hangup command failed", "call_id", state.CallID, "err", err)
		}
	}

	return []domain.Response{
		domain.TextResponse{Content: message, Last: true},
		domain.EndResponse{Reason: "flow completed"},
	}, nil
}
