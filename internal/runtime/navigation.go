package runtime

import (
	"github.com/dialflow/dialflow/pkg/domain"
	"github.com/dialflow/dialflow/pkg/expr"
)

// advance moves the session along the node's outgoing edges: first guarded
// edge whose condition holds wins, else the default edge. No candidate is
// a graph configuration error surfaced as a RouteError.
func (e *Engine) advance(state *domain.CallState, node *domain.Node) error {
	edges := e.graph.NextEdges(node.ID)
	if len(edges) == 0 {
		return &domain.RouteError{NodeID: node.ID, Reason: "no outgoing edges"}
	}

	for _, edge := range edges {
		if !edge.Guarded() {
			state.CurrentNodeID = edge.To
			return nil
		}
		ok, err := expr.EvalBool(edge.Condition, state.Vars)
		if err != nil {
			// A broken guard never matches; a later guard or the default
			// edge may still route the call.
			e.logger.Warn("edge condition failed",
				"call_id", state.CallID, "node", node.ID, "condition", edge.Condition, "err", err)
			continue
		}
		if ok {
			state.CurrentNodeID = edge.To
			return nil
		}
	}

	return &domain.RouteError{NodeID: node.ID, Reason: "no edge condition matched and no default edge"}
}
