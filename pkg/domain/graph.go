package domain

import "fmt"

// Graph is a validated workflow: nodes plus directed, possibly guarded
// edges, entered at a single start node. A Graph is immutable after
// validation and is shared read-only by every call session executing it.
type Graph struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`

	index map[string]*Node
	out   map[string][]Edge
}

// ValidationResult carries the outcome of Graph.Validate. Errors prevent
// execution; warnings do not.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the graph is executable.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks structural invariants and builds the internal lookup
// indexes. It must be called (and return OK) before the graph is executed.
// Cycles are allowed: conversational flows may loop.
func (g *Graph) Validate() ValidationResult {
	var res ValidationResult

	g.index = make(map[string]*Node, len(g.Nodes))
	g.out = make(map[string][]Edge, len(g.Nodes))

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			res.errorf("node at position %d has no id", i)
			continue
		}
		if _, dup := g.index[n.ID]; dup {
			res.errorf("duplicate node id %q", n.ID)
			continue
		}
		if !n.Kind.Valid() {
			res.errorf("node %q has unknown kind %q", n.ID, n.Kind)
		}
		g.index[n.ID] = n
	}

	var entry string
	for i := range g.Nodes {
		if g.Nodes[i].Kind != KindStart {
			continue
		}
		if entry != "" {
			res.errorf("multiple start nodes: %q and %q", entry, g.Nodes[i].ID)
			continue
		}
		entry = g.Nodes[i].ID
	}
	if entry == "" {
		res.errorf("graph has no start node")
	}

	for _, e := range g.Edges {
		if _, ok := g.index[e.From]; !ok {
			res.errorf("edge references missing source node %q", e.From)
			continue
		}
		if _, ok := g.index[e.To]; !ok {
			res.errorf("edge %s -> %s references missing target node %q", e.From, e.To, e.To)
			continue
		}
		g.out[e.From] = append(g.out[e.From], e)
	}

	for i := range g.Nodes {
		n := g.Nodes[i]
		edges := g.out[n.ID]
		switch n.Kind {
		case KindEnd:
			if len(edges) > 0 {
				res.errorf("end node %q must not have outgoing edges", n.ID)
			}
		case KindBranch:
			if len(edges) == 0 {
				res.errorf("branch node %q has no outgoing edges", n.ID)
			}
			defaults := 0
			for _, e := range edges {
				if !e.Guarded() {
					defaults++
				}
			}
			if defaults > 1 {
				res.errorf("branch node %q has %d default edges, at most one allowed", n.ID, defaults)
			}
		case KindLogic:
			// Logic nodes may carry guards like branches.
		default:
			if len(edges) > 1 {
				res.errorf("node %q (kind %s) has %d outgoing edges, at most one allowed", n.ID, n.Kind, len(edges))
			}
			if len(edges) == 1 && edges[0].Guarded() {
				res.errorf("node %q (kind %s) must not have a guarded edge", n.ID, n.Kind)
			}
		}
	}

	if entry != "" && len(res.Errors) == 0 {
		reachable := g.reachableFrom(entry)
		for i := range g.Nodes {
			if !reachable[g.Nodes[i].ID] {
				res.warnf("node %q is unreachable from start", g.Nodes[i].ID)
			}
		}
	}

	return res
}

func (g *Graph) reachableFrom(start string) map[string]bool {
	visited := make(map[string]bool, len(g.Nodes))
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, e := range g.out[id] {
			if !visited[e.To] {
				queue = append(queue, e.To)
			}
		}
	}
	return visited
}

// Entry returns the id of the start node. Valid only after Validate.
func (g *Graph) Entry() string {
	for i := range g.Nodes {
		if g.Nodes[i].Kind == KindStart {
			return g.Nodes[i].ID
		}
	}
	return ""
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	if g.index == nil {
		return nil
	}
	return g.index[id]
}

// NextEdges returns the outgoing edges of a node in evaluation order:
// guarded edges first, in author-declared order, then the default edge.
// The interpreter takes the first edge whose guard holds, so this ordering
// makes tie-breaking deterministic.
func (g *Graph) NextEdges(nodeID string) []Edge {
	edges := g.out[nodeID]
	if len(edges) < 2 {
		return edges
	}
	ordered := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Guarded() {
			ordered = append(ordered, e)
		}
	}
	for _, e := range edges {
		if !e.Guarded() {
			ordered = append(ordered, e)
		}
	}
	return ordered
}

// EndNodeNear locates an end node for early termination: the target of an
// outgoing edge of fromID if that target is an end node, otherwise the
// first end node in declared order, otherwise nil.
func (g *Graph) EndNodeNear(fromID string) *Node {
	for _, e := range g.out[fromID] {
		if t := g.index[e.To]; t != nil && t.Kind == KindEnd {
			return t
		}
	}
	for i := range g.Nodes {
		if g.Nodes[i].Kind == KindEnd {
			return &g.Nodes[i]
		}
	}
	return nil
}
