package domain

// Edge is a directed connection between two nodes.
// A non-empty Condition makes the edge guarded: it is only taken when the
// condition evaluates to true against the session variables. An edge with
// an empty Condition is the default path, evaluated after all guards.
type Edge struct {
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Guarded reports whether the edge carries a condition.
func (e Edge) Guarded() bool {
	return e.Condition != ""
}
