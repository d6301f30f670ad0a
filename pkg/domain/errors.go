package domain

import (
	"errors"
	"fmt"
)

// ErrCallNotFound is returned when a call id cannot be found in the registry
// or a state store.
var ErrCallNotFound = errors.New("call not found")

// ErrProtocolViolation is returned when a connection breaks the frame
// ordering rules (e.g. a non-setup first frame).
var ErrProtocolViolation = errors.New("protocol violation")

// RouteError reports a graph configuration fault discovered at runtime:
// a node with no matching and no default edge, or a dangling target.
// It is fatal for the turn; the session is ended with an apology.
type RouteError struct {
	NodeID string
	Reason string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("no route from node %q: %s", e.NodeID, e.Reason)
}
