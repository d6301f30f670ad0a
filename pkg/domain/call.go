package domain

import "time"

// CallStatus is the lifecycle phase of a call session.
type CallStatus string

const (
	// StatusAwaitingSetup means the connection is open but no setup frame
	// has arrived yet.
	StatusAwaitingSetup CallStatus = "awaiting_setup"
	// StatusActive means the call is live and turns are being processed.
	StatusActive CallStatus = "active"
	// StatusEnded is terminal. Further inbound events are acknowledged
	// but produce no new responses.
	StatusEnded CallStatus = "ended"
)

// Message is one entry of the conversation history threaded into ai nodes.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CallState is the mutable execution context of one live call. It is
// exclusively owned by its registry entry; the interpreter mutates it one
// turn at a time, so no internal locking is needed.
type CallState struct {
	CallID     string `json:"call_id"`
	WorkflowID string `json:"workflow_id"`

	CurrentNodeID string     `json:"current_node_id"`
	Status        CallStatus `json:"status"`

	// Vars is the per-call variable scope. Mutated by node execution,
	// read by edge guards and placeholder rendering.
	Vars map[string]any `json:"vars"`

	// History accumulates the caller/assistant exchange for ai nodes.
	History []Message `json:"history,omitempty"`

	TurnCount int `json:"turn_count"`

	// Prompted marks that the current gather node has already spoken its
	// prompt and is waiting for the caller's answer.
	Prompted bool `json:"prompted,omitempty"`

	// Interrupted marks that the caller barged in over synthesized output;
	// the next prompt is treated as a fresh turn.
	Interrupted bool `json:"interrupted,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// NewCallState creates a fresh session positioned at the graph entry.
func NewCallState(callID, workflowID, entryNodeID string) *CallState {
	now := time.Now().UTC()
	return &CallState{
		CallID:         callID,
		WorkflowID:     workflowID,
		CurrentNodeID:  entryNodeID,
		Status:         StatusAwaitingSetup,
		Vars:           make(map[string]any),
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Get returns a session variable, reporting whether it was present.
func (s *CallState) Get(key string) (any, bool) {
	v, ok := s.Vars[key]
	return v, ok
}

// Set stores a session variable, overwriting any previous value.
func (s *CallState) Set(key string, value any) {
	if s.Vars == nil {
		s.Vars = make(map[string]any)
	}
	s.Vars[key] = value
}

// Touch records activity for idle-timeout accounting.
func (s *CallState) Touch() {
	s.LastActivityAt = time.Now().UTC()
}

// Ended reports whether the session reached its terminal status.
func (s *CallState) Ended() bool {
	return s.Status == StatusEnded
}
