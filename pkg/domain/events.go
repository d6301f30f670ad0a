package domain

// Event is an inbound protocol event, decoded from one provider frame.
// The variants below are the only shapes that cross into the interpreter.
type Event interface {
	eventKind() string
}

// SetupEvent establishes a call. Must be the first event of a connection.
type SetupEvent struct {
	CallID    string
	AccountID string
	From      string
	To        string
	Direction string
}

// PromptEvent carries a recognized caller utterance.
type PromptEvent struct {
	Text       string
	Confidence float64
}

// DtmfEvent carries a keypad press.
type DtmfEvent struct {
	Digit string
}

// InterruptEvent signals the caller spoke over in-progress output.
type InterruptEvent struct {
	Reason string
}

// ErrorEvent carries an upstream-reported fault.
type ErrorEvent struct {
	Kind    string
	Message string
}

func (SetupEvent) eventKind() string     { return "setup" }
func (PromptEvent) eventKind() string    { return "prompt" }
func (DtmfEvent) eventKind() string      { return "dtmf" }
func (InterruptEvent) eventKind() string { return "interrupt" }
func (ErrorEvent) eventKind() string     { return "error" }

// Response is an outbound protocol response produced by one turn.
type Response interface {
	responseKind() string
}

// TextResponse is a spoken reply. Last marks the final token of the turn.
type TextResponse struct {
	Content string
	Last    bool
}

// EndResponse terminates the call.
type EndResponse struct {
	Reason string
}

// ErrorResponse reports a protocol-level problem without ending the call.
type ErrorResponse struct {
	Message string
}

func (TextResponse) responseKind() string  { return "text" }
func (EndResponse) responseKind() string   { return "end" }
func (ErrorResponse) responseKind() string { return "error" }
