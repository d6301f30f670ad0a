// Package relay terminates the bidirectional call protocol: one websocket
// connection per live call, JSON frames in both directions.
package relay

import (
	"encoding/json"
	"fmt"

	"github.com/dialflow/dialflow/pkg/domain"
)

// frame is the inbound wire envelope. Only the fields for the declared
// type are populated; the rest stay zero.
type frame struct {
	Type string `json:"type"`

	// setup
	CallSid    string `json:"callSid,omitempty"`
	AccountSid string `json:"accountSid,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Direction  string `json:"direction,omitempty"`

	// prompt
	VoicePrompt string  `json:"voicePrompt,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`

	// dtmf
	Digit string `json:"digit,omitempty"`

	// interrupt
	Reason string `json:"reason,omitempty"`

	// error
	Error *frameError `json:"error,omitempty"`

	Timestamp string `json:"timestamp,omitempty"`
}

type frameError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// textFrame is the outbound spoken-token frame.
type textFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	Last  bool   `json:"last"`
}

// endFrame asks the provider to terminate the call.
type endFrame struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// errorFrame reports a protocol-level problem to the provider.
type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DecodeEvent parses one inbound frame into a typed protocol event.
func DecodeEvent(data []byte) (domain.Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch f.Type {
	case "setup":
		if f.CallSid == "" {
			return nil, fmt.Errorf("setup frame missing callSid")
		}
		return domain.SetupEvent{
			CallID:    f.CallSid,
			AccountID: f.AccountSid,
			From:      f.From,
			To:        f.To,
			Direction: f.Direction,
		}, nil
	case "prompt":
		return domain.PromptEvent{Text: f.VoicePrompt, Confidence: f.Confidence}, nil
	case "dtmf":
		return domain.DtmfEvent{Digit: f.Digit}, nil
	case "interrupt":
		return domain.InterruptEvent{Reason: f.Reason}, nil
	case "error":
		ev := domain.ErrorEvent{}
		if f.Error != nil {
			ev.Kind = f.Error.Type
			ev.Message = f.Error.Message
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}
}

// EncodeResponse serializes one interpreter response into its wire frame.
func EncodeResponse(resp domain.Response) ([]byte, error) {
	switch resp := resp.(type) {
	case domain.TextResponse:
		return json.Marshal(textFrame{Type: "text", Token: resp.Content, Last: resp.Last})
	case domain.EndResponse:
		return json.Marshal(endFrame{Type: "end", Reason: resp.Reason})
	case domain.ErrorResponse:
		return json.Marshal(errorFrame{Type: "error", Message: resp.Message})
	default:
		return nil, fmt.Errorf("unknown response type %T", resp)
	}
}
