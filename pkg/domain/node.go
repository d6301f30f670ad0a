package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// NodeKind identifies the behavior of a node during call execution.
type NodeKind string

const (
	// KindStart marks the graph entry. Produces no output and advances
	// immediately.
	KindStart NodeKind = "start"
	// KindPlayAudio speaks a templated message and advances.
	KindPlayAudio NodeKind = "play_audio"
	// KindGather speaks a prompt and waits for the caller's answer,
	// storing it into a variable. The only kind that spans two turns.
	KindGather NodeKind = "gather"
	// KindAi sends the conversation to the AI provider and speaks its reply.
	KindAi NodeKind = "ai"
	// KindBranch selects an outgoing edge by guard conditions. Silent.
	KindBranch NodeKind = "branch"
	// KindLogic evaluates an expression and stores the result. Silent.
	KindLogic NodeKind = "logic"
	// KindApiRequest performs an HTTP call and stores the response.
	KindApiRequest NodeKind = "api_request"
	// KindTransferCall hands the call off to another number and ends the session.
	KindTransferCall NodeKind = "transfer_call"
	// KindEnd speaks a farewell and terminates the session.
	KindEnd NodeKind = "end"
)

// Node is one typed unit of call behavior in a workflow graph.
// Kind-specific configuration lives in Data and is decoded on demand
// into the typed config structs below.
type Node struct {
	ID   string         `json:"id" yaml:"id"`
	Kind NodeKind       `json:"kind" yaml:"kind"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// PlayAudioConfig configures a play_audio node.
type PlayAudioConfig struct {
	// Message supports {{variable}} placeholders.
	Message string `mapstructure:"message"`
}

// GatherConfig configures a gather node.
type GatherConfig struct {
	Prompt string `mapstructure:"prompt"`
	// SaveTo names the session variable the answer is stored into.
	SaveTo string `mapstructure:"save_to"`
}

// AiConfig configures an ai node.
type AiConfig struct {
	// SystemPrompt is prepended to the conversation sent to the provider.
	SystemPrompt string `mapstructure:"system_prompt"`
	// FallbackMessage is spoken when the provider call fails. Optional.
	FallbackMessage string `mapstructure:"fallback_message"`
}

// LogicConfig configures a logic node.
type LogicConfig struct {
	// Expression is evaluated against the session variables.
	Expression string `mapstructure:"expression"`
	// SaveTo names the variable the result is stored into.
	SaveTo string `mapstructure:"save_to"`
}

// ApiRequestConfig configures an api_request node.
type ApiRequestConfig struct {
	Method string `mapstructure:"method"`
	// URL and Body support {{variable}} placeholders.
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Body    string            `mapstructure:"body"`
	// Extract is an optional gjson path applied to the response body.
	Extract string `mapstructure:"extract"`
	// SaveTo names the variable the (extracted) response is stored into.
	SaveTo string `mapstructure:"save_to"`
}

// TransferConfig configures a transfer_call node.
type TransferConfig struct {
	// Target is the phone number to transfer to. Supports placeholders.
	Target string `mapstructure:"target"`
	// Message is spoken before the transfer is issued. Optional.
	Message string `mapstructure:"message"`
}

// EndConfig configures an end node.
type EndConfig struct {
	Message string `mapstructure:"message"`
}

// DecodeConfig decodes the node's Data map into a typed config struct.
func (n Node) DecodeConfig(out any) error {
	if err := mapstructure.Decode(n.Data, out); err != nil {
		return fmt.Errorf("node %s: invalid %s config: %w", n.ID, n.Kind, err)
	}
	return nil
}

// Valid reports whether the kind is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindStart, KindPlayAudio, KindGather, KindAi, KindBranch,
		KindLogic, KindApiRequest, KindTransferCall, KindEnd:
		return true
	}
	return false
}
