package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialflow/dialflow/internal/relay"
	"github.com/dialflow/dialflow/pkg/domain"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want domain.Event
	}{
		{
			name: "setup",
			data: `{"type":"setup","callSid":"CA1","accountSid":"AC1","from":"+15550001","to":"+15550002","direction":"inbound"}`,
			want: domain.SetupEvent{CallID: "CA1", AccountID: "AC1", From: "+15550001", To: "+15550002", Direction: "inbound"},
		},
		{
			name: "prompt",
			data: `{"type":"prompt","voicePrompt":"I want to check my order","confidence":0.94}`,
			want: domain.PromptEvent{Text: "I want to check my order", Confidence: 0.94},
		},
		{
			name: "dtmf",
			data: `{"type":"dtmf","digit":"5"}`,
			want: domain.DtmfEvent{Digit: "5"},
		},
		{
			name: "interrupt",
			data: `{"type":"interrupt","reason":"caller spoke"}`,
			want: domain.InterruptEvent{Reason: "caller spoke"},
		},
		{
			name: "error with detail",
			data: `{"type":"error","error":{"type":"tts_failure","message":"voice unavailable"}}`,
			want: domain.ErrorEvent{Kind: "tts_failure", Message: "voice unavailable"},
		},
		{
			name: "error without detail",
			data: `{"type":"error"}`,
			want: domain.ErrorEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := relay.DecodeEvent([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestDecodeEvent_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"unknown type", `{"type":"ping"}`},
		{"setup without callSid", `{"type":"setup","from":"+15550001"}`},
		{"empty type", `{"voicePrompt":"hello"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := relay.DecodeEvent([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestEncodeResponse(t *testing.T) {
	tests := []struct {
		name string
		resp domain.Response
		want string
	}{
		{
			name: "text",
			resp: domain.TextResponse{Content: "Hello Ada", Last: true},
			want: `{"type":"text","token":"Hello Ada","last":true}`,
		},
		{
			name: "partial text",
			resp: domain.TextResponse{Content: "Hel"},
			want: `{"type":"text","token":"Hel","last":false}`,
		},
		{
			name: "end",
			resp: domain.EndResponse{Reason: "flow completed"},
			want: `{"type":"end","reason":"flow completed"}`,
		},
		{
			name: "error",
			resp: domain.ErrorResponse{Message: "first frame must be setup"},
			want: `{"type":"error","message":"first frame must be setup"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := relay.EncodeResponse(tt.resp)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}
