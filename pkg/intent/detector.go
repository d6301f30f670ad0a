// Package intent decides whether a caller utterance expresses the wish to
// end the call, independent of any path the workflow graph encodes.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dialflow/dialflow/internal/logging"
	"github.com/dialflow/dialflow/pkg/domain"
	"github.com/dialflow/dialflow/pkg/ports"
)

// Classification is the outcome of one utterance check.
type Classification struct {
	EndIntent   bool
	Confidence  float64
	MatchedRule string // "keyword", "ai" or "" when no intent was found
}

// defaultPhrases are matched as case-insensitive substrings. The keyword
// pass runs without any external call, so hang-up detection stays
// available even when the AI provider is down.
var defaultPhrases = []string{
	"goodbye",
	"good bye",
	"bye bye",
	"bye",
	"that's all",
	"thats all",
	"that is all",
	"that's it",
	"gotta go",
	"got to go",
	"have to go",
	"i'm done",
	"im done",
	"we're done",
	"end call",
	"end the call",
	"hang up",
	"talk to you later",
	"see you later",
	"no thanks, goodbye",
	"nothing else",
}

const classifierInstruction = "You are a call-intent classifier. " +
	"Answer with exactly one word, yes or no: does the caller want to end the phone call?"

// aiFallbackConfidence is reported for positive AI classifications; the
// chat-completions API carries no certainty score.
const aiFallbackConfidence = 0.75

// Detector classifies termination intent: keyword match first, then an
// optional AI yes/no fallback for ambiguous phrasing.
type Detector struct {
	phrases  []string
	provider ports.AIProvider
	logger   *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithPhrases replaces the built-in keyword set.
func WithPhrases(phrases []string) Option {
	return func(d *Detector) {
		d.phrases = phrases
	}
}

// WithProvider enables the AI fallback step.
func WithProvider(p ports.AIProvider) Option {
	return func(d *Detector) {
		d.provider = p
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// NewDetector creates a detector with the default phrase set and no AI
// fallback.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		phrases: defaultPhrases,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Classify checks one utterance. The keyword pass short-circuits with
// confidence 1.0. The AI fallback fails safe: any provider failure or
// unparseable answer yields no end intent, so a call is never ended on a
// guess.
func (d *Detector) Classify(ctx context.Context, utterance string, history []domain.Message) Classification {
	normalized := strings.ToLower(strings.TrimSpace(utterance))
	if normalized == "" {
		return Classification{}
	}

	for _, phrase := range d.phrases {
		if strings.Contains(normalized, phrase) {
			return Classification{EndIntent: true, Confidence: 1.0, MatchedRule: "keyword"}
		}
	}

	if d.provider == nil {
		return Classification{}
	}

	msgs := make([]domain.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, domain.Message{Role: "user", Content: utterance})

	answer, err := d.provider.Complete(ctx, classifierInstruction, msgs)
	if err != nil {
		d.logger.Warn("intent fallback unavailable, assuming call continues", "err", err)
		return Classification{}
	}

	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "yes") {
		return Classification{EndIntent: true, Confidence: aiFallbackConfidence, MatchedRule: "ai"}
	}
	return Classification{}
}
