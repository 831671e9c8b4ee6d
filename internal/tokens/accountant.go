// Package tokens prices text and message lists in model tokens.
package tokens

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/bobergda/simple-gpt-shell/internal/transcript"
)

// Profile holds the per-message framing overhead for a model family.
type Profile struct {
	// PerMessage is the fixed token cost the API adds for each message.
	PerMessage int
	// PerName adjusts the cost when a message carries a name field.
	PerName int
	// Priming is added once per message list for the assistant reply primer.
	Priming int
}

// ProfileForModel returns the overhead profile for a model identifier.
// Unrecognized models fall back to the gpt-4o-mini profile with a warning;
// this never fails.
func ProfileForModel(model string, logger *zap.Logger) Profile {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Most specific prefix first: "gpt-4o-mini" also contains "gpt-4".
	switch {
	case strings.Contains(model, "gpt-4o-mini"):
		return Profile{PerMessage: 5, PerName: 1, Priming: 3}
	case strings.Contains(model, "gpt-4o"):
		return Profile{PerMessage: 6, PerName: 2, Priming: 3}
	case strings.Contains(model, "gpt-4"):
		return Profile{PerMessage: 3, PerName: 1, Priming: 3}
	case strings.Contains(model, "gpt-3.5-turbo"):
		return Profile{PerMessage: 4, PerName: -1, Priming: 3}
	default:
		logger.Warn("no token overhead profile for model, using default",
			zap.String("model", model),
		)
		return Profile{PerMessage: 5, PerName: 1, Priming: 3}
	}
}

// Tokenizer converts between text and token streams.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// NewTokenizer returns a tiktoken-backed tokenizer for the model.
// Unrecognized models fall back to cl100k_base with a warning; if even that
// encoding cannot be loaded, a rune-per-token approximation is used so the
// caller never fails.
func NewTokenizer(model string, logger *zap.Logger) Tokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Warn("model not known to tiktoken, falling back to cl100k_base",
			zap.String("model", model),
		)
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		logger.Warn("failed to load tiktoken encoding, using rune approximation",
			zap.Error(err),
		)
		return RuneTokenizer{}
	}
	return &tiktokenTokenizer{enc: enc}
}

// RuneTokenizer treats every rune as one token. It is the degraded fallback
// when no tiktoken encoding can be loaded, and a deterministic tokenizer for
// tests.
type RuneTokenizer struct{}

func (RuneTokenizer) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (RuneTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, tok := range tokens {
		runes[i] = rune(tok)
	}
	return string(runes)
}

// Accountant prices text and transcript message lists. It implements
// transcript.Accountant.
type Accountant struct {
	tok     Tokenizer
	profile Profile
}

// NewAccountant creates an accountant from a tokenizer and overhead profile.
func NewAccountant(tok Tokenizer, profile Profile) *Accountant {
	return &Accountant{
		tok:     tok,
		profile: profile,
	}
}

// NewAccountantForModel wires a tiktoken tokenizer and overhead profile for
// the given model identifier.
func NewAccountantForModel(model string, logger *zap.Logger) *Accountant {
	return NewAccountant(NewTokenizer(model, logger), ProfileForModel(model, logger))
}

// Count returns the token count of a single piece of text.
func (a *Accountant) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(a.tok.Encode(text))
}

// Encode exposes the underlying tokenizer's encoding.
func (a *Accountant) Encode(text string) []int {
	return a.tok.Encode(text)
}

// Decode exposes the underlying tokenizer's decoding.
func (a *Accountant) Decode(tokens []int) string {
	return a.tok.Decode(tokens)
}

// CostOf returns the token cost of sending the message list: the per-message
// overhead plus the count of every string field of every message, plus the
// assistant priming constant once for the whole list.
func (a *Accountant) CostOf(messages []transcript.Message) int {
	total := 0
	for _, msg := range messages {
		total += a.profile.PerMessage
		total += a.Count(msg.Content)
		if msg.Name != "" {
			total += a.profile.PerName + a.Count(msg.Name)
		}
		total += a.Count(msg.ToolCallID)
		for _, call := range msg.ToolCalls {
			total += a.Count(call.ID)
			total += a.Count(call.Name)
			total += a.Count(call.Arguments)
		}
	}
	return total + a.profile.Priming
}
