// Package llm is the boundary to the generative model. It exposes a small
// Gateway interface for single-prompt and multi-turn completions, a Gemini
// implementation, a deterministic local model for development, and a
// decorator that traces and counts calls.
package llm

import (
	"context"
	"errors"

	"github.com/tbourn/campus-assistant/internal/domain"
)

var (
	// ErrModelUnavailable reports a transport failure or an expired deadline.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrEmptyCompletion reports a completion that carried no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// GenerationConfig is passed through to the backend unchanged.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
}

// Gateway completes prompts against a generative model. Implementations
// must be safe for concurrent use and must not retry on their own.
type Gateway interface {
	// Complete answers a single self-contained prompt.
	Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
	// CompleteChat answers message given prior turns, oldest first.
	CompleteChat(ctx context.Context, history []domain.ChatTurn, message string, cfg GenerationConfig) (string, error)
	// Ping performs a cheap round trip to verify connectivity.
	Ping(ctx context.Context) error
}
