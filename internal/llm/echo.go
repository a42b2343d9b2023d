package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbourn/campus-assistant/internal/domain"
)

// Echo is a deterministic local model used when no API key is configured.
// It replies with the last line of the prompt so flows can be exercised
// end to end without network access.
type Echo struct{}

// NewEcho returns the local model.
func NewEcho() *Echo { return &Echo{} }

// Complete implements Gateway.
func (Echo) Complete(ctx context.Context, prompt string, _ GenerationConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return echoReply(prompt), nil
}

// CompleteChat implements Gateway.
func (Echo) CompleteChat(ctx context.Context, history []domain.ChatTurn, message string, _ GenerationConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return fmt.Sprintf("%s (%d lượt trước)", echoReply(message), len(history)), nil
}

// Ping implements Gateway.
func (Echo) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return nil
}

func echoReply(prompt string) string {
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		last = "…"
	}
	return "Bạn vừa nói: " + last
}

var _ Gateway = Echo{}
