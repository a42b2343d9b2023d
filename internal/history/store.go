// Package history keeps the recent chat turns of each identity. Two stores
// share one contract: an in-process ring per identity for admin sessions,
// and a database-backed store for students whose history must survive
// restarts.
package history

import (
	"context"

	"github.com/tbourn/campus-assistant/internal/domain"
)

// Store records and recalls chat turns per identity.
//
// Recent returns at most min(n, cap) turns, most recent first. Identities are
// strictly isolated: no call for one identity observes another's turns.
type Store interface {
	Append(ctx context.Context, identity string, turn domain.ChatTurn) error
	Recent(ctx context.Context, identity string, n int) ([]domain.ChatTurn, error)
	Clear(ctx context.Context, identity string) error
}

// Chronological returns turns reordered oldest first, as prompts expect.
// The input is not modified.
func Chronological(turns []domain.ChatTurn) []domain.ChatTurn {
	out := make([]domain.ChatTurn, len(turns))
	for i, t := range turns {
		out[len(turns)-1-i] = t
	}
	return out
}
