package history

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/repo"
)

// TurnStore persists turns in the chat_turns table. Identities are student
// numbers. Rows beyond cap are kept for the history view but never returned
// by Recent.
type TurnStore struct {
	DB  *gorm.DB
	Cap int
}

// NewTurnStore returns a database-backed store.
func NewTurnStore(db *gorm.DB, limit int) *TurnStore {
	if limit < 1 {
		limit = 1
	}
	return &TurnStore{DB: db, Cap: limit}
}

// Append inserts turn for identity.
func (s *TurnStore) Append(ctx context.Context, identity string, turn domain.ChatTurn) error {
	_, err := repo.CreateChatTurn(ctx, s.DB, identity, turn)
	return err
}

// Recent returns up to min(n, Cap) turns of identity, most recent first.
func (s *TurnStore) Recent(ctx context.Context, identity string, n int) ([]domain.ChatTurn, error) {
	if n > s.Cap {
		n = s.Cap
	}
	return repo.RecentChatTurns(ctx, s.DB, identity, n)
}

// Clear deletes every persisted turn of identity.
func (s *TurnStore) Clear(ctx context.Context, identity string) error {
	_, err := repo.DeleteChatTurns(ctx, s.DB, identity)
	return err
}

var _ Store = (*TurnStore)(nil)
