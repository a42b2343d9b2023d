package history

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/campus-assistant/internal/domain"
)

// MemoryStore keeps up to a fixed number of turns per identity in process memory. The
// oldest turn is evicted when a new one would exceed the cap. Contents are
// lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	limit    int
	sessions map[string][]domain.ChatTurn // oldest first
}

// NewMemoryStore returns an empty store holding at most limit turns per identity.
func NewMemoryStore(limit int) *MemoryStore {
	if limit < 1 {
		limit = 1
	}
	return &MemoryStore{limit: limit, sessions: make(map[string][]domain.ChatTurn)}
}

// Append records turn for identity, evicting the oldest turn on overflow.
func (s *MemoryStore) Append(_ context.Context, identity string, turn domain.ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[identity], turn)
	if over := len(turns) - s.limit; over > 0 {
		// Copy so the evicted prefix does not pin the backing array.
		turns = append([]domain.ChatTurn(nil), turns[over:]...)
	}
	s.sessions[identity] = turns
	return nil
}

// Recent returns up to n turns of identity, most recent first.
func (s *MemoryStore) Recent(_ context.Context, identity string, n int) ([]domain.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[identity]
	if n > len(turns) {
		n = len(turns)
	}
	if n < 0 {
		n = 0
	}
	out := make([]domain.ChatTurn, 0, n)
	for i := len(turns) - 1; i >= len(turns)-n; i-- {
		out = append(out, turns[i])
	}
	return out, nil
}

// Clear drops every turn of identity.
func (s *MemoryStore) Clear(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, identity)
	return nil
}

// Cap reports the per-identity limit.
func (s *MemoryStore) Cap() int { return s.limit }

var _ Store = (*MemoryStore)(nil)
