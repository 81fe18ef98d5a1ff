package chat

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]ChatMessage // userID -> messages, append order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]ChatMessage)}
}

// Append stores a message at the end of the user's history.
func (r *MemoryRepo) Append(ctx context.Context, msg ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[msg.UserID] = append(r.data[msg.UserID], msg)
	return nil
}

// ListByUser returns the most recent messages in chronological order.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.data[userID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// DeleteByUser removes a user's entire history and reports how many messages.
func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	count := len(r.data[userID])
	delete(r.data, userID)
	return count, nil
}
