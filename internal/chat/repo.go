package chat

import (
	"context"
	"errors"
)

var ErrInvalidInput = errors.New("invalid input")

// Repo defines persistence operations for chat history.
type Repo interface {
	Append(ctx context.Context, msg ChatMessage) error
	// ListByUser returns the most recent messages in chronological order.
	// limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]ChatMessage, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}
