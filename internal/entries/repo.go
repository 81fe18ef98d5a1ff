package entries

import (
	"context"
	"errors"
	"time"

	"journal-backend/internal/ai/analyzer"
)

var (
	ErrNotFound     = errors.New("entry not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repo defines persistence operations for diary entries.
type Repo interface {
	Create(ctx context.Context, entry Entry) error
	GetByID(ctx context.Context, userID, entryID string) (Entry, error)
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Entry, error)
	Update(ctx context.Context, entry Entry) error
	UpdateAnalysis(ctx context.Context, userID, entryID string, analysis analyzer.EmotionAnalysis, analyzedAt time.Time) error
	Delete(ctx context.Context, userID, entryID string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}
