package entries

import (
	"time"

	"journal-backend/internal/ai/analyzer"
)

// Entry is a single diary entry owned by a user. Analysis is nil until the
// entry has been analyzed; it is only overwritten on an explicit re-analyze
// or when the entry text changes.
type Entry struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	EntryDate time.Time
	ImageKey  string
	WordCount int

	Analysis   *analyzer.EmotionAnalysis
	AnalyzedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter narrows and pages entry listings. Zero values mean "no filter".
type ListFilter struct {
	Mood   string
	Tag    string
	Search string
	Limit  int
	Offset int
}
