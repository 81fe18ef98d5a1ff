package entries

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"journal-backend/internal/ai/analyzer"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Entry // userID -> entries
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Entry)}
}

// Create stores a new entry for a user.
func (r *MemoryRepo) Create(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[entry.UserID] = append(r.data[entry.UserID], entry)
	return nil
}

// GetByID returns an entry by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, entryID string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.data[userID] {
		if entry.ID == entryID {
			return entry, nil
		}
	}
	return Entry{}, ErrNotFound
}

// ListByUser returns entries newest-first, honoring filters and paging.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	userEntries := r.data[userID]
	r.mu.RUnlock()

	matched := make([]Entry, 0, len(userEntries))
	for _, entry := range userEntries {
		if matchesFilter(entry, filter) {
			matched = append(matched, entry)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].EntryDate.Equal(matched[j].EntryDate) {
			return matched[i].EntryDate.After(matched[j].EntryDate)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []Entry{}, nil
	}
	end := len(matched)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return matched[offset:end], nil
}

// Update replaces a stored entry.
func (r *MemoryRepo) Update(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	userEntries := r.data[entry.UserID]
	for i := range userEntries {
		if userEntries[i].ID == entry.ID {
			userEntries[i] = entry
			return nil
		}
	}
	return ErrNotFound
}

// UpdateAnalysis stores analysis fields for an entry.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, userID, entryID string, analysis analyzer.EmotionAnalysis, analyzedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	userEntries := r.data[userID]
	for i := range userEntries {
		if userEntries[i].ID == entryID {
			a := analysis
			userEntries[i].Analysis = &a
			userEntries[i].AnalyzedAt = &analyzedAt
			userEntries[i].UpdatedAt = analyzedAt
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes an entry.
func (r *MemoryRepo) Delete(ctx context.Context, userID, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	userEntries := r.data[userID]
	for i := range userEntries {
		if userEntries[i].ID == entryID {
			r.data[userID] = append(userEntries[:i], userEntries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// DeleteByUser removes every entry for a user and reports how many.
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

func matchesFilter(entry Entry, filter ListFilter) bool {
	if filter.Mood != "" {
		if entry.Analysis == nil || !strings.EqualFold(entry.Analysis.Mood, filter.Mood) {
			return false
		}
	}
	if filter.Tag != "" {
		if entry.Analysis == nil {
			return false
		}
		found := false
		for _, tag := range entry.Analysis.Tags {
			if strings.EqualFold(tag, filter.Tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(entry.Title), needle) &&
			!strings.Contains(strings.ToLower(entry.Content), needle) {
			return false
		}
	}
	return true
}
