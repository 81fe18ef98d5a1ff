package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"journal-backend/internal/ai/analyzer"
	"journal-backend/internal/shared/metrics"
	"journal-backend/internal/shared/storage/object"
	"journal-backend/internal/shared/telemetry"
	"journal-backend/internal/usage"
)

const (
	contextSnippetLen     = 200
	defaultContextEntries = 5
)

// Service contains business logic for diary entries.
type Service struct {
	Repo     Repo
	Analyzer *analyzer.Analyzer
	Usage    *usage.Service
	Store    object.ObjectStore
}

// CreateInput carries the writable fields of a new entry.
type CreateInput struct {
	Title     string
	Content   string
	EntryDate time.Time
	ImageKey  string
}

// UpdateInput carries optional field updates. Nil pointers leave the field
// unchanged; a content change clears any stored analysis.
type UpdateInput struct {
	Title     *string
	Content   *string
	EntryDate *time.Time
	ImageKey  *string
}

// Create records a new entry and kicks off asynchronous emotional analysis.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Entry, error) {
	if userID == "" {
		return Entry{}, errors.New("user id required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return Entry{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	entryDate := in.EntryDate
	if entryDate.IsZero() {
		entryDate = now
	}

	entry := Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		EntryDate: entryDate,
		ImageKey:  in.ImageKey,
		WordCount: len(strings.Fields(in.Content)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Repo.Create(ctx, entry); err != nil {
		return Entry{}, err
	}

	go s.analyzeAsync(backgroundWithRequestID(ctx), entry.UserID, entry.ID, entry.Content)

	return entry, nil
}

// Get returns an entry by ID.
func (s *Service) Get(ctx context.Context, userID, entryID string) (Entry, error) {
	if userID == "" || entryID == "" {
		return Entry{}, errors.New("userID and entryID are required")
	}
	return s.Repo.GetByID(ctx, userID, entryID)
}

// List returns entries for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Entry, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, filter)
}

// Update applies field changes to an entry. Changing the content invalidates
// the stored analysis and schedules a fresh one.
func (s *Service) Update(ctx context.Context, userID, entryID string, in UpdateInput) (Entry, error) {
	if userID == "" || entryID == "" {
		return Entry{}, errors.New("userID and entryID are required")
	}

	entry, err := s.Repo.GetByID(ctx, userID, entryID)
	if err != nil {
		return Entry{}, err
	}

	contentChanged := false
	if in.Title != nil {
		entry.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil && *in.Content != entry.Content {
		if strings.TrimSpace(*in.Content) == "" {
			return Entry{}, ErrInvalidInput
		}
		entry.Content = *in.Content
		entry.WordCount = len(strings.Fields(entry.Content))
		entry.Analysis = nil
		entry.AnalyzedAt = nil
		contentChanged = true
	}
	if in.EntryDate != nil && !in.EntryDate.IsZero() {
		entry.EntryDate = *in.EntryDate
	}
	if in.ImageKey != nil {
		if entry.ImageKey != "" && *in.ImageKey != entry.ImageKey && s.Store != nil {
			if err := s.Store.Delete(ctx, entry.ImageKey); err != nil {
				telemetry.Error("entries.image_delete", map[string]any{
					"entry_id": entry.ID,
					"error":    err.Error(),
				})
			}
		}
		entry.ImageKey = *in.ImageKey
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, entry); err != nil {
		return Entry{}, err
	}

	if contentChanged {
		go s.analyzeAsync(backgroundWithRequestID(ctx), entry.UserID, entry.ID, entry.Content)
	}

	return entry, nil
}

// Delete removes an entry and its attached image, if any.
func (s *Service) Delete(ctx context.Context, userID, entryID string) error {
	if userID == "" || entryID == "" {
		return errors.New("userID and entryID are required")
	}

	entry, err := s.Repo.GetByID(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, entryID); err != nil {
		return err
	}
	if entry.ImageKey != "" && s.Store != nil {
		if err := s.Store.Delete(ctx, entry.ImageKey); err != nil {
			telemetry.Error("entries.image_delete", map[string]any{
				"entry_id": entryID,
				"error":    err.Error(),
			})
		}
	}
	return nil
}

// Reanalyze runs emotional analysis synchronously. Unless force is set, an
// entry that already has an analysis is returned as-is.
func (s *Service) Reanalyze(ctx context.Context, userID, entryID string, force bool) (Entry, error) {
	if userID == "" || entryID == "" {
		return Entry{}, errors.New("userID and entryID are required")
	}

	entry, err := s.Repo.GetByID(ctx, userID, entryID)
	if err != nil {
		return Entry{}, err
	}
	if entry.Analysis != nil && !force {
		return entry, nil
	}

	if err := s.chargeQuota(ctx, userID); err != nil {
		return Entry{}, err
	}

	startedAt := time.Now().UTC()
	result := s.Analyzer.Analyze(ctx, entry.Content)
	analyzedAt := time.Now().UTC()

	if err := s.Repo.UpdateAnalysis(ctx, userID, entryID, result, analyzedAt); err != nil {
		return Entry{}, err
	}
	s.recordAnalysis(ctx, userID, entryID, result, startedAt, analyzedAt)

	entry.Analysis = &result
	entry.AnalyzedAt = &analyzedAt
	entry.UpdatedAt = analyzedAt
	return entry, nil
}

// SuggestTags asks the analyzer for topical tags for an entry.
func (s *Service) SuggestTags(ctx context.Context, userID, entryID string) ([]string, error) {
	if userID == "" || entryID == "" {
		return nil, errors.New("userID and entryID are required")
	}

	entry, err := s.Repo.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.chargeQuota(ctx, userID); err != nil {
		return nil, err
	}
	return s.Analyzer.GenerateTags(ctx, entry.Content), nil
}

// RecentContext summarizes the user's latest entries as plain lines for
// grounding chat replies. Returns an empty string when there are none.
func (s *Service) RecentContext(ctx context.Context, userID string, n int) (string, error) {
	if userID == "" {
		return "", errors.New("userID is required")
	}
	if n <= 0 {
		n = defaultContextEntries
	}

	list, err := s.Repo.ListByUser(ctx, userID, ListFilter{Limit: n})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, entry := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("[%s]", entry.EntryDate.Format("2006-01-02")))
		if entry.Title != "" {
			b.WriteString(" ")
			b.WriteString(entry.Title)
		}
		b.WriteString(": ")
		b.WriteString(snippet(entry.Content, contextSnippetLen))
	}
	return b.String(), nil
}

// DeleteAllForUser purges every entry for a user, attachments included.
func (s *Service) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, errors.New("userID is required")
	}

	if s.Store != nil {
		for offset := 0; ; offset += 100 {
			list, err := s.Repo.ListByUser(ctx, userID, ListFilter{Limit: 100, Offset: offset})
			if err != nil {
				return 0, err
			}
			for _, entry := range list {
				if entry.ImageKey == "" {
					continue
				}
				if err := s.Store.Delete(ctx, entry.ImageKey); err != nil {
					telemetry.Error("entries.image_delete", map[string]any{
						"entry_id": entry.ID,
						"error":    err.Error(),
					})
				}
			}
			if len(list) < 100 {
				break
			}
		}
	}

	return s.Repo.DeleteByUser(ctx, userID)
}

func (s *Service) chargeQuota(ctx context.Context, userID string) error {
	if s.Usage == nil {
		return nil
	}
	if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
		return err
	}
	return nil
}

func (s *Service) analyzeAsync(ctx context.Context, userID, entryID, content string) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("entries.analyze", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"entry_id":   entryID,
				"error":      fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	if err := s.chargeQuota(ctx, userID); err != nil {
		telemetry.Info("entries.analyze_skipped", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"user_id":    userID,
			"entry_id":   entryID,
			"reason":     err.Error(),
		})
		return
	}

	startedAt := time.Now().UTC()
	result := s.Analyzer.Analyze(ctx, content)
	analyzedAt := time.Now().UTC()

	if err := s.Repo.UpdateAnalysis(ctx, userID, entryID, result, analyzedAt); err != nil {
		telemetry.Error("entries.analyze", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"entry_id":   entryID,
			"error":      err.Error(),
		})
		return
	}
	s.recordAnalysis(ctx, userID, entryID, result, startedAt, analyzedAt)
}

func (s *Service) recordAnalysis(ctx context.Context, userID, entryID string, result analyzer.EmotionAnalysis, startedAt, analyzedAt time.Time) {
	metrics.IncAnalysisCompleted()
	if result.Summary == analyzer.Fallback().Summary {
		metrics.IncAnalysisFallback()
	}
	metrics.ObserveAnalysisDurationMs(float64(analyzedAt.Sub(startedAt).Microseconds()) / 1000.0)
	telemetry.Info("entries.analyzed", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"user_id":    userID,
		"entry_id":   entryID,
		"mood":       result.Mood,
		"sentiment":  result.Sentiment,
	})
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
