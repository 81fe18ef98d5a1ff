package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"journal-backend/internal/ai/companion"
	"journal-backend/internal/entries"
	"journal-backend/internal/shared/metrics"
	"journal-backend/internal/shared/telemetry"
	"journal-backend/internal/usage"
)

const (
	historyWindow  = 20
	contextEntries = 5
)

// Service contains business logic for companion chat.
type Service struct {
	Repo      Repo
	Companion *companion.Companion
	Entries   *entries.Service
	Usage     *usage.Service
}

// Send persists the user's message, produces a companion reply grounded in
// recent diary entries, persists it, and returns it.
func (s *Service) Send(ctx context.Context, userID, text string) (ChatMessage, error) {
	userMsg, history, diaryContext, err := s.prepare(ctx, userID, text)
	if err != nil {
		return ChatMessage{}, err
	}

	startedAt := time.Now().UTC()
	reply := s.Companion.Respond(ctx, history, diaryContext)
	s.recordReply(reply, startedAt)

	assistantMsg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Append(ctx, assistantMsg); err != nil {
		return ChatMessage{}, err
	}

	telemetry.Info("chat.reply", map[string]any{
		"user_id":    userID,
		"message_id": userMsg.ID,
		"reply_id":   assistantMsg.ID,
	})
	return assistantMsg, nil
}

// SendStream persists the user's message and streams reply fragments. The
// full reply is persisted once the stream ends; cancellation of ctx stops
// the stream but still persists whatever was received.
func (s *Service) SendStream(ctx context.Context, userID, text string) (<-chan string, error) {
	_, history, diaryContext, err := s.prepare(ctx, userID, text)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now().UTC()
	fragments := s.Companion.RespondStream(ctx, history, diaryContext)

	out := make(chan string)
	go func() {
		defer close(out)
		var full strings.Builder
		for fragment := range fragments {
			full.WriteString(fragment)
			select {
			case out <- fragment:
			case <-ctx.Done():
			}
		}

		reply := full.String()
		s.recordReply(reply, startedAt)

		// Persist even when the request context is gone.
		assistantMsg := ChatMessage{
			ID:        uuid.NewString(),
			UserID:    userID,
			Role:      RoleAssistant,
			Content:   reply,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Repo.Append(context.Background(), assistantMsg); err != nil {
			telemetry.Error("chat.persist_reply", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}()
	return out, nil
}

// History returns the most recent messages in chronological order.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}

// Clear wipes the user's conversation.
func (s *Service) Clear(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, errors.New("userID is required")
	}
	return s.Repo.DeleteByUser(ctx, userID)
}

// DeleteAllForUser removes the user's history. Alias used by account wipes.
func (s *Service) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	return s.Clear(ctx, userID)
}

func (s *Service) prepare(ctx context.Context, userID, text string) (ChatMessage, []companion.Message, string, error) {
	if userID == "" {
		return ChatMessage{}, nil, "", errors.New("userID is required")
	}
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, nil, "", ErrInvalidInput
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
			return ChatMessage{}, nil, "", err
		}
	}

	userMsg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Append(ctx, userMsg); err != nil {
		return ChatMessage{}, nil, "", err
	}

	recent, err := s.Repo.ListByUser(ctx, userID, historyWindow)
	if err != nil {
		return ChatMessage{}, nil, "", err
	}
	history := make([]companion.Message, 0, len(recent))
	for _, msg := range recent {
		history = append(history, companion.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.CreatedAt,
		})
	}

	diaryContext := ""
	if s.Entries != nil {
		diaryContext, err = s.Entries.RecentContext(ctx, userID, contextEntries)
		if err != nil {
			telemetry.Error("chat.diary_context", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
			diaryContext = ""
		}
	}

	return userMsg, history, diaryContext, nil
}

func (s *Service) recordReply(reply string, startedAt time.Time) {
	metrics.IncChatReply()
	if reply == companion.FallbackReply {
		metrics.IncChatFallback()
	}
	metrics.ObserveChatDurationMs(float64(time.Since(startedAt).Microseconds()) / 1000.0)
}
