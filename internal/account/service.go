package account

import (
	"context"
	"errors"

	"journal-backend/internal/chat"
	"journal-backend/internal/entries"
	"journal-backend/internal/shared/telemetry"
)

// DeletionReport summarizes what a data wipe removed.
type DeletionReport struct {
	EntriesDeleted      int `json:"entriesDeleted"`
	ChatMessagesDeleted int `json:"chatMessagesDeleted"`
}

// Service wipes a user's stored data on request.
type Service struct {
	Entries *entries.Service
	Chat    *chat.Service
}

// DeleteAllData purges the user's diary entries (attachments included) and
// chat history. Partial failures stop the wipe so the caller can retry.
func (s *Service) DeleteAllData(ctx context.Context, userID string) (DeletionReport, error) {
	if userID == "" {
		return DeletionReport{}, errors.New("userID is required")
	}

	var report DeletionReport

	n, err := s.Entries.DeleteAllForUser(ctx, userID)
	if err != nil {
		return report, err
	}
	report.EntriesDeleted = n

	n, err = s.Chat.DeleteAllForUser(ctx, userID)
	if err != nil {
		return report, err
	}
	report.ChatMessagesDeleted = n

	telemetry.Info("account.data_deleted", map[string]any{
		"user_id":       userID,
		"entries":       report.EntriesDeleted,
		"chat_messages": report.ChatMessagesDeleted,
	})
	return report, nil
}
