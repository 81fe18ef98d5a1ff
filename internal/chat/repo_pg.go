package chat

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts a message.
func (r *PGRepo) Append(ctx context.Context, msg ChatMessage) error {
	const query = `
INSERT INTO chat_messages (id, user_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, msg.ID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

// ListByUser returns the most recent messages in chronological order.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	const query = `
SELECT id, user_id, role, content, created_at FROM (
    SELECT id, user_id, role, content, created_at
    FROM chat_messages
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2
) recent
ORDER BY created_at ASC`

	effectiveLimit := limit
	if effectiveLimit <= 0 {
		effectiveLimit = 1000
	}

	rows, err := r.DB.QueryContext(ctx, query, userID, effectiveLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ChatMessage{}
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// DeleteByUser removes a user's entire history.
func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
