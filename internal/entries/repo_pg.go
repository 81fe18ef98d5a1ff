package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"journal-backend/internal/ai/analyzer"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `id, user_id, title, content, entry_date, image_key, word_count,
    mood, sentiment, emotions, tags, summary, analyzed_at, created_at, updated_at`

// Create inserts a new entry.
func (r *PGRepo) Create(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO entries (
    id, user_id, title, content, entry_date, image_key, word_count,
    mood, sentiment, emotions, tags, summary, analyzed_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	mood, sentiment, emotions, tags, summary, analyzedAt, err := analysisColumns(entry)
	if err != nil {
		return err
	}

	var imageKey sql.NullString
	if entry.ImageKey != "" {
		imageKey = sql.NullString{String: entry.ImageKey, Valid: true}
	}

	_, err = r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Title,
		entry.Content,
		entry.EntryDate,
		imageKey,
		entry.WordCount,
		mood,
		sentiment,
		emotions,
		tags,
		summary,
		analyzedAt,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	return err
}

// GetByID fetches an entry by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, entryID string) (Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM entries WHERE user_id = $1 AND id = $2`, entryColumns)
	entry, err := scanEntry(r.DB.QueryRowContext(ctx, query, userID, entryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// ListByUser lists entries newest-first with filters and paging.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		conds = []string{"user_id = $1"}
		args  = []any{userID}
	)
	if filter.Mood != "" {
		args = append(args, strings.ToLower(filter.Mood))
		conds = append(conds, fmt.Sprintf("LOWER(mood) = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, strings.ToLower(filter.Tag))
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) tag WHERE LOWER(tag) = $%d)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", len(args), len(args)))
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
SELECT %s FROM entries
WHERE %s
ORDER BY entry_date DESC, created_at DESC
LIMIT $%d OFFSET $%d`, entryColumns, strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of an entry, including its analysis
// columns (which lets an update clear a stale analysis).
func (r *PGRepo) Update(ctx context.Context, entry Entry) error {
	const query = `
UPDATE entries SET
    title = $3,
    content = $4,
    entry_date = $5,
    image_key = $6,
    word_count = $7,
    mood = $8,
    sentiment = $9,
    emotions = $10,
    tags = $11,
    summary = $12,
    analyzed_at = $13,
    updated_at = $14
WHERE user_id = $1 AND id = $2`

	mood, sentiment, emotions, tags, summary, analyzedAt, err := analysisColumns(entry)
	if err != nil {
		return err
	}

	var imageKey sql.NullString
	if entry.ImageKey != "" {
		imageKey = sql.NullString{String: entry.ImageKey, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query,
		entry.UserID,
		entry.ID,
		entry.Title,
		entry.Content,
		entry.EntryDate,
		imageKey,
		entry.WordCount,
		mood,
		sentiment,
		emotions,
		tags,
		summary,
		analyzedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAnalysis stores analysis fields for an entry.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, userID, entryID string, analysis analyzer.EmotionAnalysis, analyzedAt time.Time) error {
	const query = `
UPDATE entries SET
    mood = $3,
    sentiment = $4,
    emotions = $5,
    tags = $6,
    summary = $7,
    analyzed_at = $8,
    updated_at = $8
WHERE user_id = $1 AND id = $2`

	emotions, err := json.Marshal(analysis.Emotions)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(analysis.Tags)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, query,
		userID,
		entryID,
		analysis.Mood,
		analysis.Sentiment,
		emotions,
		tags,
		analysis.Summary,
		analyzedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an entry.
func (r *PGRepo) Delete(ctx context.Context, userID, entryID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM entries WHERE user_id = $1 AND id = $2`, userID, entryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser removes every entry for a user.
func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM entries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry      Entry
		imageKey   sql.NullString
		mood       sql.NullString
		sentiment  sql.NullFloat64
		emotions   []byte
		tags       []byte
		summary    sql.NullString
		analyzedAt sql.NullTime
	)
	if err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Title,
		&entry.Content,
		&entry.EntryDate,
		&imageKey,
		&entry.WordCount,
		&mood,
		&sentiment,
		&emotions,
		&tags,
		&summary,
		&analyzedAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return Entry{}, err
	}
	if imageKey.Valid {
		entry.ImageKey = imageKey.String
	}
	if analyzedAt.Valid {
		entry.AnalyzedAt = &analyzedAt.Time
		analysis := analyzer.EmotionAnalysis{
			Mood:      mood.String,
			Sentiment: sentiment.Float64,
			Summary:   summary.String,
			Emotions:  []string{},
			Tags:      []string{},
		}
		if len(emotions) > 0 {
			if err := json.Unmarshal(emotions, &analysis.Emotions); err != nil {
				return Entry{}, err
			}
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &analysis.Tags); err != nil {
				return Entry{}, err
			}
		}
		entry.Analysis = &analysis
	}
	return entry, nil
}

func analysisColumns(entry Entry) (mood any, sentiment any, emotions any, tags any, summary any, analyzedAt any, err error) {
	if entry.Analysis == nil || entry.AnalyzedAt == nil {
		return nil, nil, nil, nil, nil, nil, nil
	}
	emotionsJSON, err := json.Marshal(entry.Analysis.Emotions)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	tagsJSON, err := json.Marshal(entry.Analysis.Tags)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	return entry.Analysis.Mood, entry.Analysis.Sentiment, emotionsJSON, tagsJSON, entry.Analysis.Summary, *entry.AnalyzedAt, nil
}
