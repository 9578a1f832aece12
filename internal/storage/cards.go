package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/keydrill/keydrill/internal/keybind"
)

// CardRepo handles cards, reviews and settings.
type CardRepo struct {
	db *sql.DB
}

func NewCardRepo(db *sql.DB) *CardRepo { return &CardRepo{db: db} }

const cardColumns = `id, deck, keybind, description, stability, difficulty,
	due_date, last_review, review_count, current_presentation_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (Card, error) {
	var c Card
	var stability, difficulty sql.NullFloat64
	var due, last sql.NullTime
	err := row.Scan(&c.ID, &c.Deck, &c.Keybind, &c.Description,
		&stability, &difficulty, &due, &last, &c.ReviewCount, &c.PresentationCount)
	if err != nil {
		return Card{}, err
	}
	if stability.Valid {
		c.Stability = &stability.Float64
	}
	if difficulty.Valid {
		c.Difficulty = &difficulty.Float64
	}
	if due.Valid {
		t := due.Time.UTC()
		c.DueDate = &t
	}
	if last.Valid {
		t := last.Time.UTC()
		c.LastReview = &t
	}
	return c, nil
}

// GetDueCards returns the deck's cards that are due by the end of the
// current local day or have never been reviewed, soonest (nulls first)
// ordered.
func (r *CardRepo) GetDueCards(ctx context.Context, deck string) ([]Card, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+cardColumns+`
	FROM cards
	WHERE deck = ? AND (due_date IS NULL OR due_date <= ?)
	ORDER BY due_date IS NOT NULL, due_date ASC`,
		deck, endOfToday(Now()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCardAfterReview persists a scored review: new memory state and due
// date, one more review, presentation streak reset.
func (r *CardRepo) UpdateCardAfterReview(ctx context.Context, id string, stability, difficulty float64, due time.Time) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE cards SET
		stability = ?, difficulty = ?, due_date = ?, last_review = ?,
		review_count = review_count + 1,
		current_presentation_count = 0,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		stability, difficulty, due.UTC(), Now(), id)
	return err
}

// IncrementPresentationCount records that a card was shown without being
// scored (a practice requeue).
func (r *CardRepo) IncrementPresentationCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE cards SET
		current_presentation_count = current_presentation_count + 1,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, id)
	return err
}

// RecordReview appends one audit log entry.
func (r *CardRepo) RecordReview(ctx context.Context, cardID string, rating int, responseTimeMS int64, attempts int) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO reviews(id, card_id, rating, response_time_ms, attempts, reviewed_at)
	VALUES(?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), cardID, rating, responseTimeMS, attempts, Now())
	return err
}

// GetDeckStats returns per-deck totals and due counts for the selection
// screen. modes supplies each deck's keyboard mode from its file; decks
// without an entry default to raw.
func (r *CardRepo) GetDeckStats(ctx context.Context, modes map[string]keybind.Mode) ([]DeckStats, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT deck, COUNT(*),
		SUM(CASE WHEN due_date IS NULL OR due_date <= ? THEN 1 ELSE 0 END)
	FROM cards GROUP BY deck ORDER BY deck`,
		endOfToday(Now()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeckStats
	for rows.Next() {
		var s DeckStats
		if err := rows.Scan(&s.Name, &s.TotalCards, &s.DueCards); err != nil {
			return nil, err
		}
		s.Mode = modes[s.Name]
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetReviews returns the audit log for one card, oldest first.
func (r *CardRepo) GetReviews(ctx context.Context, cardID string) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, card_id, rating, response_time_ms, attempts, reviewed_at
	FROM reviews WHERE card_id = ? ORDER BY reviewed_at ASC`, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rev Review
		var reviewedAt time.Time
		if err := rows.Scan(&rev.ID, &rev.CardID, &rev.Rating, &rev.ResponseTimeMS, &rev.Attempts, &reviewedAt); err != nil {
			return nil, err
		}
		rev.ReviewedAt = reviewedAt.UTC()
		out = append(out, rev)
	}
	return out, rows.Err()
}

// GetSetting returns the stored value for key, or "" when unset.
func (r *CardRepo) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting upserts one key/value pair.
func (r *CardRepo) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO settings(key, value) VALUES(?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
