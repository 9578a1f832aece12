package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

// SyncDecks reconciles the database with the deck files on disk.
//
// New cards are inserted fresh. A card whose description changed keeps its
// identity but loses its memory state, since the prompt it was learned
// under no longer exists. Cards and decks absent from disk are removed,
// along with their review history via the FK cascade. present lists every
// deck name that exists on disk, parsed or not, so a deck with a syntax
// error keeps its cards until it is actually deleted.
func (r *CardRepo) SyncDecks(ctx context.Context, decks []DeckSync, present []string) error {
	return WithTx(r.db, func(tx *sql.Tx) error {
		for _, d := range decks {
			if err := syncDeck(ctx, tx, d); err != nil {
				return err
			}
		}
		return deleteOrphanDecks(ctx, tx, present)
	})
}

func syncDeck(ctx context.Context, tx *sql.Tx, d DeckSync) error {
	existing := map[string]struct {
		id          string
		description string
	}{}
	rows, err := tx.QueryContext(ctx,
		`SELECT id, keybind, description FROM cards WHERE deck = ?`, d.Deck)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id, kb, desc string
		if err := rows.Scan(&id, &kb, &desc); err != nil {
			rows.Close()
			return err
		}
		existing[kb] = struct {
			id          string
			description string
		}{id, desc}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(d.Cards))
	for _, c := range d.Cards {
		seen[c.Keybind] = true
		prev, ok := existing[c.Keybind]
		switch {
		case !ok:
			_, err = tx.ExecContext(ctx, `
			INSERT INTO cards(id, deck, keybind, description)
			VALUES(?, ?, ?, ?)`,
				uuid.NewString(), d.Deck, c.Keybind, c.Description)
		case prev.description != c.Description:
			_, err = tx.ExecContext(ctx, `
			UPDATE cards SET
				description = ?,
				stability = NULL, difficulty = NULL,
				due_date = NULL, last_review = NULL,
				review_count = 0, current_presentation_count = 0,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, c.Description, prev.id)
		}
		if err != nil {
			return err
		}
	}

	for kb, prev := range existing {
		if seen[kb] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, prev.id); err != nil {
			return err
		}
	}
	return nil
}

func deleteOrphanDecks(ctx context.Context, tx *sql.Tx, present []string) error {
	if len(present) == 0 {
		_, err := tx.ExecContext(ctx, `DELETE FROM cards`)
		return err
	}
	names := make([]any, len(present))
	marks := make([]string, len(present))
	for i, name := range present {
		names[i] = name
		marks[i] = "?"
	}
	_, err := tx.ExecContext(ctx,
		`DELETE FROM cards WHERE deck NOT IN (`+strings.Join(marks, ",")+`)`,
		names...)
	return err
}
