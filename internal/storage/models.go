package storage

import (
	"time"

	"github.com/keydrill/keydrill/internal/keybind"
)

// Card is the persisted state of one keybind, identified by (deck, keybind).
// Stability/Difficulty/DueDate/LastReview are nil until the card has been
// scored at least once.
type Card struct {
	ID                string
	Deck              string
	Keybind           string
	Description       string
	Stability         *float64
	Difficulty        *float64
	DueDate           *time.Time
	LastReview        *time.Time
	ReviewCount       int
	PresentationCount int // shown since the last successful first-try score
}

// DeckStats summarizes a deck for the selection screen.
type DeckStats struct {
	Name       string
	TotalCards int
	DueCards   int
	Mode       keybind.Mode
}

// Review is one append-only audit log entry, kept for future parameter
// training.
type Review struct {
	ID             string
	CardID         string
	Rating         int
	ResponseTimeMS int64
	Attempts       int
	ReviewedAt     time.Time
}

// DeckSync is the input for reconciling one deck file with the database.
type DeckSync struct {
	Deck  string
	Cards []DeckSyncCard
}

// DeckSyncCard carries the canonical keybind text and description of one
// card in a deck file.
type DeckSyncCard struct {
	Keybind     string
	Description string
}
