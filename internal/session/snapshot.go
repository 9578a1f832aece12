package session

import (
	"github.com/keydrill/keydrill/internal/keybind"
	"github.com/keydrill/keydrill/internal/storage"
)

// Phase identifies the session screen for rendering.
type Phase uint8

const (
	PhaseDeckSelection Phase = iota
	PhaseStudying
	PhasePaused
	PhaseSummary
)

// Snapshot is an immutable view of the session for the render layer.
// Only the fields relevant to Phase are populated.
type Snapshot struct {
	Phase     Phase
	ShowHints bool

	// deck selection
	Decks  []storage.DeckStats
	Cursor int

	// studying / paused
	Deck        string
	Clue        string
	Answer      string
	Typed       []string
	Status      keybind.MatchStatus
	Attempts    int
	MaxAttempts int
	Revealed    bool
	NearMiss    bool
	FlashingOK  bool
	Remaining   int

	// studying and summary
	Stats Stats
}

// Snapshot captures the current session state for rendering.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{ShowHints: s.showHints, MaxAttempts: s.cfg.Study.MaxAttempts}

	switch p := s.phase.(type) {
	case *deckSelection:
		snap.Phase = PhaseDeckSelection
		snap.Decks = p.decks
		snap.Cursor = p.cursor
	case *studying:
		snap.Phase = PhaseStudying
		fillStudy(&snap, p)
	case *paused:
		snap.Phase = PhasePaused
		fillStudy(&snap, p.prev)
	case *summary:
		snap.Phase = PhaseSummary
		snap.Stats = p.stats
	}
	return snap
}

func fillStudy(snap *Snapshot, st *studying) {
	card := st.current()
	snap.Deck = card.Record.Deck
	snap.Clue = card.Record.Description
	snap.Answer = card.Keybind.String()
	snap.Attempts = st.attempts
	snap.Revealed = st.revealed
	snap.NearMiss = st.nearMiss
	snap.Remaining = len(st.queue) - st.index
	snap.Stats = st.stats
	snap.FlashingOK = st.flash != nil && st.flash.kind == flashSuccess

	state := st.matcher.State()
	snap.Status = state.Status
	for _, ch := range state.Typed {
		snap.Typed = append(snap.Typed, ch.String())
	}
}
