// Package session implements the study loop: it sequences due cards,
// feeds key events to the matcher, derives ratings, schedules reviews
// and tracks per-session statistics. It owns no terminal state; the
// render layer consumes Snapshot values and routes key events in.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/keydrill/keydrill/internal/config"
	"github.com/keydrill/keydrill/internal/keybind"
	"github.com/keydrill/keydrill/internal/srs"
	"github.com/keydrill/keydrill/internal/storage"
)

// Store is the persistence surface the session depends on.
type Store interface {
	GetDueCards(ctx context.Context, deck string) ([]storage.Card, error)
	UpdateCardAfterReview(ctx context.Context, id string, stability, difficulty float64, due time.Time) error
	IncrementPresentationCount(ctx context.Context, id string) error
	RecordReview(ctx context.Context, cardID string, rating int, responseTimeMS int64, attempts int) error
	GetDeckStats(ctx context.Context, modes map[string]keybind.Mode) ([]storage.DeckStats, error)
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

const showHintsKey = "show_hints"

// StudyCard pairs a stored record with its parsed keybind for the
// duration of one session. Requeues clone the whole value.
type StudyCard struct {
	Record  storage.Card
	Keybind keybind.Keybind
	Mode    keybind.Mode
}

// Stats accumulates over one study run.
type Stats struct {
	Reviewed int
	Correct  int
	Start    time.Time
	End      *time.Time
}

// Each phase owns only the data that exists in that phase.
type phase interface{ isPhase() }

type deckSelection struct {
	decks  []storage.DeckStats
	cursor int
}

type flashKind uint8

const (
	flashSuccess flashKind = iota
	flashFailed
)

// flash is a timed display window. Key events arriving while it is open
// are deferred, never dropped.
type flash struct {
	kind  flashKind
	until time.Time
}

type studying struct {
	queue     []StudyCard
	index     int
	matcher   *keybind.Matcher
	attempts  int
	startedAt time.Time
	revealed  bool
	nearMiss  bool
	flash     *flash
	pending   []keybind.Event
	scored    map[string]bool
	stats     Stats
}

// paused wraps the studying phase it interrupted. Resume restores it
// after shifting its timers forward by the paused duration.
type paused struct {
	prev  *studying
	since time.Time
}

type summary struct {
	stats Stats
}

func (*deckSelection) isPhase() {}
func (*studying) isPhase()      {}
func (*paused) isPhase()        {}
func (*summary) isPhase()       {}

func (st *studying) current() *StudyCard { return &st.queue[st.index] }

// Session is the single-threaded orchestrator. All mutation happens on
// the caller's goroutine through HandleKey and Tick.
type Session struct {
	cfg   config.Config
	store Store
	sched *srs.Scheduler
	modes map[string]keybind.Mode

	now func() time.Time
	rng *rand.Rand

	phase     phase
	showHints bool
	exit      bool
}

// New builds a session at the deck-selection phase. modes maps deck
// names to their keyboard modes as declared in the deck files.
func New(ctx context.Context, cfg config.Config, store Store, sched *srs.Scheduler, modes map[string]keybind.Mode) (*Session, error) {
	s := &Session{
		cfg:   cfg,
		store: store,
		sched: sched,
		modes: modes,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	hints, err := store.GetSetting(ctx, showHintsKey)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	// The help footer is on unless explicitly turned off.
	s.showHints = hints != "false"
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh reloads deck statistics and enters deck selection.
func (s *Session) Refresh(ctx context.Context) error {
	decks, err := s.store.GetDeckStats(ctx, s.modes)
	if err != nil {
		return fmt.Errorf("load deck stats: %w", err)
	}
	s.phase = &deckSelection{decks: decks}
	return nil
}

// ShouldExit reports that the quit key was pressed at the outermost
// phase and the program should terminate.
func (s *Session) ShouldExit() bool { return s.exit }

// ActiveMode returns the keyboard mode of the card being studied, and
// whether a card is active at all (studying or paused).
func (s *Session) ActiveMode() (keybind.Mode, bool) {
	switch p := s.phase.(type) {
	case *studying:
		return p.current().Mode, true
	case *paused:
		return p.prev.current().Mode, true
	}
	return keybind.ModeRaw, false
}

// HandleKey processes one key event in arrival order.
func (s *Session) HandleKey(ctx context.Context, ev keybind.Event) error {
	if ev.ModifierOnly() {
		return nil
	}

	// Global keybinds are matched under raw conventions so they work the
	// same on every screen regardless of the active deck's mode.
	if s.cfg.QuitChord().Matches(ev, keybind.ModeRaw) {
		return s.handleQuit(ctx)
	}
	if s.cfg.PauseChord().Matches(ev, keybind.ModeRaw) {
		s.togglePause()
		return nil
	}

	switch p := s.phase.(type) {
	case *deckSelection:
		return s.handleSelectKey(ctx, p, ev)
	case *studying:
		return s.handleStudyKey(ctx, p, ev)
	case *paused:
		// Only pause and quit act while paused.
		return nil
	case *summary:
		return s.Refresh(ctx)
	}
	return nil
}

// handleQuit backs out one level: studying returns to deck selection
// with nothing partial persisted, deck selection and summary exit.
func (s *Session) handleQuit(ctx context.Context) error {
	switch s.phase.(type) {
	case *studying, *paused:
		return s.Refresh(ctx)
	default:
		s.exit = true
		return nil
	}
}

func (s *Session) togglePause() {
	switch p := s.phase.(type) {
	case *studying:
		s.phase = &paused{prev: p, since: s.now()}
	case *paused:
		// Shift the card's timers forward so paused time never counts
		// toward response time or the timeout.
		delta := s.now().Sub(p.since)
		p.prev.startedAt = p.prev.startedAt.Add(delta)
		if p.prev.flash != nil {
			p.prev.flash.until = p.prev.flash.until.Add(delta)
		}
		s.phase = p.prev
	}
}

func (s *Session) handleSelectKey(ctx context.Context, sel *deckSelection, ev keybind.Event) error {
	if len(sel.decks) == 0 {
		return nil
	}
	switch {
	case ev.Mods == 0 && (ev.Key.Code == keybind.CodeUp || ev.Key == keybind.Key{Code: keybind.CodeChar, Ch: 'k'}):
		if sel.cursor > 0 {
			sel.cursor--
		}
	case ev.Mods == 0 && (ev.Key.Code == keybind.CodeDown || ev.Key == keybind.Key{Code: keybind.CodeChar, Ch: 'j'}):
		// Row 0 is "all decks", rows 1..n are individual decks.
		if sel.cursor < len(sel.decks) {
			sel.cursor++
		}
	case ev.Mods == 0 && ev.Key.Code == keybind.CodeEnter:
		var names []string
		if sel.cursor == 0 {
			for _, d := range sel.decks {
				names = append(names, d.Name)
			}
		} else {
			names = []string{sel.decks[sel.cursor-1].Name}
		}
		return s.startStudy(ctx, names)
	case ev.Mods == 0 && ev.Key == (keybind.Key{Code: keybind.CodeChar, Ch: 'h'}):
		s.showHints = !s.showHints
		value := "false"
		if s.showHints {
			value = "true"
		}
		return s.store.SetSetting(ctx, showHintsKey, value)
	}
	return nil
}

// startStudy loads the due cards for the chosen decks and enters the
// studying phase, or goes straight to an empty summary when nothing is
// due.
func (s *Session) startStudy(ctx context.Context, decks []string) error {
	var queue []StudyCard
	for _, name := range decks {
		records, err := s.store.GetDueCards(ctx, name)
		if err != nil {
			return fmt.Errorf("load due cards for %s: %w", name, err)
		}
		mode := s.modes[name]
		for _, rec := range records {
			kb, err := keybind.Parse(rec.Keybind)
			if err != nil {
				return fmt.Errorf("card %s in deck %s: %w", rec.Keybind, name, err)
			}
			queue = append(queue, StudyCard{Record: rec, Keybind: kb, Mode: mode})
		}
	}

	stats := Stats{Start: s.now()}
	if len(queue) == 0 {
		end := stats.Start
		stats.End = &end
		s.phase = &summary{stats: stats}
		return nil
	}
	if s.cfg.Study.ShuffleCards {
		s.rng.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})
	}

	st := &studying{
		queue:     queue,
		matcher:   keybind.NewMatcher(queue[0].Keybind, queue[0].Mode),
		startedAt: s.now(),
		scored:    make(map[string]bool),
		stats:     stats,
	}
	s.phase = st
	return nil
}
