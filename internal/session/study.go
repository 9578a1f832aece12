package session

import (
	"context"
	"fmt"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/sky-flux/flux"

	"github.com/keydrill/keydrill/internal/keybind"
	"github.com/keydrill/keydrill/internal/srs"
)

// handleStudyKey routes one key event to the active card. Events that
// arrive during a flash window are queued and replayed when it closes.
func (s *Session) handleStudyKey(ctx context.Context, st *studying, ev keybind.Event) error {
	if st.flash != nil {
		st.pending = append(st.pending, ev)
		return nil
	}

	if s.isRevealRequest(st, ev) {
		s.reveal(st)
		return nil
	}

	res := st.matcher.Process(ev)
	switch res.Status {
	case keybind.MatchFailed:
		st.attempts++
		st.nearMiss = nearMiss(res.Typed, st.current().Keybind)
		st.flash = &flash{
			kind:  flashFailed,
			until: s.now().Add(time.Duration(s.cfg.Study.FailedFlashDelayMS) * time.Millisecond),
		}
	case keybind.MatchComplete:
		st.attempts++
		return s.scoreCompletion(ctx, st)
	}
	return nil
}

// isRevealRequest treats a bare Escape as "show me the answer", unless
// Escape is the very chord the card expects next.
func (s *Session) isRevealRequest(st *studying, ev keybind.Event) bool {
	if ev.Mods != 0 || ev.Key.Code != keybind.CodeEsc {
		return false
	}
	if st.revealed || st.attempts >= s.cfg.Study.MaxAttempts {
		return false
	}
	state := st.matcher.State()
	pos := len(state.Typed)
	if state.Status == keybind.MatchFailed {
		pos = 0
	}
	expected := st.current().Keybind
	if pos < len(expected) && expected[pos].Matches(ev, st.current().Mode) {
		return false
	}
	return true
}

// reveal forces the card into answer-revealed state: attempts are spent
// and the user must now type the shown answer to move on.
func (s *Session) reveal(st *studying) {
	st.attempts = s.cfg.Study.MaxAttempts
	st.revealed = true
	st.nearMiss = false
	st.matcher.Reset()
}

// scoreCompletion handles a completed match: derive a rating, schedule
// and persist at most once per card per session, requeue non-Easy cards
// for extra practice, and open the success flash window.
func (s *Session) scoreCompletion(ctx context.Context, st *studying) error {
	card := st.current()
	elapsed := s.now().Sub(st.startedAt).Milliseconds()
	rating := srs.RateResponse(elapsed, st.attempts, len(card.Keybind),
		int64(s.cfg.Study.EasyThresholdMS), int64(s.cfg.Study.HardThresholdMS),
		s.cfg.Study.MaxAttempts)

	scoredNow := false
	if !st.scored[card.Record.ID] {
		if err := s.persistReview(ctx, st, card, rating, elapsed); err != nil {
			// The card stays in the queue unscored. The matcher resets so
			// the completion is not silently counted as correct.
			st.matcher.Reset()
			return err
		}
		st.scored[card.Record.ID] = true
		st.stats.Reviewed++
		// Correct means the card needed no extra practice pass.
		if rating == flux.Easy {
			st.stats.Correct++
		}
		scoredNow = true
	}

	if rating != flux.Easy {
		st.queue = append(st.queue, *card)
		if !scoredNow {
			if err := s.store.IncrementPresentationCount(ctx, card.Record.ID); err != nil {
				return fmt.Errorf("requeue %s: %w", card.Record.Keybind, err)
			}
		}
	}

	st.flash = &flash{
		kind:  flashSuccess,
		until: s.now().Add(time.Duration(s.cfg.Study.SuccessDelayMS) * time.Millisecond),
	}
	return nil
}

func (s *Session) persistReview(ctx context.Context, st *studying, card *StudyCard, rating flux.Rating, elapsed int64) error {
	var memory *srs.MemoryState
	if card.Record.Stability != nil && card.Record.Difficulty != nil {
		memory = &srs.MemoryState{
			Stability:  *card.Record.Stability,
			Difficulty: *card.Record.Difficulty,
		}
	}
	state, due, err := s.sched.Schedule(memory, card.Record.LastReview, rating, s.now())
	if err != nil {
		return fmt.Errorf("schedule %s: %w", card.Record.Keybind, err)
	}
	if err := s.store.UpdateCardAfterReview(ctx, card.Record.ID, state.Stability, state.Difficulty, due); err != nil {
		return fmt.Errorf("persist review for %s: %w", card.Record.Keybind, err)
	}
	if err := s.store.RecordReview(ctx, card.Record.ID, int(rating), elapsed, st.attempts); err != nil {
		return fmt.Errorf("log review for %s: %w", card.Record.Keybind, err)
	}
	return nil
}

// Tick performs pending time-based transitions: flash-window expiry and
// the per-card timeout. The render loop calls it between key events.
func (s *Session) Tick(ctx context.Context) error {
	st, ok := s.phase.(*studying)
	if !ok {
		return nil
	}
	now := s.now()

	if st.flash != nil {
		if now.Before(st.flash.until) {
			return nil
		}
		kind := st.flash.kind
		st.flash = nil
		st.nearMiss = false
		pending := st.pending
		st.pending = nil

		if kind == flashSuccess {
			s.advance(st)
		} else {
			st.matcher.Reset()
			if st.attempts >= s.cfg.Study.MaxAttempts {
				st.revealed = true
			}
		}

		// Replay deferred events in arrival order. A new flash window or
		// phase change reroutes the remainder naturally.
		for _, ev := range pending {
			if err := s.HandleKey(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	}

	// A card can never block the session: running out of time behaves
	// exactly like exhausting all attempts.
	if !st.revealed && st.attempts < s.cfg.Study.MaxAttempts &&
		now.Sub(st.startedAt) >= time.Duration(s.cfg.Study.TimeoutSecs)*time.Second {
		s.reveal(st)
	}
	return nil
}

// advance moves to the next card, or to the summary when the queue is
// exhausted.
func (s *Session) advance(st *studying) {
	st.index++
	if st.index >= len(st.queue) {
		end := s.now()
		st.stats.End = &end
		s.phase = &summary{stats: st.stats}
		return
	}
	next := st.current()
	st.matcher = keybind.NewMatcher(next.Keybind, next.Mode)
	st.attempts = 0
	st.revealed = false
	st.nearMiss = false
	st.startedAt = s.now()
}

// nearMiss reports whether the typed sequence was close to the expected
// one, measured on their display strings.
func nearMiss(typed []keybind.Chord, expected keybind.Keybind) bool {
	if len(typed) == 0 {
		return false
	}
	d := levenshtein.ComputeDistance(keybind.Keybind(typed).String(), expected.String())
	return d > 0 && d <= 2
}
