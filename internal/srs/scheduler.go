package srs

import (
	"fmt"
	"time"

	"github.com/sky-flux/flux"
)

// MemoryState is the opaque retention model for one card, round-tripped
// between storage and the memory model.
type MemoryState struct {
	Stability  float64
	Difficulty float64
}

// dueSlack keeps a near-zero interval from making the card immediately due
// again through clock rounding.
const dueSlack = time.Hour

// Scheduler adapts the flux memory model to review decisions: given a prior
// memory state and a rating it produces the new state and due date. The
// scheduler itself owns only the interval modifier and cap; the
// forgetting-curve math lives entirely in flux.
type Scheduler struct {
	model            *flux.Scheduler
	intervalModifier float64
	maxIntervalDays  int
}

// NewScheduler validates the configuration and builds the underlying model.
// Fuzzing and sub-day learning steps are disabled so identical inputs always
// produce identical whole-day intervals.
func NewScheduler(desiredRetention, intervalModifier float64, maxIntervalDays int) (*Scheduler, error) {
	if intervalModifier <= 0 {
		return nil, fmt.Errorf("srs: interval modifier %v must be positive", intervalModifier)
	}
	if maxIntervalDays < 1 {
		return nil, fmt.Errorf("srs: max interval %d must be at least one day", maxIntervalDays)
	}

	model, err := flux.NewScheduler(flux.SchedulerConfig{
		DesiredRetention: desiredRetention,
		LearningSteps:    []time.Duration{},
		RelearningSteps:  []time.Duration{},
		MaximumInterval:  maxIntervalDays,
		DisableFuzzing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("srs: %w", err)
	}

	return &Scheduler{
		model:            model,
		intervalModifier: intervalModifier,
		maxIntervalDays:  maxIntervalDays,
	}, nil
}

// Schedule selects the outcome for rating among the model's four candidate
// next states and returns the new memory state plus the due date. A nil
// memory means the card has never been scored. Errors leave the card
// unscored; callers must not fabricate a state in that case.
func (s *Scheduler) Schedule(memory *MemoryState, lastReview *time.Time, rating flux.Rating, now time.Time) (MemoryState, time.Time, error) {
	if !rating.IsValid() {
		return MemoryState{}, time.Time{}, fmt.Errorf("srs: %w: %d", flux.ErrInvalidRating, rating)
	}
	if memory != nil && memory.Stability <= 0 {
		return MemoryState{}, time.Time{}, fmt.Errorf("srs: invalid memory state: stability %v", memory.Stability)
	}

	card := flux.Card{CardID: 1, State: flux.Review}
	if memory == nil {
		step := 0
		card.State = flux.Learning
		card.Step = &step
	} else {
		stability, difficulty := memory.Stability, memory.Difficulty
		card.Stability = &stability
		card.Difficulty = &difficulty
		// Clamp to whole non-negative days so a future last_review (clock
		// skew) cannot produce a negative elapsed time.
		last := now.Add(-time.Duration(elapsedDays(lastReview, now)) * 24 * time.Hour)
		card.LastReview = &last
	}

	outcome, ok := s.model.PreviewCard(card, now)[rating]
	if !ok || outcome.Stability == nil || outcome.Difficulty == nil {
		return MemoryState{}, time.Time{}, fmt.Errorf("srs: memory model returned no outcome for %s", rating)
	}

	rawDays := outcome.Due.Sub(now).Hours() / 24
	days := rawDays * s.intervalModifier
	if days > float64(s.maxIntervalDays) {
		days = float64(s.maxIntervalDays)
	}
	due := now.Add(time.Duration(days*86400)*time.Second + dueSlack)

	return MemoryState{Stability: *outcome.Stability, Difficulty: *outcome.Difficulty}, due, nil
}

func elapsedDays(lastReview *time.Time, now time.Time) int {
	if lastReview == nil {
		return 0
	}
	days := int(now.Sub(*lastReview).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
