package keybind

// MatchStatus classifies the matcher's progress through an attempt.
type MatchStatus uint8

const (
	MatchInProgress MatchStatus = iota
	MatchComplete
	MatchFailed
)

// MatchState is a snapshot of an attempt: its status plus every chord typed
// so far, in order, for display.
type MatchState struct {
	Status MatchStatus
	Typed  []Chord
}

// Matcher tracks one attempt at reproducing an expected keybind, consuming
// one key event at a time. A fresh matcher starts InProgress with nothing
// typed; Complete and Failed are terminal until Reset or, after a failure,
// the next key press which implicitly starts a new attempt.
type Matcher struct {
	expected Keybind
	mode     Mode
	typed    []Chord
	failed   bool
}

func NewMatcher(expected Keybind, mode Mode) *Matcher {
	return &Matcher{expected: expected, mode: mode}
}

// Process consumes one key event and returns the resulting state.
// Modifier-only events are ignored. After a failure, the next event clears
// the typed chords and begins a fresh attempt.
func (m *Matcher) Process(ev Event) MatchState {
	if ev.ModifierOnly() {
		return m.State()
	}

	if m.failed {
		m.typed = m.typed[:0]
		m.failed = false
	}

	m.typed = append(m.typed, ev.Chord())

	position := len(m.typed) - 1
	if position >= len(m.expected) || !m.expected[position].Matches(ev, m.mode) {
		m.failed = true
		return m.snapshot(MatchFailed)
	}

	if len(m.typed) == len(m.expected) {
		return m.snapshot(MatchComplete)
	}
	return m.snapshot(MatchInProgress)
}

// Reset clears the attempt without consuming an event. Used when a failure's
// display window expires or the answer is revealed and must be typed.
func (m *Matcher) Reset() {
	m.typed = m.typed[:0]
	m.failed = false
}

// State recomputes the current state without consuming input.
func (m *Matcher) State() MatchState {
	switch {
	case m.failed:
		return m.snapshot(MatchFailed)
	case len(m.typed) > 0 && len(m.typed) == len(m.expected):
		return m.snapshot(MatchComplete)
	default:
		return m.snapshot(MatchInProgress)
	}
}

func (m *Matcher) snapshot(status MatchStatus) MatchState {
	typed := make([]Chord, len(m.typed))
	copy(typed, m.typed)
	return MatchState{Status: status, Typed: typed}
}
