package keybind

import (
	"fmt"
	"strings"
)

// Keybind is an ordered, non-empty sequence of chords making up one shortcut.
type Keybind []Chord

// Parse parses a whitespace-separated chord sequence, e.g. "Ctrl+K Ctrl+C"
// or "g g".
func Parse(s string) (Keybind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty keybind", ErrParse)
	}

	fields := strings.Fields(s)
	kb := make(Keybind, 0, len(fields))
	for _, field := range fields {
		chord, err := ParseChord(field)
		if err != nil {
			return nil, err
		}
		kb = append(kb, chord)
	}
	return kb, nil
}

// ParseCommand builds a keybind from a literal command string: one chord per
// character plus a trailing Enter chord to submit. Used by CLI-style decks
// where the answer is typed out rather than pressed as a combination.
func ParseCommand(cmd string) (Keybind, error) {
	if cmd == "" {
		return nil, fmt.Errorf("%w: empty command", ErrParse)
	}

	runes := []rune(cmd)
	kb := make(Keybind, 0, len(runes)+1)
	for _, r := range runes {
		kb = append(kb, Chord{Key: Key{Code: CodeChar, Ch: r}})
	}
	kb = append(kb, Chord{Key: Key{Code: CodeEnter}})
	return kb, nil
}

func (kb Keybind) String() string {
	parts := make([]string, len(kb))
	for i, chord := range kb {
		parts[i] = chord.String()
	}
	return strings.Join(parts, " ")
}
