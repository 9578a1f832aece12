package keybind

import "fmt"

// Mode describes how the active terminal reports key presses. Decks declare
// which convention their chords were written against, and matching adapts to
// it: Raw terminals report the physical key (Shift+g), Chars terminals report
// the resulting character ('G'). Command decks behave like Chars but are
// authored as literal command strings.
type Mode uint8

const (
	ModeRaw Mode = iota
	ModeChars
	ModeCommand
)

var modeNames = map[Mode]string{
	ModeRaw:     "raw",
	ModeChars:   "chars",
	ModeCommand: "command",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode resolves a deck mode directive value.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "raw":
		return ModeRaw, nil
	case "chars":
		return ModeChars, nil
	case "command":
		return ModeCommand, nil
	}
	return ModeRaw, fmt.Errorf("%w: unknown keyboard mode %q", ErrParse, s)
}
