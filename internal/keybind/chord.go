package keybind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrParse marks malformed chord or keybind text. Check with errors.Is.
var ErrParse = errors.New("keybind: parse error")

// Mod is a bitmask of modifier keys held during a chord.
type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModAlt
	ModShift
	ModSuper
	ModMeta
	ModHyper
)

// canonical display order for modifiers
var modOrder = []struct {
	mod  Mod
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
	{ModSuper, "Super"},
	{ModMeta, "Meta"},
	{ModHyper, "Hyper"},
}

// Code identifies the non-modifier key of a chord.
type Code uint8

const (
	CodeNone Code = iota // modifier-only key event
	CodeChar
	CodeFn
	CodeEnter
	CodeEsc
	CodeBackspace
	CodeTab
	CodeBackTab
	CodeLeft
	CodeRight
	CodeUp
	CodeDown
	CodeHome
	CodeEnd
	CodePageUp
	CodePageDown
	CodeDelete
	CodeInsert
	CodeCapsLock
	CodeScrollLock
	CodeNumLock
	CodePrintScreen
	CodePause
	CodeMenu
)

// Key is one non-modifier key. Ch is set for CodeChar, Fn for CodeFn.
type Key struct {
	Code Code
	Ch   rune
	Fn   int
}

// Event is a live key press as reported by the terminal. It has the same
// shape as a Chord but may be modifier-only (Key.Code == CodeNone).
type Event struct {
	Key  Key
	Mods Mod
}

// ModifierOnly reports whether the event carries no key symbol.
func (e Event) ModifierOnly() bool { return e.Key.Code == CodeNone }

// Chord returns the event reinterpreted as a chord, for echoing typed input.
func (e Event) Chord() Chord { return Chord{Key: e.Key, Mods: e.Mods} }

// Chord is one key plus its modifier set. Immutable once parsed.
type Chord struct {
	Key  Key
	Mods Mod
}

var namedKeys = map[string]Key{
	"backspace":   {Code: CodeBackspace},
	"back":        {Code: CodeBackspace},
	"enter":       {Code: CodeEnter},
	"return":      {Code: CodeEnter},
	"left":        {Code: CodeLeft},
	"right":       {Code: CodeRight},
	"up":          {Code: CodeUp},
	"down":        {Code: CodeDown},
	"home":        {Code: CodeHome},
	"end":         {Code: CodeEnd},
	"pageup":      {Code: CodePageUp},
	"pgup":        {Code: CodePageUp},
	"pagedown":    {Code: CodePageDown},
	"pgdn":        {Code: CodePageDown},
	"pgdown":      {Code: CodePageDown},
	"tab":         {Code: CodeTab},
	"backtab":     {Code: CodeBackTab},
	"delete":      {Code: CodeDelete},
	"del":         {Code: CodeDelete},
	"insert":      {Code: CodeInsert},
	"ins":         {Code: CodeInsert},
	"esc":         {Code: CodeEsc},
	"escape":      {Code: CodeEsc},
	"space":       {Code: CodeChar, Ch: ' '},
	"capslock":    {Code: CodeCapsLock},
	"scrolllock":  {Code: CodeScrollLock},
	"numlock":     {Code: CodeNumLock},
	"printscreen": {Code: CodePrintScreen},
	"print":       {Code: CodePrintScreen},
	"pause":       {Code: CodePause},
	"menu":        {Code: CodeMenu},
}

var keyNames = map[Code]string{
	CodeBackspace:   "Backspace",
	CodeEnter:       "Enter",
	CodeLeft:        "Left",
	CodeRight:       "Right",
	CodeUp:          "Up",
	CodeDown:        "Down",
	CodeHome:        "Home",
	CodeEnd:         "End",
	CodePageUp:      "PageUp",
	CodePageDown:    "PageDown",
	CodeTab:         "Tab",
	CodeBackTab:     "BackTab",
	CodeDelete:      "Delete",
	CodeInsert:      "Insert",
	CodeEsc:         "Esc",
	CodeCapsLock:    "CapsLock",
	CodeScrollLock:  "ScrollLock",
	CodeNumLock:     "NumLock",
	CodePrintScreen: "PrintScreen",
	CodePause:       "Pause",
	CodeMenu:        "Menu",
}

// ParseChord parses a single chord like "Ctrl+S", "Alt+Left" or "g".
// Modifier tokens are case-insensitive; exactly one non-modifier token must
// remain and it resolves through the named-key table or, for a single
// character, is taken literally.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("%w: empty chord", ErrParse)
	}

	var mods Mod
	var keyToken string

	// The literal plus key is written "+" alone or after another
	// separator ("Ctrl++"), which plain splitting would read as empty
	// tokens. A single dangling "+" ("Ctrl+") stays an error.
	if s == "+" || strings.HasSuffix(s, "++") {
		keyToken = "+"
		s = strings.TrimSuffix(s, "+")
		s = strings.TrimSuffix(s, "+")
	}

	var parts []string
	if s != "" {
		parts = strings.Split(s, "+")
	}
	for _, part := range parts {
		switch strings.ToLower(part) {
		case "ctrl", "control":
			mods |= ModCtrl
		case "alt":
			mods |= ModAlt
		case "shift":
			mods |= ModShift
		case "super":
			mods |= ModSuper
		case "meta":
			mods |= ModMeta
		case "hyper":
			mods |= ModHyper
		default:
			if keyToken != "" {
				return Chord{}, fmt.Errorf("%w: multiple keys in chord %q", ErrParse, s)
			}
			keyToken = part
		}
	}
	if keyToken == "" {
		return Chord{}, fmt.Errorf("%w: no key in chord %q", ErrParse, s)
	}

	key, err := parseKey(keyToken)
	if err != nil {
		return Chord{}, err
	}
	return Chord{Key: key, Mods: mods}, nil
}

func parseKey(s string) (Key, error) {
	runes := []rune(s)
	if len(runes) == 1 {
		return Key{Code: CodeChar, Ch: runes[0]}, nil
	}

	lower := strings.ToLower(s)
	if key, ok := namedKeys[lower]; ok {
		return key, nil
	}
	if strings.HasPrefix(lower, "f") {
		n, err := strconv.Atoi(lower[1:])
		if err != nil || n < 1 {
			return Key{}, fmt.Errorf("%w: invalid function key %q", ErrParse, s)
		}
		return Key{Code: CodeFn, Fn: n}, nil
	}
	return Key{}, fmt.Errorf("%w: unknown key %q", ErrParse, s)
}

// String renders the chord in canonical form: modifiers in fixed order
// followed by the key name. The output round-trips through ParseChord and is
// also what the user is shown as the literal answer.
func (c Chord) String() string {
	parts := make([]string, 0, 4)
	for _, m := range modOrder {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, c.Key.displayName())
	return strings.Join(parts, "+")
}

func (k Key) displayName() string {
	switch k.Code {
	case CodeChar:
		if k.Ch == ' ' {
			return "Space"
		}
		return string(k.Ch)
	case CodeFn:
		return fmt.Sprintf("F%d", k.Fn)
	case CodeNone:
		return ""
	default:
		return keyNames[k.Code]
	}
}

// Matches reports whether a live key event satisfies this chord under the
// given keyboard mode.
//
// Terminals differ in how shifted characters come through: a Chars-mode
// terminal reports the resulting character ('G'), a Raw-mode terminal the
// physical key (Shift+g). Chords without explicit modifiers therefore accept
// both renderings, chords with explicit modifiers compare the character
// case-insensitively under Raw and exactly under Chars/Command.
func (c Chord) Matches(ev Event, mode Mode) bool {
	if c.Key.Code == CodeChar && ev.Key.Code == CodeChar {
		if c.Mods == 0 {
			if c.Key.Ch == ev.Key.Ch {
				return true
			}
			if ev.Mods == ModShift && unicode.IsUpper(c.Key.Ch) &&
				ev.Key.Ch == unicode.ToLower(c.Key.Ch) {
				return true
			}
			return false
		}
		if c.Mods != ev.Mods {
			return false
		}
		if mode == ModeRaw {
			return unicode.ToLower(c.Key.Ch) == unicode.ToLower(ev.Key.Ch)
		}
		return c.Key.Ch == ev.Key.Ch
	}

	// Non-character keys: exact equality in every mode.
	return c.Key == ev.Key && c.Mods == ev.Mods
}
