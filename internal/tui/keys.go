package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/keydrill/keydrill/internal/config"
	"github.com/keydrill/keydrill/internal/keybind"
)

// keyMap drives the help footer. The study loop itself consumes raw
// events, not bindings, because the expected answer can be any chord.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Hints  key.Binding
	Reveal key.Binding
	Pause  key.Binding
	Quit   key.Binding
}

func newKeyMap(cfg config.Config) keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "study")),
		Hints:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "toggle key help")),
		Reveal: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "show answer")),
		Pause:  key.NewBinding(key.WithKeys(teaKeyName(cfg.Keys.Pause)), key.WithHelp(cfg.Keys.Pause, "pause")),
		Quit:   key.NewBinding(key.WithKeys(teaKeyName(cfg.Keys.Quit)), key.WithHelp(cfg.Keys.Quit, "quit")),
	}
}

// teaKeyName lowers a display-form chord like "Ctrl+Q" into bubbletea's
// "ctrl+q" spelling for help rendering.
func teaKeyName(s string) string { return strings.ToLower(s) }

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}

// teaNames maps bubbletea key names to key symbols.
var teaNames = map[string]keybind.Key{
	"enter":     {Code: keybind.CodeEnter},
	"esc":       {Code: keybind.CodeEsc},
	"tab":       {Code: keybind.CodeTab},
	"backspace": {Code: keybind.CodeBackspace},
	"delete":    {Code: keybind.CodeDelete},
	"insert":    {Code: keybind.CodeInsert},
	"home":      {Code: keybind.CodeHome},
	"end":       {Code: keybind.CodeEnd},
	"pgup":      {Code: keybind.CodePageUp},
	"pgdown":    {Code: keybind.CodePageDown},
	"up":        {Code: keybind.CodeUp},
	"down":      {Code: keybind.CodeDown},
	"left":      {Code: keybind.CodeLeft},
	"right":     {Code: keybind.CodeRight},
	"space":     {Code: keybind.CodeChar, Ch: ' '},
}

func init() {
	for n := 1; n <= 20; n++ {
		teaNames[fmt.Sprintf("f%d", n)] = keybind.Key{Code: keybind.CodeFn, Fn: n}
	}
}

// eventFromKeyMsg translates a bubbletea key message into a key event.
// Returns false for messages with no chord equivalent (bracketed paste,
// unknown sequences).
func eventFromKeyMsg(msg tea.KeyMsg) (keybind.Event, bool) {
	if msg.Type == tea.KeyRunes {
		if len(msg.Runes) != 1 {
			return keybind.Event{}, false
		}
		ev := keybind.Event{Key: keybind.Key{Code: keybind.CodeChar, Ch: msg.Runes[0]}}
		if msg.Alt {
			ev.Mods |= keybind.ModAlt
		}
		return ev, true
	}

	s := msg.String()
	var mods keybind.Mod
	for {
		switch {
		case strings.HasPrefix(s, "ctrl+"):
			mods |= keybind.ModCtrl
			s = s[len("ctrl+"):]
		case strings.HasPrefix(s, "alt+"):
			mods |= keybind.ModAlt
			s = s[len("alt+"):]
		case strings.HasPrefix(s, "shift+"):
			mods |= keybind.ModShift
			s = s[len("shift+"):]
		default:
			if k, ok := teaNames[s]; ok {
				return keybind.Event{Key: k, Mods: mods}, true
			}
			if runes := []rune(s); len(runes) == 1 {
				return keybind.Event{Key: keybind.Key{Code: keybind.CodeChar, Ch: runes[0]}, Mods: mods}, true
			}
			return keybind.Event{}, false
		}
	}
}
