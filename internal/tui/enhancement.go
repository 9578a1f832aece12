package tui

import (
	"fmt"
	"io"

	"github.com/keydrill/keydrill/internal/keybind"
)

// Kitty keyboard-protocol progressive enhancement flags.
const (
	flagDisambiguate = 1
	flagAlternates   = 4
	flagAllAsEscapes = 8
)

// enhancementGuard owns the terminal's keyboard-reporting mode. A flag
// set is pushed when a card becomes active and popped on every exit
// path, including quit mid-study, so the terminal is never left in an
// enhanced mode.
type enhancementGuard struct {
	w      io.Writer
	pushed bool
	flags  int
}

func newEnhancementGuard(w io.Writer) *enhancementGuard {
	return &enhancementGuard{w: w}
}

// modeFlags picks the reporting flags each keyboard mode relies on.
// Raw decks want the physical key; Chars and Command decks also need
// shifted-character reporting to tell case apart.
func modeFlags(mode keybind.Mode) int {
	switch mode {
	case keybind.ModeChars, keybind.ModeCommand:
		return flagDisambiguate | flagAllAsEscapes | flagAlternates
	default:
		return flagDisambiguate | flagAllAsEscapes
	}
}

// Reconcile drives the terminal toward the wanted state: flags for the
// active mode while a card is up, none otherwise.
func (g *enhancementGuard) Reconcile(mode keybind.Mode, active bool) {
	if !active {
		g.Release()
		return
	}
	flags := modeFlags(mode)
	if g.pushed && g.flags == flags {
		return
	}
	g.Release()
	fmt.Fprintf(g.w, "\x1b[>%du", flags)
	g.pushed = true
	g.flags = flags
}

// Release pops the pushed flag set if any. Safe to call repeatedly.
func (g *enhancementGuard) Release() {
	if !g.pushed {
		return
	}
	fmt.Fprint(g.w, "\x1b[<u")
	g.pushed = false
	g.flags = 0
}
