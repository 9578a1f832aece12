// Package tui renders the session over bubbletea. It owns the terminal
// and the keyboard-enhancement lifecycle; all study logic lives in the
// session package.
package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/keydrill/keydrill/internal/config"
	"github.com/keydrill/keydrill/internal/session"
)

// tickInterval bounds how late a flash expiry or timeout can fire.
const tickInterval = 100 * time.Millisecond

type tickMsg time.Time

// App is the bubbletea model wrapping one session.
type App struct {
	ctx    context.Context
	sess   *session.Session
	guard  *enhancementGuard
	keys   keyMap
	status string
	width  int
	height int
}

func New(ctx context.Context, cfg config.Config, sess *session.Session, term io.Writer) *App {
	return &App{
		ctx:   ctx,
		sess:  sess,
		guard: newEnhancementGuard(term),
		keys:  newKeyMap(cfg),
	}
}

func (a *App) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		return a, nil

	case tickMsg:
		if err := a.sess.Tick(a.ctx); err != nil {
			a.status = err.Error()
		}
		return a.settle(tick())

	case tea.KeyMsg:
		ev, ok := eventFromKeyMsg(m)
		if !ok {
			return a, nil
		}
		if err := a.sess.HandleKey(a.ctx, ev); err != nil {
			a.status = err.Error()
		} else {
			a.status = ""
		}
		return a.settle(nil)
	}
	return a, nil
}

// settle reconciles the terminal mode with the session state and quits
// when the session asked to exit.
func (a *App) settle(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	mode, active := a.sess.ActiveMode()
	a.guard.Reconcile(mode, active)
	if a.sess.ShouldExit() {
		a.guard.Release()
		return a, tea.Quit
	}
	return a, cmd
}

func (a *App) View() string {
	snap := a.sess.Snapshot()
	var body string
	switch snap.Phase {
	case session.PhaseDeckSelection:
		body = a.renderDeckSelection(snap)
	case session.PhaseStudying:
		body = a.renderStudy(snap, false)
	case session.PhasePaused:
		body = a.renderStudy(snap, true)
	case session.PhaseSummary:
		body = a.renderSummary(snap)
	}
	if a.status != "" {
		body += "\n" + errStyle.Render(a.status)
	}
	return body + "\n"
}
