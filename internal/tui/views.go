package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/keydrill/keydrill/internal/keybind"
	"github.com/keydrill/keydrill/internal/session"
)

// styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	clueStyle   = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

func (a *App) renderDeckSelection(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("KeyDrill") + "\n\n")

	if len(snap.Decks) == 0 {
		b.WriteString("No decks found. Put .tsv deck files in the decks directory.\n")
		b.WriteString("\n" + helpLine(a.keys.Quit))
		return b.String()
	}

	totalDue := 0
	for _, d := range snap.Decks {
		totalDue += d.DueCards
	}
	rows := []string{fmt.Sprintf("All decks  %s", dimStyle.Render(fmt.Sprintf("(%d due)", totalDue)))}
	for _, d := range snap.Decks {
		rows = append(rows, fmt.Sprintf("%-20s %s", d.Name,
			dimStyle.Render(fmt.Sprintf("(%d/%d due, %s)", d.DueCards, d.TotalCards, d.Mode))))
	}
	for i, row := range rows {
		if i == snap.Cursor {
			b.WriteString(cursorStyle.Render("> "+row) + "\n")
		} else {
			b.WriteString("  " + row + "\n")
		}
	}

	if snap.ShowHints {
		b.WriteString("\n" + helpLine(a.keys.Up, a.keys.Down, a.keys.Select, a.keys.Hints, a.keys.Quit))
	} else {
		b.WriteString("\n" + helpLine(a.keys.Hints))
	}
	return b.String()
}

func (a *App) renderStudy(snap session.Snapshot, isPaused bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(snap.Deck))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d cards left", snap.Remaining)) + "\n\n")
	b.WriteString(clueStyle.Render(snap.Clue) + "\n\n")

	switch {
	case isPaused:
		b.WriteString("Paused. Press " + a.keys.Pause.Help().Key + " to resume.\n")
		return b.String()
	case snap.FlashingOK:
		b.WriteString(okStyle.Render(strings.Join(snap.Typed, " ")+"  ✓") + "\n")
	case snap.Status == keybind.MatchFailed:
		line := failStyle.Render(strings.Join(snap.Typed, " ") + "  ✗")
		if snap.NearMiss {
			line += dimStyle.Render("  so close!")
		}
		b.WriteString(line + "\n")
	case len(snap.Typed) > 0:
		b.WriteString(okStyle.Render(strings.Join(snap.Typed, " ")) + "\n")
	default:
		b.WriteString(dimStyle.Render("type the shortcut...") + "\n")
	}

	if snap.Revealed {
		b.WriteString("\nAnswer: " + clueStyle.Render(snap.Answer) + "\n")
		b.WriteString(dimStyle.Render("type it to continue") + "\n")
	}

	if snap.Attempts > 0 && snap.Attempts < snap.MaxAttempts && !snap.Revealed {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\nattempt %d/%d", snap.Attempts+1, snap.MaxAttempts)) + "\n")
	}

	if snap.ShowHints {
		b.WriteString("\n" + helpLine(a.keys.Reveal, a.keys.Pause, a.keys.Quit))
	}
	return b.String()
}

func (a *App) renderSummary(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Session complete") + "\n\n")
	b.WriteString(fmt.Sprintf("Reviewed: %d\n", snap.Stats.Reviewed))
	b.WriteString(fmt.Sprintf("Correct: %d\n", snap.Stats.Correct))
	if snap.Stats.End != nil {
		elapsed := snap.Stats.End.Sub(snap.Stats.Start).Round(time.Second)
		b.WriteString(fmt.Sprintf("Time: %s\n", elapsed))
	}
	b.WriteString("\n" + dimStyle.Render("press any key for deck selection"))
	return b.String()
}
