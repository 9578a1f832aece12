// Package deck loads keybind decks from line-oriented TSV files:
// keybind<TAB>description, one card per line, # comments and blank lines
// skipped. A "# mode:" directive selects the deck's keyboard mode.
package deck

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/keydrill/keydrill/internal/keybind"
)

// Card is one prompt/answer pair.
type Card struct {
	Keybind     keybind.Keybind
	Description string
}

// Deck is a named set of cards sharing a keyboard mode.
type Deck struct {
	Name  string
	Mode  keybind.Mode
	Cards []Card
}

// Load parses one deck file. Errors carry file and line context; a bad deck
// fails on its own without affecting sibling decks.
func Load(path string) (*Deck, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck %s: %w", path, err)
	}

	d := &Deck{Name: Name(path), Mode: keybind.ModeRaw}

	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		lineNum := i + 1

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if value, ok := modeDirective(line); ok {
				mode, err := keybind.ParseMode(value)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
				}
				d.Mode = mode
			}
			continue
		}

		field := strings.SplitN(line, "\t", 2)
		if len(field) != 2 {
			return nil, fmt.Errorf("%s:%d: expected keybind<TAB>description", path, lineNum)
		}

		kb, err := parseKeybind(field[0], d.Mode)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
		d.Cards = append(d.Cards, Card{Keybind: kb, Description: strings.TrimSpace(field[1])})
	}

	return d, nil
}

// Name derives the deck name from its file path.
func Name(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// parseKeybind interprets the keybind column. Command decks write literal
// command strings, everything else writes chord notation.
func parseKeybind(s string, mode keybind.Mode) (keybind.Keybind, error) {
	if mode == keybind.ModeCommand {
		return keybind.ParseCommand(strings.TrimSpace(s))
	}
	return keybind.Parse(s)
}

func modeDirective(comment string) (string, bool) {
	rest := strings.TrimLeft(comment, "#")
	rest = strings.TrimSpace(rest)
	lower := strings.ToLower(rest)
	if !strings.HasPrefix(lower, "mode:") {
		return "", false
	}
	return strings.TrimSpace(lower[len("mode:"):]), true
}

// List returns the sorted .tsv deck paths under dir. A missing directory is
// an empty deck list, not an error.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read decks dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".tsv") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
