package deck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keydrill/keydrill/internal/keybind"
)

func writeDeck(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	return path
}

func TestLoadDeck(t *testing.T) {
	path := writeDeck(t, "editor.tsv",
		"Ctrl+S\tSave file\n"+
			"g g\tGo to top\n"+
			"# a comment\n"+
			"\n"+
			"Ctrl+K Ctrl+C\tComment selection\n")

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Name != "editor" {
		t.Fatalf("name = %q, want editor", d.Name)
	}
	if d.Mode != keybind.ModeRaw {
		t.Fatalf("mode = %v, want raw default", d.Mode)
	}
	if len(d.Cards) != 3 {
		t.Fatalf("cards = %d, want 3", len(d.Cards))
	}
	if d.Cards[0].Description != "Save file" {
		t.Fatalf("description = %q, want Save file", d.Cards[0].Description)
	}
	if len(d.Cards[1].Keybind) != 2 {
		t.Fatalf("g g chords = %d, want 2", len(d.Cards[1].Keybind))
	}
}

func TestLoadDeckModeDirective(t *testing.T) {
	path := writeDeck(t, "vim.tsv",
		"# mode: chars\n"+
			"G\tGo to bottom\n")

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Mode != keybind.ModeChars {
		t.Fatalf("mode = %v, want chars", d.Mode)
	}
}

func TestLoadCommandDeck(t *testing.T) {
	path := writeDeck(t, "git.tsv",
		"#mode: command\n"+
			"git st\tShort status\n")

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Mode != keybind.ModeCommand {
		t.Fatalf("mode = %v, want command", d.Mode)
	}
	kb := d.Cards[0].Keybind
	// "git st" plus the Enter submit chord.
	if len(kb) != 7 {
		t.Fatalf("chords = %d, want 7", len(kb))
	}
	if kb[len(kb)-1].Key.Code != keybind.CodeEnter {
		t.Fatalf("last chord = %+v, want Enter", kb[len(kb)-1])
	}
}

func TestLoadDeckErrorsCarryLineContext(t *testing.T) {
	path := writeDeck(t, "bad.tsv", "Ctrl+S\tSave\nno-tab-here\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("err = %v, want line 2 context", err)
	}

	path = writeDeck(t, "badkey.tsv", "Ctrl+Whatnot\tMystery\n")
	_, err = Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), ":1:") {
		t.Fatalf("err = %v, want line 1 context", err)
	}
}

func TestLoadDeckBadModeDirective(t *testing.T) {
	path := writeDeck(t, "m.tsv", "# mode: dvorak\ng\tGo\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestListDecks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.tsv", "a.tsv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("g\tGo\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	paths, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %d, want 2 (tsv only)", len(paths))
	}
	if filepath.Base(paths[0]) != "a.tsv" || filepath.Base(paths[1]) != "b.tsv" {
		t.Fatalf("paths = %v, want sorted a.tsv b.tsv", paths)
	}
}

func TestListDecksMissingDir(t *testing.T) {
	paths, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("paths = %v, want none", paths)
	}
}
