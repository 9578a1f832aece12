package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/keydrill/keydrill/internal/config"
	"github.com/keydrill/keydrill/internal/deck"
	"github.com/keydrill/keydrill/internal/keybind"
	"github.com/keydrill/keydrill/internal/session"
	"github.com/keydrill/keydrill/internal/srs"
	"github.com/keydrill/keydrill/internal/storage"
	"github.com/keydrill/keydrill/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Paths.DBPath), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.DecksDir, 0o755); err != nil {
		log.Fatalf("mkdir decks dir: %v", err)
	}

	if err := storage.BackupDaily(cfg.Paths.DBPath, time.Now()); err != nil {
		log.Fatalf("backup: %v", err)
	}

	db, err := storage.Open(cfg.Paths.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	repo := storage.NewCardRepo(db)

	decks, present, modes, err := loadDecks(cfg.Paths.DecksDir)
	if err != nil {
		log.Fatalf("decks: %v", err)
	}
	if err := repo.SyncDecks(ctx, decks, present); err != nil {
		log.Fatalf("sync decks: %v", err)
	}

	sched, err := srs.NewScheduler(cfg.Scheduler.DesiredRetention,
		cfg.Scheduler.IntervalModifier, cfg.Scheduler.MaxIntervalDays)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	sess, err := session.New(ctx, cfg, repo, sched, modes)
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	p := tea.NewProgram(tui.New(ctx, cfg, sess, os.Stdout), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// loadDecks parses every .tsv file in dir. A malformed deck is reported
// and skipped; the remaining decks still load. present carries every
// deck name found on disk so the sync never deletes a deck that merely
// failed to parse.
func loadDecks(dir string) ([]storage.DeckSync, []string, map[string]keybind.Mode, error) {
	paths, err := deck.List(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	var syncs []storage.DeckSync
	var present []string
	modes := make(map[string]keybind.Mode)
	for _, path := range paths {
		present = append(present, deck.Name(path))
		d, err := deck.Load(path)
		if err != nil {
			log.Printf("warn: skipping deck: %v", err)
			continue
		}
		sync := storage.DeckSync{Deck: d.Name}
		for _, c := range d.Cards {
			sync.Cards = append(sync.Cards, storage.DeckSyncCard{
				Keybind:     c.Keybind.String(),
				Description: c.Description,
			})
		}
		syncs = append(syncs, sync)
		modes[d.Name] = d.Mode
	}
	return syncs, present, modes, nil
}
