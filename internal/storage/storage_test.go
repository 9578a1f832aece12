package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/keydrill/keydrill/internal/keybind"
)

// testRepo creates a migrated temporary database and a repo over it.
func testRepo(t *testing.T) *CardRepo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keydrill-test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewCardRepo(db)
}

func syncOne(t *testing.T, repo *CardRepo, deck string, cards ...DeckSyncCard) {
	t.Helper()
	err := repo.SyncDecks(context.Background(),
		[]DeckSync{{Deck: deck, Cards: cards}}, []string{deck})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
}

func TestMigrateCreatesTables(t *testing.T) {
	repo := testRepo(t)
	for _, table := range []string{"cards", "reviews", "settings"} {
		var count int
		err := repo.db.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		if err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestSyncDecksInsertsNewCards(t *testing.T) {
	repo := testRepo(t)
	syncOne(t, repo, "vim",
		DeckSyncCard{Keybind: "g g", Description: "go to top"},
		DeckSyncCard{Keybind: "G", Description: "go to bottom"},
	)

	cards, err := repo.GetDueCards(context.Background(), "vim")
	if err != nil {
		t.Fatalf("due cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	for _, c := range cards {
		if c.Stability != nil || c.DueDate != nil {
			t.Errorf("card %s: new card should have no memory state", c.Keybind)
		}
		if c.ReviewCount != 0 {
			t.Errorf("card %s: review_count = %d, want 0", c.Keybind, c.ReviewCount)
		}
	}
}

func TestSyncDecksDescriptionChangeResetsMemory(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	syncOne(t, repo, "vim", DeckSyncCard{Keybind: "g g", Description: "go to top"})

	cards, _ := repo.GetDueCards(ctx, "vim")
	if err := repo.UpdateCardAfterReview(ctx, cards[0].ID, 2.5, 5.1, Now().Add(72*time.Hour)); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Same keybind, new description. Identity survives, memory does not.
	syncOne(t, repo, "vim", DeckSyncCard{Keybind: "g g", Description: "jump to first line"})

	after, err := repo.GetDueCards(ctx, "vim")
	if err != nil {
		t.Fatalf("due cards: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("got %d cards, want 1", len(after))
	}
	c := after[0]
	if c.ID != cards[0].ID {
		t.Errorf("card id changed on description edit")
	}
	if c.Description != "jump to first line" {
		t.Errorf("description = %q", c.Description)
	}
	if c.Stability != nil || c.Difficulty != nil || c.DueDate != nil || c.LastReview != nil {
		t.Errorf("memory state not reset: %+v", c)
	}
	if c.ReviewCount != 0 {
		t.Errorf("review_count = %d, want 0", c.ReviewCount)
	}
}

func TestSyncDecksRemovesMissingCardsAndDecks(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	syncOne(t, repo, "vim",
		DeckSyncCard{Keybind: "g g", Description: "top"},
		DeckSyncCard{Keybind: "G", Description: "bottom"},
	)
	err := repo.SyncDecks(ctx, []DeckSync{
		{Deck: "vim", Cards: []DeckSyncCard{{Keybind: "G", Description: "bottom"}}},
		{Deck: "tmux", Cards: []DeckSyncCard{{Keybind: "Ctrl+B c", Description: "new window"}}},
	}, []string{"vim", "tmux"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	vim, _ := repo.GetDueCards(ctx, "vim")
	if len(vim) != 1 || vim[0].Keybind != "G" {
		t.Fatalf("vim cards = %+v, want only G", vim)
	}

	// Deck files removed from disk take their cards with them.
	err = repo.SyncDecks(ctx, []DeckSync{
		{Deck: "tmux", Cards: []DeckSyncCard{{Keybind: "Ctrl+B c", Description: "new window"}}},
	}, []string{"tmux"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	vim, _ = repo.GetDueCards(ctx, "vim")
	if len(vim) != 0 {
		t.Fatalf("orphaned deck not removed, %d cards left", len(vim))
	}
}

func TestSyncDecksKeepsUnparseableButPresentDeck(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	syncOne(t, repo, "vim", DeckSyncCard{Keybind: "g g", Description: "top"})

	// vim failed to parse this run: present on disk, absent from the
	// sync payload. Its cards must survive.
	err := repo.SyncDecks(ctx, nil, []string{"vim"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	cards, _ := repo.GetDueCards(ctx, "vim")
	if len(cards) != 1 {
		t.Fatalf("broken deck wiped: %d cards left", len(cards))
	}
}

func TestSyncDecksDeleteCascadesReviews(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	syncOne(t, repo, "vim", DeckSyncCard{Keybind: "g g", Description: "top"})
	cards, _ := repo.GetDueCards(ctx, "vim")
	if err := repo.RecordReview(ctx, cards[0].ID, 3, 1200, 1); err != nil {
		t.Fatalf("record review: %v", err)
	}

	syncOne(t, repo, "vim") // empty deck

	var count int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM reviews`).Scan(&count); err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if count != 0 {
		t.Errorf("reviews after cascade = %d, want 0", count)
	}
}

func TestGetDueCardsOrderingAndCutoff(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	syncOne(t, repo, "vim",
		DeckSyncCard{Keybind: "a", Description: "a"},
		DeckSyncCard{Keybind: "b", Description: "b"},
		DeckSyncCard{Keybind: "c", Description: "c"},
	)
	all, _ := repo.GetDueCards(ctx, "vim")
	byKeybind := map[string]string{}
	for _, c := range all {
		byKeybind[c.Keybind] = c.ID
	}

	// b due an hour ago, c due in a week, a never reviewed.
	if err := repo.UpdateCardAfterReview(ctx, byKeybind["b"], 1.0, 5.0, Now().Add(-time.Hour)); err != nil {
		t.Fatalf("update b: %v", err)
	}
	if err := repo.UpdateCardAfterReview(ctx, byKeybind["c"], 9.0, 5.0, Now().Add(7*24*time.Hour)); err != nil {
		t.Fatalf("update c: %v", err)
	}

	due, err := repo.GetDueCards(ctx, "vim")
	if err != nil {
		t.Fatalf("due cards: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("got %d due cards, want 2", len(due))
	}
	if due[0].Keybind != "a" {
		t.Errorf("first due = %q, want never-reviewed card first", due[0].Keybind)
	}
	if due[1].Keybind != "b" {
		t.Errorf("second due = %q, want b", due[1].Keybind)
	}
}

func TestUpdateCardAfterReviewResetsPresentationCount(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	syncOne(t, repo, "vim", DeckSyncCard{Keybind: "g g", Description: "top"})
	cards, _ := repo.GetDueCards(ctx, "vim")
	id := cards[0].ID

	for i := 0; i < 3; i++ {
		if err := repo.IncrementPresentationCount(ctx, id); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	due := Now().Add(-time.Minute)
	if err := repo.UpdateCardAfterReview(ctx, id, 0.5, 6.0, due); err != nil {
		t.Fatalf("update: %v", err)
	}

	cards, _ = repo.GetDueCards(ctx, "vim")
	if len(cards) != 1 {
		t.Fatalf("card not due after past due date")
	}
	c := cards[0]
	if c.PresentationCount != 0 {
		t.Errorf("presentation count = %d, want 0 after scoring", c.PresentationCount)
	}
	if c.ReviewCount != 1 {
		t.Errorf("review_count = %d, want 1", c.ReviewCount)
	}
	if c.Stability == nil || *c.Stability != 0.5 {
		t.Errorf("stability = %v, want 0.5", c.Stability)
	}
	if c.DueDate == nil || !c.DueDate.Equal(due.UTC()) {
		t.Errorf("due_date = %v, want %v", c.DueDate, due.UTC())
	}
}

func TestGetDeckStats(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	syncOne(t, repo, "vim",
		DeckSyncCard{Keybind: "a", Description: "a"},
		DeckSyncCard{Keybind: "b", Description: "b"},
	)
	cards, _ := repo.GetDueCards(ctx, "vim")
	if err := repo.UpdateCardAfterReview(ctx, cards[0].ID, 9.0, 5.0, Now().Add(7*24*time.Hour)); err != nil {
		t.Fatalf("update: %v", err)
	}

	stats, err := repo.GetDeckStats(ctx, map[string]keybind.Mode{"vim": keybind.ModeChars})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d deck stats, want 1", len(stats))
	}
	s := stats[0]
	if s.Name != "vim" || s.TotalCards != 2 || s.DueCards != 1 {
		t.Errorf("stats = %+v, want vim 2 total 1 due", s)
	}
	if s.Mode != keybind.ModeChars {
		t.Errorf("mode = %v, want chars", s.Mode)
	}
}

func TestGetReviews(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	syncOne(t, repo, "vim", DeckSyncCard{Keybind: "g g", Description: "top"})
	cards, _ := repo.GetDueCards(ctx, "vim")
	id := cards[0].ID

	if err := repo.RecordReview(ctx, id, 3, 1800, 1); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordReview(ctx, id, 1, 9000, 3); err != nil {
		t.Fatalf("record: %v", err)
	}

	reviews, err := repo.GetReviews(ctx, id)
	if err != nil {
		t.Fatalf("get reviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}
	if reviews[0].Rating != 3 || reviews[0].ResponseTimeMS != 1800 || reviews[0].Attempts != 1 {
		t.Errorf("first review = %+v", reviews[0])
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	got, err := repo.GetSetting(ctx, "show_hints")
	if err != nil {
		t.Fatalf("get unset: %v", err)
	}
	if got != "" {
		t.Errorf("unset value = %q, want empty", got)
	}

	if err := repo.SetSetting(ctx, "show_hints", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.SetSetting(ctx, "show_hints", "false"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = repo.GetSetting(ctx, "show_hints")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "false" {
		t.Errorf("value = %q, want false", got)
	}
}

func TestBackupDaily(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keydrill.db")
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	// No database yet: nothing to back up.
	if err := BackupDaily(path, now); err != nil {
		t.Fatalf("backup of missing db: %v", err)
	}

	if err := os.WriteFile(path, []byte("payload-v1"), 0o644); err != nil {
		t.Fatalf("write db: %v", err)
	}
	if err := BackupDaily(path, now); err != nil {
		t.Fatalf("backup: %v", err)
	}
	backup := path + ".backup.2026-03-14"
	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "payload-v1" {
		t.Errorf("backup content = %q", data)
	}

	// Second run the same day leaves the existing backup alone.
	if err := os.WriteFile(path, []byte("payload-v2"), 0o644); err != nil {
		t.Fatalf("rewrite db: %v", err)
	}
	if err := BackupDaily(path, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("second backup: %v", err)
	}
	data, _ = os.ReadFile(backup)
	if string(data) != "payload-v1" {
		t.Errorf("same-day backup overwritten: %q", data)
	}

	// Next day gets its own copy.
	if err := BackupDaily(path, now.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("next-day backup: %v", err)
	}
	data, err = os.ReadFile(path + ".backup.2026-03-15")
	if err != nil {
		t.Fatalf("read next-day backup: %v", err)
	}
	if string(data) != "payload-v2" {
		t.Errorf("next-day backup content = %q", data)
	}
}
