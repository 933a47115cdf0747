package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"shelfmark/internal/queue"
	"shelfmark/internal/testsupport"
)

func TestStoreItemLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "/library/Unknown/The Hobbit", "Unknown", "The Hobbit")
	if item.ID == 0 {
		t.Fatal("expected new item to receive an id")
	}
	if item.Status != queue.StatusQueued {
		t.Fatalf("new item status = %s, want %s", item.Status, queue.StatusQueued)
	}

	fetched, err := store.GetByPath(ctx, "/library/Unknown/The Hobbit")
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if fetched == nil || fetched.ID != item.ID {
		t.Fatalf("GetByPath returned %+v, want item %d", fetched, item.ID)
	}

	fetched.Status = queue.StatusLookingUp
	fetched.Author = "J.R.R. Tolkien"
	if err := store.Update(ctx, fetched); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusLookingUp || reloaded.Author != "J.R.R. Tolkien" {
		t.Fatalf("reloaded item = %+v", reloaded)
	}
}

func TestStoreRejectsDuplicatePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewItem(t, store, "/library/A/B", "A", "B")
	if _, err := store.NewItem(ctx, "/library/A/B", "A", "B"); err == nil {
		t.Fatal("expected duplicate path insert to fail")
	}
}

func TestStoreClaimMarksItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewItem(t, store, "/library/A/First", "A", "First")
	testsupport.NewItem(t, store, "/library/A/Second", "A", "Second")

	claimed, err := store.Claim(ctx, queue.StatusQueued)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed == nil {
		t.Fatal("expected a claimable item")
	}
	if claimed.ID != first.ID {
		t.Fatalf("claimed item %d, want oldest item %d", claimed.ID, first.ID)
	}
	if !claimed.Claimed {
		t.Fatal("claimed item should be marked claimed")
	}

	second, err := store.Claim(ctx, queue.StatusQueued)
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if second == nil || second.ID == first.ID {
		t.Fatalf("second claim = %+v", second)
	}

	none, err := store.Claim(ctx, queue.StatusQueued)
	if err != nil {
		t.Fatalf("empty Claim: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no claimable items, got %+v", none)
	}
}

func TestStoreReleaseAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewItem(t, store, "/library/A/First", "A", "First")
	testsupport.NewItem(t, store, "/library/A/Second", "A", "Second")
	if _, err := store.Claim(ctx, queue.StatusQueued); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := store.Claim(ctx, queue.StatusQueued); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	released, err := store.ReleaseAll(ctx)
	if err != nil {
		t.Fatalf("ReleaseAll: %v", err)
	}
	if released != 2 {
		t.Fatalf("released %d items, want 2", released)
	}

	claimed, err := store.Claim(ctx, queue.StatusQueued)
	if err != nil {
		t.Fatalf("Claim after release: %v", err)
	}
	if claimed == nil {
		t.Fatal("expected released item to be claimable again")
	}
}

func TestStoreResetForRescan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "/library/A/First", "A", "First")
	item.Status = queue.StatusNeedsAttention
	item.ReviewReason = "low confidence"
	item.NeedsReview = true
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.ResetForRescan(ctx, item.ID); err != nil {
		t.Fatalf("ResetForRescan: %v", err)
	}
	reloaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusQueued {
		t.Fatalf("status after reset = %s, want %s", reloaded.Status, queue.StatusQueued)
	}
	if reloaded.NeedsReview || reloaded.ReviewReason != "" {
		t.Fatalf("reset should clear review state, got %+v", reloaded)
	}
}

func TestStoreHealthCountsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewItem(t, store, "/library/A/First", "A", "First")
	second := testsupport.NewItem(t, store, "/library/A/Second", "A", "Second")
	second.SetError("probe failed")
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 {
		t.Fatalf("total = %d, want 2", health.Total)
	}
	if health.Queued != 1 || health.Errors != 1 {
		t.Fatalf("health = %+v", health)
	}
}

func TestStoreHistoryAppendAndUndo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "/library/Unknown/The Hobbit", "Unknown", "The Hobbit")

	rec := &queue.HistoryRecord{
		ItemID:    item.ID,
		OldAuthor: "Unknown",
		OldTitle:  "The Hobbit",
		NewAuthor: "J.R.R. Tolkien",
		NewTitle:  "The Hobbit",
		OldPath:   "/library/Unknown/The Hobbit",
		NewPath:   "/library/J.R.R. Tolkien/The Hobbit",
		Status:    queue.HistoryFixed,
		Reason:    "consensus 95",
	}
	if err := store.AppendHistory(ctx, rec); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if rec.RecordID == "" {
		t.Fatal("expected AppendHistory to assign a record id")
	}

	latest, err := store.LatestFixed(ctx, item.ID)
	if err != nil {
		t.Fatalf("LatestFixed: %v", err)
	}
	if latest == nil || latest.RecordID != rec.RecordID {
		t.Fatalf("LatestFixed = %+v, want record %s", latest, rec.RecordID)
	}

	if err := store.MarkUndone(ctx, rec.RecordID); err != nil {
		t.Fatalf("MarkUndone: %v", err)
	}
	if err := store.MarkUndone(ctx, rec.RecordID); err == nil {
		t.Fatal("expected second undo to fail")
	}

	latest, err = store.LatestFixed(ctx, item.ID)
	if err != nil {
		t.Fatalf("LatestFixed after undo: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected no fixed record after undo, got %+v", latest)
	}

	records, err := store.HistoryForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("HistoryForItem: %v", err)
	}
	if len(records) != 1 || records[0].Status != queue.HistoryUndone {
		t.Fatalf("history = %+v", records)
	}
}

func TestStoreRemoveCascadesHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "/library/A/B", "A", "B")
	rec := &queue.HistoryRecord{ItemID: item.ID, Status: queue.HistoryFixed}
	if err := store.AppendHistory(ctx, rec); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	removed, err := store.Remove(ctx, item.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected Remove to report success")
	}

	records, err := store.HistoryForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("HistoryForItem: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected cascade delete of history, got %+v", records)
	}
}

func TestOpenRejectsStaleSchemaWithRecoveryHint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.QueuePath())
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("age schema: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	_, err = queue.Open(cfg)
	if !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), cfg.QueuePath()) {
		t.Fatalf("error should name the database file: %v", err)
	}
	if !strings.Contains(err.Error(), "shelfmark scan") {
		t.Fatalf("error should name the recovery command: %v", err)
	}
}
