package organizer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shelfmark/internal/identity"
	"shelfmark/internal/organizer"
	"shelfmark/internal/queue"
	"shelfmark/internal/testsupport"
)

func decisionFor(id identity.Identity, confidence int) identity.Decision {
	return identity.Decision{Identity: id, Confidence: confidence, Source: "consensus"}
}

func TestApplyCleanMove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	source := filepath.Join(root, "jane doe", "first novel")
	testsupport.WriteAudioBook(t, source, 1024)
	item := testsupport.NewItem(t, store, source, "jane doe", "first novel")

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "Jane Doe", Title: "First Novel"}, 90)
	if err := o.Apply(context.Background(), item, decision); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	target := filepath.Join(root, "Jane Doe", "First Novel")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("folder not moved to %s: %v", target, err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("source still present after move")
	}
	if item.Status != queue.StatusFixed || item.Path != target {
		t.Fatalf("item not updated: %+v", item)
	}

	records, err := store.HistoryForItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("HistoryForItem: %v", err)
	}
	if len(records) != 1 || records[0].Status != queue.HistoryFixed {
		t.Fatalf("expected one fixed record, got %+v", records)
	}
	if records[0].OldPath != source || records[0].NewPath != target {
		t.Fatalf("record paths wrong: %+v", records[0])
	}
}

func TestApplyAlreadyCorrectMarksVerified(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	path := filepath.Join(root, "Jane Doe", "First Novel")
	testsupport.WriteAudioBook(t, path, 1024)
	item := testsupport.NewItem(t, store, path, "Jane Doe", "First Novel")

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "Jane Doe", Title: "First Novel"}, 95)
	if err := o.Apply(context.Background(), item, decision); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if item.Status != queue.StatusVerified {
		t.Fatalf("expected verified, got %s", item.Status)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("verified folder must not move: %v", err)
	}
}

func TestApplyUnsafePathMarksError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	source := filepath.Join(root, "x", "y")
	testsupport.WriteAudioBook(t, source, 512)
	item := testsupport.NewItem(t, store, source, "x", "y")

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "../escape", Title: "First Novel"}, 90)
	if err := o.Apply(context.Background(), item, decision); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if item.Status != queue.StatusError {
		t.Fatalf("traversal author must mark the item error, got %s", item.Status)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("rejected plan must leave the source untouched: %v", err)
	}
}

func TestApplyDuplicateDestinationKeepsDest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	// Identical file sets on both sides: the signature strategy calls it
	// the same book and keeps the destination.
	source := filepath.Join(root, "incoming", "First Novel")
	testsupport.WriteAudioBook(t, source, 4096, 4096)
	dest := filepath.Join(root, "Jane Doe", "First Novel")
	testsupport.WriteAudioBook(t, dest, 4096, 4096)
	item := testsupport.NewItem(t, store, source, "", "First Novel")

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "Jane Doe", Title: "First Novel"}, 90)
	if err := o.Apply(context.Background(), item, decision); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if item.Status != queue.StatusDuplicate {
		t.Fatalf("expected duplicate status, got %s", item.Status)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("duplicate source must not be deleted: %v", err)
	}

	records, err := store.HistoryForItem(context.Background(), item.ID)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one history record: %v %v", records, err)
	}
	if records[0].Status != queue.HistoryDuplicate {
		t.Fatalf("expected duplicate record, got %s", records[0].Status)
	}
}

func TestProposeRecordsPendingFixWithoutMoving(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	source := filepath.Join(root, "maybe", "something")
	testsupport.WriteAudioBook(t, source, 512)
	item := testsupport.NewItem(t, store, source, "maybe", "something")

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "Jane Doe", Title: "First Novel"}, 50)
	if err := o.Propose(context.Background(), item, decision); err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if item.Status != queue.StatusPendingFix {
		t.Fatalf("expected pending_fix, got %s", item.Status)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("propose must not move anything: %v", err)
	}

	records, err := store.HistoryForItem(context.Background(), item.ID)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one record: %v %v", records, err)
	}
	if records[0].Status != queue.HistoryPendingFix {
		t.Fatalf("expected pending_fix record, got %s", records[0].Status)
	}
	if records[0].NewPath == "" {
		t.Fatal("pending record should carry the proposed target")
	}
}

func TestApplyMissingSourceMarksError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	source := filepath.Join(cfg.Paths.LibraryRoots[0], "gone", "folder")
	item := testsupport.NewItem(t, store, source, "gone", "folder")

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "Jane Doe", Title: "First Novel"}, 90)
	if err := o.Apply(context.Background(), item, decision); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if item.Status != queue.StatusError {
		t.Fatalf("missing source must mark error, got %s", item.Status)
	}
}

func TestUndoReversesFixedMove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	source := filepath.Join(root, "jane doe", "first novel")
	testsupport.WriteAudioBook(t, source, 1024)
	item := testsupport.NewItem(t, store, source, "jane doe", "first novel")

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "Jane Doe", Title: "First Novel"}, 90)
	if err := o.Apply(context.Background(), item, decision); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rec, err := store.LatestFixed(context.Background(), item.ID)
	if err != nil || rec == nil {
		t.Fatalf("LatestFixed: %v %v", rec, err)
	}
	if err := o.Undo(context.Background(), rec.RecordID); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	if _, err := os.Stat(source); err != nil {
		t.Fatalf("undo did not restore the old path: %v", err)
	}
	if _, err := os.Stat(rec.NewPath); !os.IsNotExist(err) {
		t.Fatal("undo left the folder at the new path")
	}

	restored, err := store.GetByID(context.Background(), item.ID)
	if err != nil || restored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if restored.Path != source || restored.Author != "jane doe" {
		t.Fatalf("item identity not restored: %+v", restored)
	}
	if restored.Status != queue.StatusPendingFix {
		t.Fatalf("undone item should return to pending_fix, got %s", restored.Status)
	}

	// A second undo must fail: the record is no longer fixed.
	if err := o.Undo(context.Background(), rec.RecordID); err == nil {
		t.Fatal("second undo should fail")
	}
}

func TestUndoRefusesWhenOldPathOccupied(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	source := filepath.Join(root, "jane doe", "first novel")
	testsupport.WriteAudioBook(t, source, 1024)
	item := testsupport.NewItem(t, store, source, "jane doe", "first novel")

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "Jane Doe", Title: "First Novel"}, 90)
	if err := o.Apply(context.Background(), item, decision); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Something new appeared at the old location.
	testsupport.WriteAudioBook(t, source, 256)

	rec, err := store.LatestFixed(context.Background(), item.ID)
	if err != nil || rec == nil {
		t.Fatalf("LatestFixed: %v %v", rec, err)
	}
	if err := o.Undo(context.Background(), rec.RecordID); err == nil {
		t.Fatal("undo must refuse to overwrite an occupied old path")
	}
	if _, err := os.Stat(rec.NewPath); err != nil {
		t.Fatalf("refused undo must leave the moved folder in place: %v", err)
	}
}

func TestApplyPersistsAfterMoveDespiteCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	source := filepath.Join(root, "incoming", "b00k")
	testsupport.WriteAudioBook(t, source, 512)
	item := testsupport.NewItem(t, store, source, "", "")

	// A shutdown canceling the context mid-item must not leave the folder
	// moved while the queue still records the old path.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := organizer.New(store, cfg, nil)
	decision := decisionFor(identity.Identity{Author: "Jane Doe", Title: "First Novel"}, 90)
	if err := o.Apply(ctx, item, decision); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	target := filepath.Join(root, "Jane Doe", "First Novel")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("folder not moved: %v", err)
	}

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusFixed || stored.Path != target {
		t.Fatalf("queue out of step with the filesystem: status=%s path=%s", stored.Status, stored.Path)
	}
	records, err := store.HistoryForItem(context.Background(), item.ID)
	if err != nil || len(records) != 1 || records[0].Status != queue.HistoryFixed {
		t.Fatalf("move must be recorded despite cancellation: %v %+v", err, records)
	}
}
