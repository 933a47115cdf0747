package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shelfmark/internal/queue"
	"shelfmark/internal/scanner"
	"shelfmark/internal/testsupport"
)

func TestScanDiscoversBookFolders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]

	book1 := filepath.Join(root, "Andy Weir", "Project Hail Mary")
	testsupport.WriteAudioBook(t, book1, 2048)
	book2 := filepath.Join(root, "Brandon Sanderson", "Mistborn", "01 - The Final Empire")
	testsupport.WriteAudioBook(t, book2, 2048, 2048)

	s := scanner.New(store, cfg, nil)
	summary, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.BooksFound != 2 || summary.NewItems != 2 {
		t.Fatalf("expected 2 new books, got %+v", summary)
	}

	item, err := store.GetByPath(context.Background(), book1)
	if err != nil || item == nil {
		t.Fatalf("book not enqueued: %v", err)
	}
	if item.Author != "Andy Weir" || item.Title != "Project Hail Mary" {
		t.Fatalf("path hints not applied: %+v", item)
	}
	if item.Status != queue.StatusQueued {
		t.Fatalf("new item status = %s, want queued", item.Status)
	}

	series, err := store.GetByPath(context.Background(), book2)
	if err != nil || series == nil {
		t.Fatalf("series book not enqueued: %v", err)
	}
	if series.Author != "Brandon Sanderson" || series.Title != "The Final Empire" {
		t.Fatalf("series layout hints not applied: %+v", series)
	}
}

func TestScanIsIdempotentAcrossPasses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	book := filepath.Join(cfg.Paths.LibraryRoots[0], "Andy Weir", "Artemis")
	testsupport.WriteAudioBook(t, book, 1024)

	s := scanner.New(store, cfg, nil)
	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	summary, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if summary.NewItems != 0 || summary.AlreadyKnown != 1 {
		t.Fatalf("rescan should admit nothing new, got %+v", summary)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected a single queue entry, got %d", len(items))
	}
}

func TestScanMessyFolderQueuedWithoutHints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	book := filepath.Join(cfg.Paths.LibraryRoots[0], "Some Author", "Dune [MP3] 64kbps")
	testsupport.WriteAudioBook(t, book, 1024)

	s := scanner.New(store, cfg, nil)
	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	item, err := store.GetByPath(context.Background(), book)
	if err != nil || item == nil {
		t.Fatalf("messy folder not enqueued: %v", err)
	}
	if item.Author != "" || item.Title != "" {
		t.Fatalf("scene-tagged folder must not seed hints, got %+v", item)
	}
}

func TestScanTreatsDiscFoldersAsOneBook(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	book := filepath.Join(cfg.Paths.LibraryRoots[0], "Frank Herbert", "Dune")
	testsupport.WriteAudioBook(t, filepath.Join(book, "CD 1"), 1024)
	testsupport.WriteAudioBook(t, filepath.Join(book, "CD 2"), 1024)

	s := scanner.New(store, cfg, nil)
	summary, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.BooksFound != 1 {
		t.Fatalf("disc folders should collapse to one book, got %+v", summary)
	}
	item, err := store.GetByPath(context.Background(), book)
	if err != nil || item == nil {
		t.Fatal("book folder with disc subfolders not enqueued")
	}
	if item.Title != "Dune" {
		t.Fatalf("expected parent folder hints, got %+v", item)
	}
}

func TestScanCountsLooseFilesAndSkipsHiddenDirs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryRoots[0]
	testsupport.WriteFile(t, filepath.Join(root, "stray.m4b"), 512)
	testsupport.WriteAudioBook(t, filepath.Join(root, ".stversions", "Old Book"), 512)

	s := scanner.New(store, cfg, nil)
	summary, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.LooseFiles != 1 {
		t.Fatalf("expected 1 loose file, got %+v", summary)
	}
	if summary.BooksFound != 0 {
		t.Fatalf("hidden directories must be skipped, got %+v", summary)
	}
}

func TestScanPicksUpWatchDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	drop := filepath.Join(cfg.Paths.WatchDir, "The Hollow Man")
	testsupport.WriteAudioBook(t, drop, 1024)

	s := scanner.New(store, cfg, nil)
	summary, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.NewItems != 1 {
		t.Fatalf("watch dir folder not admitted, got %+v", summary)
	}
	item, err := store.GetByPath(context.Background(), drop)
	if err != nil || item == nil {
		t.Fatal("watch dir item missing from queue")
	}
}

func TestScanSkipsMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cfg.Paths.LibraryRoots = append(cfg.Paths.LibraryRoots, filepath.Join(os.TempDir(), "does-not-exist-anywhere"))

	s := scanner.New(store, cfg, nil)
	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatalf("missing root must not abort the scan: %v", err)
	}
}
