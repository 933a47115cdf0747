// Package scanner discovers audiobook folders under the configured library
// roots and watch directory and admits them to the work queue. Discovery is
// read-only: the scanner never moves or rewrites anything on disk.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"shelfmark/internal/audioprobe"
	"shelfmark/internal/config"
	"shelfmark/internal/identity"
	"shelfmark/internal/logging"
	"shelfmark/internal/queue"
)

// Summary reports what one scan pass saw.
type Summary struct {
	RootsScanned int
	FoldersSeen  int
	BooksFound   int
	NewItems     int
	AlreadyKnown int
	LooseFiles   int
}

// Scanner walks library roots and the watch directory for book folders.
type Scanner struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New builds a scanner. A nil logger is replaced with a no-op logger.
func New(store *queue.Store, cfg *config.Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{store: store, cfg: cfg, logger: logger}
}

// Scan walks every configured library root and the watch directory once,
// enqueueing each book folder not yet tracked. A missing root is logged and
// skipped; it does not abort the other roots.
func (s *Scanner) Scan(ctx context.Context) (Summary, error) {
	var summary Summary
	for _, root := range s.cfg.Paths.LibraryRoots {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.scanRoot(ctx, root, &summary); err != nil {
			return summary, err
		}
		summary.RootsScanned++
	}
	if watch := s.cfg.Paths.WatchDir; watch != "" {
		if err := s.scanRoot(ctx, watch, &summary); err != nil {
			return summary, err
		}
	}
	s.logger.Info("scan complete",
		logging.Int("roots", summary.RootsScanned),
		logging.Int("books", summary.BooksFound),
		logging.Int("new", summary.NewItems),
		logging.Int("loose_files", summary.LooseFiles))
	return summary, nil
}

func (s *Scanner) scanRoot(ctx context.Context, root string, summary *Summary) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		s.logger.Warn("library root unavailable, skipping", logging.String("root", root))
		return nil
	}

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("scan error, skipping entry",
				logging.String("path", path), logging.Error(err))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.IsDir() {
			// Audio directly under the root has no owning book folder.
			if filepath.Dir(path) == root && audioprobe.IsAudioFile(path) {
				summary.LooseFiles++
			}
			return nil
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}

		summary.FoldersSeen++
		if !hasDirectAudio(path) && !hasDiscFolders(path) {
			// Author folders and series containers; keep descending.
			return nil
		}

		summary.BooksFound++
		admitted, err := s.admit(ctx, root, path)
		if err != nil {
			return err
		}
		if admitted {
			summary.NewItems++
		} else {
			summary.AlreadyKnown++
		}
		// A book folder's subdirectories (disc folders, artwork) belong to
		// the book; never admit them separately.
		return filepath.SkipDir
	})
}

// admit enqueues one book folder, deduplicating by path. It reports whether
// a new item was created.
func (s *Scanner) admit(ctx context.Context, root, path string) (bool, error) {
	existing, err := s.store.GetByPath(ctx, path)
	if err != nil {
		return false, fmt.Errorf("queue lookup for %s: %w", path, err)
	}
	if existing != nil {
		return false, nil
	}

	var id identity.Identity
	category := Triage(filepath.Base(path))
	if category.TrustPathHints() {
		id = InferIdentity(root, path)
	}
	item, err := s.store.NewItem(ctx, path, id.Author, id.Title)
	if err != nil {
		return false, fmt.Errorf("enqueue %s: %w", path, err)
	}
	s.logger.Info("book folder queued",
		logging.Int64("item_id", item.ID),
		logging.String("path", path),
		logging.String("triage", string(category)))
	return true, nil
}

// hasDirectAudio reports whether the directory itself contains at least one
// audio file, without descending.
func hasDirectAudio(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && audioprobe.IsAudioFile(entry.Name()) {
			return true
		}
	}
	return false
}

var discFolderName = regexp.MustCompile(`(?i)^(CD|Disc|Disk|Part)\s*\d+$`)

// hasDiscFolders reports whether the directory holds its audio in per-disc
// subfolders ("CD 1", "Disc 2"). Such a directory is the book folder; the
// disc folders are never admitted on their own.
func hasDiscFolders(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() && discFolderName.MatchString(entry.Name()) && hasDirectAudio(filepath.Join(dir, entry.Name())) {
			return true
		}
	}
	return false
}
