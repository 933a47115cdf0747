package workflow

import (
	"context"
	"errors"
	"testing"

	"shelfmark/internal/organizer"
	"shelfmark/internal/pipeline"
	"shelfmark/internal/queue"
	"shelfmark/internal/scanner"
	"shelfmark/internal/services"
	"shelfmark/internal/sources"
	"shelfmark/internal/testsupport"
)

func newFailureManager(t *testing.T) (*Manager, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gatherer := sources.NewGatherer(nil, sources.NewRateLimiter(nil), nil)
	org := organizer.New(store, cfg, nil)
	pipe := pipeline.New(cfg, store, org, gatherer, nil, nil, nil)
	return NewManager(cfg, store, pipe, scanner.New(store, cfg, nil), nil), store
}

func TestMarkFailedPersistsRetryableError(t *testing.T) {
	m, store := newFailureManager(t)
	item := testsupport.NewItem(t, store, "/library/a/b", "Jane Doe", "First Novel")

	m.markFailed(context.Background(), item, errors.New("disk read failed"))

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusError {
		t.Fatalf("expected error status, got %s", stored.Status)
	}
	if stored.ErrorMessage != "disk read failed" {
		t.Fatalf("error message = %q", stored.ErrorMessage)
	}
}

func TestMarkFailedRoutesValidationToReview(t *testing.T) {
	m, store := newFailureManager(t)
	item := testsupport.NewItem(t, store, "/library/a/c", "Jane Doe", "First Novel")

	procErr := services.Wrap(services.ErrValidation, "lookup", "stat folder", "folder vanished", nil)
	m.markFailed(context.Background(), item, procErr)

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusNeedsAttention {
		t.Fatalf("a validation failure needs a human, got %s", stored.Status)
	}
	if stored.ReviewReason == "" {
		t.Fatal("review reason should carry the failure detail")
	}
}
