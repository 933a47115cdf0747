package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"shelfmark/internal/config"
	"shelfmark/internal/conflict"
	"shelfmark/internal/identity"
	"shelfmark/internal/logging"
	"shelfmark/internal/pathplan"
	"shelfmark/internal/queue"
)

// Organizer applies accepted decisions to the filesystem and the queue.
type Organizer struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger

	// Replaceable in tests.
	move        func(source, target string) error
	newResolver func(planner *pathplan.Planner) *conflict.Resolver
}

// New builds an organizer. A nil logger is replaced with a no-op logger.
func New(store *queue.Store, cfg *config.Config, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{
		store:  store,
		cfg:    cfg,
		logger: logger,
		move:   moveFolder,
		newResolver: func(planner *pathplan.Planner) *conflict.Resolver {
			return conflict.NewResolver(planner, cfg.FFmpegBinary(), cfg.FFprobeBinary())
		},
	}
}

// plannerFor builds a path planner rooted at the library root containing
// path, falling back to the first configured root for watch-dir imports.
func (o *Organizer) plannerFor(path string) (*pathplan.Planner, error) {
	roots := o.cfg.Paths.LibraryRoots
	if len(roots) == 0 {
		return nil, fmt.Errorf("no library roots configured")
	}
	for _, root := range roots {
		if rel, err := filepath.Rel(root, path); err == nil &&
			rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return pathplan.NewPlanner(root, o.cfg.Naming)
		}
	}
	return pathplan.NewPlanner(roots[0], o.cfg.Naming)
}

// Apply executes a decision for the item: plan the target, resolve any
// collision, move the folder, and persist the outcome. Item status and
// history are written here; the returned error covers only storage and
// filesystem failures the caller should surface.
func (o *Organizer) Apply(ctx context.Context, item *queue.Item, decision identity.Decision) error {
	if _, err := os.Stat(item.Path); err != nil {
		item.SetError(fmt.Sprintf("source folder missing: %s", item.Path))
		return o.recordOutcome(ctx, item, decision.Identity, "", queue.HistoryError, item.ErrorMessage)
	}

	planner, err := o.plannerFor(item.Path)
	if err != nil {
		item.SetError(err.Error())
		return o.recordOutcome(ctx, item, decision.Identity, "", queue.HistoryError, item.ErrorMessage)
	}

	planned := planner.Plan(decision.Identity)
	if planned.Rejected() {
		item.SetError(fmt.Sprintf("unsafe target path: %s", planned.Reason))
		return o.recordOutcome(ctx, item, decision.Identity, "", queue.HistoryError, item.ErrorMessage)
	}

	if planned.Target == item.Path {
		item.Status = queue.StatusVerified
		item.Author = decision.Author
		item.Title = decision.Title
		return o.store.Update(ctx, item)
	}

	if occupied(planned.Target) {
		rec := o.newResolver(planner).Resolve(ctx, decision.Identity, item.Path, planned.Target)
		return o.execute(ctx, item, decision, planned.Target, rec)
	}
	return o.moveAndRecord(ctx, item, decision.Identity, planned.Target, queue.HistoryFixed,
		fmt.Sprintf("relocated to %s", planned.Target))
}

// Propose records the decision as a pending fix without touching the
// filesystem, for items whose confidence stayed below the apply threshold.
func (o *Organizer) Propose(ctx context.Context, item *queue.Item, decision identity.Decision) error {
	planner, err := o.plannerFor(item.Path)
	if err != nil {
		item.SetError(err.Error())
		return o.recordOutcome(ctx, item, decision.Identity, "", queue.HistoryError, item.ErrorMessage)
	}
	planned := planner.Plan(decision.Identity)
	if planned.Rejected() {
		item.SetError(fmt.Sprintf("unsafe target path: %s", planned.Reason))
		return o.recordOutcome(ctx, item, decision.Identity, "", queue.HistoryError, item.ErrorMessage)
	}

	item.Status = queue.StatusPendingFix
	reason := fmt.Sprintf("proposed %s (confidence %d below threshold %d)",
		planned.Target, decision.Confidence, o.cfg.Verification.ConfidenceThreshold)
	return o.recordOutcome(ctx, item, decision.Identity, planned.Target, queue.HistoryPendingFix, reason)
}

// execute carries out a conflict recommendation.
func (o *Organizer) execute(ctx context.Context, item *queue.Item, decision identity.Decision, target string, rec conflict.Recommendation) error {
	o.logger.Info("conflict resolved",
		logging.Int64("item_id", item.ID),
		logging.String("action", string(rec.Action)),
		logging.String("reason", rec.Reason))

	switch rec.Action {
	case conflict.ActionMove:
		return o.moveAndRecord(ctx, item, decision.Identity, rec.Target, rec.Status, rec.Reason)

	case conflict.ActionKeepDest:
		item.Status = queue.StatusDuplicate
		return o.recordOutcome(ctx, item, decision.Identity, target, rec.Status, rec.Reason)

	case conflict.ActionKeepSource:
		if rec.Target != "" && rec.Target != target {
			// Corrupt destination stays put; the valid copy lands beside it.
			return o.moveAndRecord(ctx, item, decision.Identity, rec.Target, rec.Status, rec.Reason)
		}
		// The source supersedes the destination. Park the loser in the
		// review directory so nothing is deleted outright.
		parked, err := o.parkFolder(target)
		if err != nil {
			item.SetError(fmt.Sprintf("could not displace inferior copy: %v", err))
			return o.recordOutcome(ctx, item, decision.Identity, target, queue.HistoryError, item.ErrorMessage)
		}
		// The destination is already parked; everything after this point
		// must run to completion even during shutdown.
		ctx = context.WithoutCancel(ctx)
		reason := fmt.Sprintf("%s; displaced copy parked at %s", rec.Reason, parked)
		return o.moveAndRecord(ctx, item, decision.Identity, target, rec.Status, reason)

	default:
		item.SetNeedsAttention(rec.Reason)
		return o.recordOutcome(ctx, item, decision.Identity, target, rec.Status, rec.Reason)
	}
}

// moveAndRecord performs the move, then writes item and history. The item is
// only marked fixed after the move fully succeeded.
func (o *Organizer) moveAndRecord(ctx context.Context, item *queue.Item, id identity.Identity, target string, status queue.HistoryStatus, reason string) error {
	oldPath := item.Path
	if err := o.move(oldPath, target); err != nil {
		item.SetError(fmt.Sprintf("move failed: %v", err))
		return o.recordOutcome(ctx, item, id, target, queue.HistoryError, item.ErrorMessage)
	}

	item.Status = queue.StatusFixed
	rec := &queue.HistoryRecord{
		ItemID:    item.ID,
		OldAuthor: item.Author,
		OldTitle:  item.Title,
		NewAuthor: id.Author,
		NewTitle:  id.Title,
		OldPath:   oldPath,
		NewPath:   target,
		Status:    status,
		Reason:    reason,
	}
	item.Path = target
	item.Author = id.Author
	item.Title = id.Title
	// The folder has moved; a shutdown must not be able to strand the queue
	// on the old path, so the records are written past cancellation.
	persistCtx := context.WithoutCancel(ctx)
	if err := o.store.Update(persistCtx, item); err != nil {
		return err
	}
	if err := o.store.AppendHistory(persistCtx, rec); err != nil {
		return err
	}
	o.logger.Info("folder moved",
		logging.Int64("item_id", item.ID),
		logging.String("from", oldPath),
		logging.String("to", target))
	return nil
}

// recordOutcome persists the item and appends a history record without any
// filesystem change.
func (o *Organizer) recordOutcome(ctx context.Context, item *queue.Item, id identity.Identity, target string, status queue.HistoryStatus, reason string) error {
	if err := o.store.Update(ctx, item); err != nil {
		return err
	}
	return o.store.AppendHistory(ctx, &queue.HistoryRecord{
		ItemID:    item.ID,
		OldAuthor: item.Author,
		OldTitle:  item.Title,
		NewAuthor: id.Author,
		NewTitle:  id.Title,
		OldPath:   item.Path,
		NewPath:   target,
		Status:    status,
		Reason:    reason,
	})
}

// parkFolder moves a displaced destination folder into the review directory
// under a unique name.
func (o *Organizer) parkFolder(path string) (string, error) {
	reviewDir := o.cfg.Paths.ReviewDir
	if reviewDir == "" {
		return "", fmt.Errorf("review_dir not configured")
	}
	if err := os.MkdirAll(reviewDir, 0o755); err != nil {
		return "", err
	}
	parked := filepath.Join(reviewDir, fmt.Sprintf("%s-replaced-%s", filepath.Base(path), uuid.NewString()[:8]))
	if err := o.move(path, parked); err != nil {
		return "", err
	}
	return parked, nil
}

func occupied(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	return len(entries) > 0
}
