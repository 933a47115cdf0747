package organizer

import (
	"context"
	"fmt"
	"os"

	"shelfmark/internal/queue"
)

// Undo reverses a fixed move: the folder returns to its old path and the
// record flips to undone. It requires the moved folder to still be at its
// new path and the old path to be free, otherwise nothing is touched.
func (o *Organizer) Undo(ctx context.Context, recordID string) error {
	rec, err := o.store.HistoryByRecordID(ctx, recordID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no history record %s", recordID)
	}
	if rec.Status != queue.HistoryFixed {
		return fmt.Errorf("record %s has status %s; only fixed records can be undone", recordID, rec.Status)
	}
	if rec.OldPath == "" || rec.NewPath == "" {
		return fmt.Errorf("record %s has no paths to reverse", recordID)
	}
	if _, err := os.Stat(rec.NewPath); err != nil {
		return fmt.Errorf("moved folder is no longer at %s: %w", rec.NewPath, err)
	}
	if _, err := os.Stat(rec.OldPath); err == nil {
		return fmt.Errorf("old path %s is occupied again; undo would overwrite it", rec.OldPath)
	}

	if err := o.move(rec.NewPath, rec.OldPath); err != nil {
		return fmt.Errorf("reverse move: %w", err)
	}

	// Same rule as applying a fix: after the filesystem changed, the record
	// updates must survive cancellation.
	ctx = context.WithoutCancel(ctx)
	if err := o.store.MarkUndone(ctx, recordID); err != nil {
		return err
	}

	item, err := o.store.GetByID(ctx, rec.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}
	item.Path = rec.OldPath
	item.Author = rec.OldAuthor
	item.Title = rec.OldTitle
	item.Status = queue.StatusPendingFix
	return o.store.Update(ctx, item)
}
