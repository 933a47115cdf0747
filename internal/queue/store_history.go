package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const historyColumns = `id, record_id, item_id, old_author, old_title,
	new_author, new_title, old_path, new_path, status, reason,
	created_at, updated_at`

func scanHistory(row rowScanner) (*HistoryRecord, error) {
	var (
		rec           HistoryRecord
		oldAuthor     sql.NullString
		oldTitle      sql.NullString
		newAuthor     sql.NullString
		newTitle      sql.NullString
		oldPath       sql.NullString
		newPath       sql.NullString
		reason        sql.NullString
		statusText    string
		createdAtText string
		updatedAtText string
	)
	err := row.Scan(
		&rec.ID, &rec.RecordID, &rec.ItemID, &oldAuthor, &oldTitle,
		&newAuthor, &newTitle, &oldPath, &newPath, &statusText, &reason,
		&createdAtText, &updatedAtText,
	)
	if err != nil {
		return nil, err
	}
	status, ok := ParseHistoryStatus(statusText)
	if !ok {
		return nil, fmt.Errorf("unknown history status %q", statusText)
	}
	rec.Status = status
	rec.OldAuthor = oldAuthor.String
	rec.OldTitle = oldTitle.String
	rec.NewAuthor = newAuthor.String
	rec.NewTitle = newTitle.String
	rec.OldPath = oldPath.String
	rec.NewPath = newPath.String
	rec.Reason = reason.String
	rec.CreatedAt = parseTimestamp(createdAtText)
	rec.UpdatedAt = parseTimestamp(updatedAtText)
	return &rec, nil
}

// AppendHistory writes a new history record. Any prior record for the same
// item and status is replaced so the log stays one-row-per-outcome, matching
// the append-mostly contract.
func (s *Store) AppendHistory(ctx context.Context, rec *HistoryRecord) error {
	if rec == nil {
		return errors.New("history record is nil")
	}
	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE item_id = ? AND status = ?`,
		rec.ItemID, rec.Status); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO history (record_id, item_id, old_author, old_title,
             new_author, new_title, old_path, new_path, status, reason,
             created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RecordID, rec.ItemID,
		nullableString(rec.OldAuthor), nullableString(rec.OldTitle),
		nullableString(rec.NewAuthor), nullableString(rec.NewTitle),
		nullableString(rec.OldPath), nullableString(rec.NewPath),
		rec.Status, nullableString(rec.Reason),
		timestamp(now), timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("history insert id: %w", err)
	}
	return tx.Commit()
}

// HistoryForItem returns the item's records, newest first.
func (s *Store) HistoryForItem(ctx context.Context, itemID int64) ([]*HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE item_id = ? ORDER BY created_at DESC`,
		itemID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []*HistoryRecord
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// HistoryByRecordID returns the record with the given correlation id, or nil.
func (s *Store) HistoryByRecordID(ctx context.Context, recordID string) (*HistoryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE record_id = ?`, recordID)
	rec, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history by record id: %w", err)
	}
	return rec, nil
}

// LatestFixed returns the item's most recent fixed record, or nil.
func (s *Store) LatestFixed(ctx context.Context, itemID int64) (*HistoryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM history
         WHERE item_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		itemID, HistoryFixed)
	rec, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest fixed: %w", err)
	}
	return rec, nil
}

// MarkUndone flips a fixed record to undone. The caller is responsible for
// having already reversed the move on disk; this is the only backward
// history transition.
func (s *Store) MarkUndone(ctx context.Context, recordID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE history SET status = ?, updated_at = ? WHERE record_id = ? AND status = ?`,
		HistoryUndone, timestamp(time.Now()), recordID, HistoryFixed)
	if err != nil {
		return fmt.Errorf("mark undone: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("undone rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("history record %s is not in fixed state", recordID)
	}
	return nil
}
