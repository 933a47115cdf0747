package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = `id, path, author, title, status, profile_json,
	oracle_attempts, claimed, needs_review, review_reason, error_message,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item          Item
		author        sql.NullString
		title         sql.NullString
		profile       sql.NullString
		reviewReason  sql.NullString
		errorMessage  sql.NullString
		claimed       int
		needsReview   int
		createdAtText string
		updatedAtText string
		statusText    string
	)
	err := row.Scan(
		&item.ID, &item.Path, &author, &title, &statusText, &profile,
		&item.OracleAttempts, &claimed, &needsReview, &reviewReason,
		&errorMessage, &createdAtText, &updatedAtText,
	)
	if err != nil {
		return nil, err
	}
	status, ok := ParseStatus(statusText)
	if !ok {
		return nil, fmt.Errorf("unknown item status %q", statusText)
	}
	item.Status = status
	item.Author = author.String
	item.Title = title.String
	item.ProfileJSON = profile.String
	item.ReviewReason = reviewReason.String
	item.ErrorMessage = errorMessage.String
	item.Claimed = claimed != 0
	item.NeedsReview = needsReview != 0
	item.CreatedAt = parseTimestamp(createdAtText)
	item.UpdatedAt = parseTimestamp(updatedAtText)
	return &item, nil
}

// NewItem inserts a freshly scanned item in the queued state.
func (s *Store) NewItem(ctx context.Context, path, author, title string) (*Item, error) {
	now := timestamp(time.Now())
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO items (path, author, title, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		path, nullableString(author), nullableString(title), StatusQueued, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches an item by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetByPath fetches an item by its current library path. Returns nil when absent.
func (s *Store) GetByPath(ctx context.Context, path string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE path = ?`, path)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by path: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE items
         SET path = ?, author = ?, title = ?, status = ?, profile_json = ?,
             oracle_attempts = ?, claimed = ?, needs_review = ?, review_reason = ?,
             error_message = ?, updated_at = ?
         WHERE id = ?`,
		item.Path,
		nullableString(item.Author),
		nullableString(item.Title),
		item.Status,
		nullableString(item.ProfileJSON),
		item.OracleAttempts,
		boolToInt(item.Claimed),
		boolToInt(item.NeedsReview),
		nullableString(item.ReviewReason),
		nullableString(item.ErrorMessage),
		timestamp(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Claim atomically marks the oldest unclaimed item in one of the provided
// statuses as in-progress and returns it. Returns nil when nothing is ready.
// No two callers can claim the same item.
func (s *Store) Claim(ctx context.Context, statuses ...ItemStatus) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items
         WHERE status IN (`+placeholders+`) AND claimed = 0
         ORDER BY created_at, id LIMIT 1`, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select claimable item: %w", err)
	}

	now := timestamp(time.Now())
	res, err := tx.ExecContext(ctx,
		`UPDATE items SET claimed = 1, updated_at = ? WHERE id = ? AND claimed = 0`,
		now, item.ID)
	if err != nil {
		return nil, fmt.Errorf("claim item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim rows affected: %w", err)
	}
	if affected == 0 {
		// Lost the race inside the same process; caller just polls again.
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	item.Claimed = true
	return item, nil
}

// Release returns a claimed item to the pool without changing its status.
func (s *Store) Release(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE items SET claimed = 0, updated_at = ? WHERE id = ?`,
		timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("release item: %w", err)
	}
	return nil
}

// ReleaseAll clears claims left behind by a previous process.
func (s *Store) ReleaseAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET claimed = 0, updated_at = ? WHERE claimed = 1`,
		timestamp(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("release all items: %w", err)
	}
	return res.RowsAffected()
}

// ItemsByStatus returns items matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status ItemStatus) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// List returns all items ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ResetForRescan returns a terminal item to the queued state. This is the
// only path by which the pipeline state may decrease.
func (s *Store) ResetForRescan(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE items
         SET status = ?, claimed = 0, oracle_attempts = 0, needs_review = 0,
             review_reason = NULL, error_message = NULL, updated_at = ?
         WHERE id = ?`,
		StatusQueued, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("reset item: %w", err)
	}
	return nil
}

// Health returns aggregated item counts.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM items GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("count items: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var statusText string
		var count int
		if err := rows.Scan(&statusText, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan count: %w", err)
		}
		summary.Total += count
		status, ok := ParseStatus(statusText)
		if !ok {
			continue
		}
		switch status {
		case StatusQueued:
			summary.Queued += count
		case StatusLookingUp, StatusAwaitingOracle, StatusAwaitingAudio:
			summary.InPipeline += count
		case StatusPendingFix:
			summary.PendingFix += count
		case StatusFixed:
			summary.Fixed += count
		case StatusVerified:
			summary.Verified += count
		case StatusNeedsAttention, StatusDuplicate:
			summary.NeedsAttention += count
		case StatusError:
			summary.Errors += count
		}
	}
	return summary, rows.Err()
}
