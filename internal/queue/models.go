package queue

import (
	"strings"
	"time"
)

// ItemStatus represents the lifecycle of a library item.
type ItemStatus string

const (
	StatusQueued         ItemStatus = "queued"
	StatusLookingUp      ItemStatus = "looking_up"
	StatusAwaitingOracle ItemStatus = "awaiting_oracle"
	StatusAwaitingAudio  ItemStatus = "awaiting_audio"
	StatusVerified       ItemStatus = "verified"
	StatusPendingFix     ItemStatus = "pending_fix"
	StatusFixed          ItemStatus = "fixed"
	StatusNeedsAttention ItemStatus = "needs_attention"
	StatusDuplicate      ItemStatus = "duplicate"
	StatusError          ItemStatus = "error"
)

var allStatuses = []ItemStatus{
	StatusQueued,
	StatusLookingUp,
	StatusAwaitingOracle,
	StatusAwaitingAudio,
	StatusVerified,
	StatusPendingFix,
	StatusFixed,
	StatusNeedsAttention,
	StatusDuplicate,
	StatusError,
}

var statusSet = func() map[ItemStatus]struct{} {
	set := make(map[ItemStatus]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []ItemStatus {
	cp := make([]ItemStatus, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known ItemStatus.
func ParseStatus(value string) (ItemStatus, bool) {
	normalized := ItemStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// PipelineState returns the 0-4 verification state for a status. The state
// is monotonically non-decreasing for an item except on explicit re-scan.
func (s ItemStatus) PipelineState() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusLookingUp:
		return 1
	case StatusAwaitingOracle:
		return 2
	case StatusAwaitingAudio:
		return 3
	case StatusVerified, StatusPendingFix, StatusFixed, StatusNeedsAttention, StatusDuplicate, StatusError:
		return 4
	default:
		return 0
	}
}

// IsTerminal reports whether the status ends pipeline processing.
func (s ItemStatus) IsTerminal() bool {
	return s.PipelineState() == 4
}

// HistoryStatus represents the lifecycle of a fix record.
type HistoryStatus string

const (
	HistoryPendingFix     HistoryStatus = "pending_fix"
	HistoryFixed          HistoryStatus = "fixed"
	HistoryDuplicate      HistoryStatus = "duplicate"
	HistoryCorruptDest    HistoryStatus = "corrupt_dest"
	HistoryNeedsAttention HistoryStatus = "needs_attention"
	HistoryError          HistoryStatus = "error"
	HistoryUndone         HistoryStatus = "undone"
)

var historyStatusSet = map[HistoryStatus]struct{}{
	HistoryPendingFix:     {},
	HistoryFixed:          {},
	HistoryDuplicate:      {},
	HistoryCorruptDest:    {},
	HistoryNeedsAttention: {},
	HistoryError:          {},
	HistoryUndone:         {},
}

// ParseHistoryStatus converts a string into a known HistoryStatus.
func ParseHistoryStatus(value string) (HistoryStatus, bool) {
	normalized := HistoryStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := historyStatusSet[normalized]
	return normalized, ok
}

// Item represents a library item persisted in SQLite. At most one row exists
// per path; the status doubles as the queue entry.
type Item struct {
	ID             int64
	Path           string
	Author         string
	Title          string
	Status         ItemStatus
	ProfileJSON    string
	OracleAttempts int
	Claimed        bool
	NeedsReview    bool
	ReviewReason   string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SetError marks the item failed with an explicit message.
func (i *Item) SetError(message string) {
	i.Status = StatusError
	i.ErrorMessage = message
}

// SetNeedsAttention routes the item to manual review with a reason.
func (i *Item) SetNeedsAttention(reason string) {
	i.Status = StatusNeedsAttention
	i.NeedsReview = true
	i.ReviewReason = reason
}

// HistoryRecord captures one identity/path transition for an item.
type HistoryRecord struct {
	ID        int64
	RecordID  string
	ItemID    int64
	OldAuthor string
	OldTitle  string
	NewAuthor string
	NewTitle  string
	OldPath   string
	NewPath   string
	Status    HistoryStatus
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HealthSummary describes aggregated item counts per key lifecycle states.
type HealthSummary struct {
	Total          int
	Queued         int
	InPipeline     int
	PendingFix     int
	Fixed          int
	Verified       int
	NeedsAttention int
	Errors         int
}
