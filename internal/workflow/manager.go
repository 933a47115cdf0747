package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"shelfmark/internal/config"
	"shelfmark/internal/logging"
	"shelfmark/internal/pipeline"
	"shelfmark/internal/queue"
	"shelfmark/internal/scanner"
)

// claimStatuses are the statuses a worker may pick up. Terminal statuses are
// never claimed; re-processing requires an explicit retry.
var claimStatuses = []queue.ItemStatus{
	queue.StatusQueued,
	queue.StatusLookingUp,
	queue.StatusAwaitingOracle,
	queue.StatusAwaitingAudio,
}

// Manager owns the daemon lifecycle: the instance lock, the scan schedule,
// and the worker loop that feeds claimed items to the pipeline.
type Manager struct {
	cfg        *config.Config
	store      *queue.Store
	pipe       *pipeline.Pipeline
	scanner    *scanner.Scanner
	logger     *slog.Logger
	pollEvery  time.Duration
	retryEvery time.Duration

	lock *flock.Flock
	cron *cron.Cron

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastScan time.Time
}

// NewManager constructs a manager. The scanner may be nil, in which case no
// scan schedule is installed.
func NewManager(cfg *config.Config, store *queue.Store, pipe *pipeline.Pipeline, sc *scanner.Scanner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:        cfg,
		store:      store,
		pipe:       pipe,
		scanner:    sc,
		logger:     logger.With(logging.String("component", "workflow")),
		pollEvery:  time.Duration(cfg.Workflow.PollIntervalSeconds) * time.Second,
		retryEvery: time.Duration(cfg.Workflow.ErrorRetryIntervalSeconds) * time.Second,
		lock:       flock.New(cfg.LockPath()),
	}
}

// Running reports whether the background loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastError returns the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// LastScan returns the completion time of the most recent scheduled scan.
func (m *Manager) LastScan() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastScan
}
