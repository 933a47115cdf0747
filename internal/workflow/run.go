package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"shelfmark/internal/logging"
	"shelfmark/internal/queue"
	"shelfmark/internal/scanner"
	"shelfmark/internal/services"
)

// Start acquires the instance lock, clears claims left behind by an earlier
// process, installs the scan schedule, and launches the worker loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	m.mu.Unlock()

	locked, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another instance holds %s", m.lock.Path())
	}

	released, err := m.store.ReleaseAll(ctx)
	if err != nil {
		_ = m.lock.Unlock()
		return fmt.Errorf("release stale claims: %w", err)
	}
	if released > 0 {
		m.logger.Info("released claims from a previous run", logging.Int64("items", released))
	}

	runCtx, cancel := context.WithCancel(ctx)

	if m.scanner != nil && m.cfg.Workflow.ScanSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(m.cfg.Workflow.ScanSchedule, func() { m.runScan(runCtx) }); err != nil {
			cancel()
			_ = m.lock.Unlock()
			return fmt.Errorf("install scan schedule %q: %w", m.cfg.Workflow.ScanSchedule, err)
		}
		c.Start()
		m.cron = c
	}

	m.mu.Lock()
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runWorker(runCtx)

	m.logger.Info("workflow started",
		logging.Duration("poll_interval", m.pollEvery),
		logging.Int("batch_size", m.cfg.Workflow.BatchSize),
		logging.String("scan_schedule", m.cfg.Workflow.ScanSchedule),
	)
	return nil
}

// Stop halts the scan schedule and the worker loop, waits for the in-flight
// item to finish, and releases the instance lock.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if m.cron != nil {
		<-m.cron.Stop().Done()
		m.cron = nil
	}
	cancel()
	m.wg.Wait()
	if err := m.lock.Unlock(); err != nil {
		m.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	m.logger.Info("workflow stopped")
}

func (m *Manager) runWorker(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := m.processBatch(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			m.setLastError(err)
			m.logger.Error("queue batch failed", logging.Error(err))
			m.sleep(ctx, m.retryEvery)
		case processed == 0:
			m.sleep(ctx, m.pollEvery)
		}
	}
}

// processBatch claims and processes up to BatchSize items. Cancellation is
// honored between items, never in the middle of one: a claimed item always
// runs to a persisted state before the worker yields.
func (m *Manager) processBatch(ctx context.Context) (int, error) {
	batchStart := time.Now()
	processed := 0
	for processed < m.cfg.Workflow.BatchSize {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		item, err := m.store.Claim(ctx, claimStatuses...)
		if err != nil {
			return processed, fmt.Errorf("claim next item: %w", err)
		}
		if item == nil {
			break
		}
		if err := m.processOne(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return processed, err
			}
			m.setLastError(err)
			m.logger.Error("item processing failed",
				logging.Int64("item_id", item.ID),
				logging.String("path", item.Path),
				logging.Error(err),
			)
			m.markFailed(ctx, item, err)
		}
		processed++
	}
	if processed > 0 {
		elapsed := time.Since(batchStart)
		perHour := float64(processed) / elapsed.Hours()
		calls, skipped := m.pipe.SourceCallStats()
		m.logger.Info("queue batch complete",
			logging.Int("processed", processed),
			logging.Duration("elapsed", elapsed.Round(time.Millisecond)),
			logging.Float64("items_per_hour", perHour),
			logging.Int("provider_calls", calls),
			logging.Int("provider_skips", skipped),
		)
	}
	return processed, nil
}

func (m *Manager) processOne(ctx context.Context, item *queue.Item) error {
	defer func() {
		if err := m.store.Release(context.WithoutCancel(ctx), item.ID); err != nil {
			m.logger.Warn("failed to release item claim",
				logging.Int64("item_id", item.ID), logging.Error(err))
		}
	}()
	itemCtx := logging.IntoContext(ctx, logging.String("request_id", uuid.NewString()))
	return m.pipe.ProcessItem(itemCtx, item)
}

// markFailed persists a failure status so a broken item does not requeue
// silently. Validation and configuration failures go to review; everything
// else lands in error for the next cycle.
func (m *Manager) markFailed(ctx context.Context, item *queue.Item, procErr error) {
	status := services.FailureStatus(procErr)
	if status == queue.StatusNeedsAttention {
		item.SetNeedsAttention(procErr.Error())
	} else {
		item.SetError(procErr.Error())
	}
	if err := m.store.Update(context.WithoutCancel(ctx), item); err != nil {
		m.logger.Warn("failed to persist item failure",
			logging.Int64("item_id", item.ID), logging.Error(err))
	}
}

// ScanNow runs a library scan immediately, outside the schedule.
func (m *Manager) ScanNow(ctx context.Context) (scanner.Summary, error) {
	if m.scanner == nil {
		return scanner.Summary{}, errors.New("no scanner configured")
	}
	summary, err := m.scanner.Scan(ctx)
	if err == nil {
		m.mu.Lock()
		m.lastScan = time.Now()
		m.mu.Unlock()
	}
	return summary, err
}

func (m *Manager) runScan(ctx context.Context) {
	summary, err := m.ScanNow(ctx)
	if err != nil {
		m.setLastError(err)
		m.logger.Error("scheduled scan failed", logging.Error(err))
		return
	}
	m.logger.Info("scheduled scan complete",
		logging.Int("folders_seen", summary.FoldersSeen),
		logging.Int("books_found", summary.BooksFound),
		logging.Int("new_items", summary.NewItems),
	)
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
