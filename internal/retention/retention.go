// Package retention removes per-job intermediate artifacts after a
// configurable delay. Deliverables in the output directory are never touched
// here; only explicit job deletion removes those.
package retention

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"dubforge/internal/artifacts"
	"dubforge/internal/config"
	"dubforge/internal/logging"
)

// Manager schedules best-effort cleanup of job scratch files.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	delay  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// NewManager builds a retention manager using workflow.cleanup_delay_seconds.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "retention")),
		delay:  time.Duration(cfg.Workflow.CleanupDelay) * time.Second,
		timers: make(map[string]*time.Timer),
	}
}

// ScheduleCleanup arranges removal of the job's intermediates after the given
// delay; a non-positive delay uses workflow.cleanup_delay_seconds.
// Rescheduling an already pending job resets its timer.
func (m *Manager) ScheduleCleanup(jobID string, delay time.Duration) {
	if delay <= 0 {
		delay = m.delay
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if timer, ok := m.timers[jobID]; ok {
		if timer.Stop() {
			m.wg.Done()
		}
	}
	m.wg.Add(1)
	m.timers[jobID] = time.AfterFunc(delay, func() {
		defer m.wg.Done()
		m.mu.Lock()
		delete(m.timers, jobID)
		m.mu.Unlock()
		m.CleanupNow(jobID)
	})
}

// CleanupNow removes the job's intermediate artifacts synchronously. Missing
// files are ignored; each path is attempted independently.
func (m *Manager) CleanupNow(jobID string) {
	layout := artifacts.NewLayout(m.cfg, jobID)
	removed := 0
	for _, path := range layout.Intermediates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			m.logger.Warn("failed to remove intermediate",
				logging.String(logging.FieldJobID, jobID),
				logging.String("path", path),
				logging.Error(err),
			)
			continue
		}
		removed++
	}
	if err := removeIfEmpty(layout.WorkDir()); err == nil && removed > 0 {
		m.logger.Info("cleaned job intermediates",
			logging.String(logging.FieldJobID, jobID),
			logging.Int("removed", removed),
		)
	}
}

// RemoveAll deletes everything the job ever wrote, scratch and deliverables
// alike. Used by the explicit deletion path.
func (m *Manager) RemoveAll(jobID string) {
	m.Cancel(jobID)
	layout := artifacts.NewLayout(m.cfg, jobID)
	for _, dir := range []string{layout.WorkDir(), layout.OutputDir()} {
		if err := os.RemoveAll(dir); err != nil {
			m.logger.Warn("failed to remove job directory",
				logging.String(logging.FieldJobID, jobID),
				logging.String("path", dir),
				logging.Error(err),
			)
		}
	}
}

// Cancel drops a pending cleanup timer for the job, if any.
func (m *Manager) Cancel(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if timer, ok := m.timers[jobID]; ok {
		if timer.Stop() {
			m.wg.Done()
		}
		delete(m.timers, jobID)
	}
}

// Wait blocks until every fired cleanup has finished. Used in tests and on
// daemon shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func removeIfEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	return os.Remove(dir)
}
