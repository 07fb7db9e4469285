// Package maintenance runs periodic database housekeeping.
package maintenance

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/gangerang/poem-clock/internal/persistence"
)

// checkpointSpec runs the WAL checkpoint daily at 03:30 local time, well away
// from the top-of-hour prune.
const checkpointSpec = "30 3 * * *"

// Runner schedules background housekeeping for the poem database.
type Runner struct {
	cron *cron.Cron
	db   *persistence.DB
}

// New wires the housekeeping jobs for the given database.
func New(db *persistence.DB) *Runner {
	return &Runner{
		cron: cron.New(),
		db:   db,
	}
}

// Start registers the jobs and launches the cron scheduler.
func (r *Runner) Start() error {
	if _, err := r.cron.AddFunc(checkpointSpec, r.checkpoint); err != nil {
		return fmt.Errorf("schedule checkpoint: %w", err)
	}
	r.cron.Start()
	slog.Info("maintenance jobs started", "checkpoint", checkpointSpec)
	return nil
}

// Stop halts the cron scheduler and waits for a running job to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	slog.Info("maintenance jobs stopped")
}

// checkpoint folds the write-ahead log back into the main database file.
func (r *Runner) checkpoint() {
	if err := r.db.Checkpoint(); err != nil {
		slog.Error("wal checkpoint failed", "error", err)
		return
	}
	slog.Info("wal checkpoint complete")
}
