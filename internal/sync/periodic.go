package sync

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/conorfennell/memorank/internal/storage"
)

// Periodic re-runs the source sync on a fixed interval while the server is up.
type Periodic struct {
	scheduler *gocron.Scheduler
	db        *storage.DB
}

// NewPeriodic creates a periodic sync runner. It does not start it.
func NewPeriodic(db *storage.DB) *Periodic {
	return &Periodic{
		scheduler: gocron.NewScheduler(time.UTC),
		db:        db,
	}
}

// Start schedules the sync job and runs the scheduler in the background.
func (p *Periodic) Start(interval time.Duration) error {
	_, err := p.scheduler.Every(interval).Do(func() {
		if err := RunSync(p.db); err != nil {
			slog.Error("periodic sync failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	p.scheduler.StartAsync()
	return nil
}

// Stop terminates the background scheduler.
func (p *Periodic) Stop() {
	p.scheduler.Stop()
}
