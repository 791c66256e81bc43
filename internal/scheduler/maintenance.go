package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultResyncInterval is how often pending reminders are rebuilt from the store
const DefaultResyncInterval = 6 * time.Hour

// Maintenance periodically rebuilds the reminder table from stored topics
type Maintenance struct {
	cron      *gocron.Scheduler
	scheduler *Scheduler
	interval  time.Duration
	logger    *zap.Logger
}

// NewMaintenance creates the periodic resync job runner
func NewMaintenance(s *Scheduler, interval time.Duration, logger *zap.Logger) *Maintenance {
	if interval <= 0 {
		interval = DefaultResyncInterval
	}
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	return &Maintenance{
		cron:      cron,
		scheduler: s,
		interval:  interval,
		logger:    logger,
	}
}

// Start begins running the resync job. The first run happens one interval
// after start since the caller resyncs at startup itself.
func (m *Maintenance) Start() error {
	if _, err := m.cron.Every(m.interval).WaitForSchedule().Do(m.resync); err != nil {
		return fmt.Errorf("failed to schedule resync job: %w", err)
	}
	m.cron.StartAsync()
	m.logger.Info("maintenance started", zap.Duration("resync_interval", m.interval))
	return nil
}

// Stop terminates all scheduled tasks
func (m *Maintenance) Stop() {
	m.cron.Stop()
}

func (m *Maintenance) resync() {
	pending := m.scheduler.ScheduleAll()
	m.logger.Debug("periodic resync finished", zap.Int("pending", pending))
}
