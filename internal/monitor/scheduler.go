package monitor

import (
	"context"
	"sync"
	"time"

	"tcu-monitor/internal/logging"
)

// Scheduler drives the three periodic evaluations on independent timers.
// Runs are read-only over the store, so a slow run overlapping the next tick
// is harmless and no run is ever cancelled mid-flight.
type Scheduler struct {
	engine *Engine
	logger *logging.Logger

	checkInterval  time.Duration
	statusInterval time.Duration
	summaryHour    int
	summaryMinute  int
	tz             *time.Location
}

func NewScheduler(engine *Engine, logger *logging.Logger) *Scheduler {
	cfg := engine.cfg.Monitor
	return &Scheduler{
		engine:         engine,
		logger:         logger,
		checkInterval:  time.Duration(cfg.CheckIntervalMinutes) * time.Minute,
		statusInterval: time.Hour,
		summaryHour:    cfg.DailySummaryHour,
		summaryMinute:  cfg.DailySummaryMinute,
		tz:             cfg.Timezone,
	}
}

// Start launches the three timer loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(3)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.engine.RunInactivityCheck()
			}
		}
	}()

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.statusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.engine.RunStatusReport()
			}
		}
	}()

	// The daily summary fires on an exact HH:MM match sampled once a minute.
	// The 1-minute tick is the only double-fire guard; a missed minute means
	// a missed summary for that day.
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now().In(s.tz)
				if now.Hour() == s.summaryHour && now.Minute() == s.summaryMinute {
					s.engine.RunDailySummary()
				}
			}
		}
	}()

	s.logger.Infof("Scheduler started: inactivity every %s, status every %s, summary at %02d:%02d",
		s.checkInterval, s.statusInterval, s.summaryHour, s.summaryMinute)
}
