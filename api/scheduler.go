/*
scheduler.go - Periodic alert scan

PURPOSE:
  Periodically builds the system report and publishes its alert counts:
  employees who still have more than the threshold of days unscheduled, and
  managers sitting on drafts they have not submitted to HR. Counts go to
  Prometheus gauges and each alert is logged as a warning, so HR sees them
  without opening the reports endpoint.

DESIGN:
  - One background goroutine with a configurable interval
  - Runs once immediately on Start, then on every tick
  - A failed scan is logged and retried on the next tick

USAGE:
  scheduler := NewAlertScheduler(svc, logger, reg)
  scheduler.Start(ctx)
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Alerts endpoint (same report, on demand)
  - vacation/reports.go: BuildReport
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warp/vacation-engine/vacation"
)

// AlertScheduler scans for scheduling alerts on an interval.
type AlertScheduler struct {
	Interval  time.Duration
	Threshold int

	svc    *vacation.Service
	logger *slog.Logger

	missing   prometheus.Gauge
	managers  prometheus.Gauge
	lastScan  prometheus.Gauge
	scanFails prometheus.Counter

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAlertScheduler registers the alert gauges with reg.
func NewAlertScheduler(svc *vacation.Service, logger *slog.Logger, reg prometheus.Registerer) *AlertScheduler {
	f := promauto.With(reg)
	return &AlertScheduler{
		Interval:  time.Hour,
		Threshold: vacation.DefaultMissingScheduleThreshold,
		svc:       svc,
		logger:    logger,
		missing: f.NewGauge(prometheus.GaugeOpts{
			Name: "vacation_alert_missing_schedule",
			Help: "Employees with more unscheduled days than the alert threshold",
		}),
		managers: f.NewGauge(prometheus.GaugeOpts{
			Name: "vacation_alert_managers_with_drafts",
			Help: "Managers with unsubmitted drafts from their reports",
		}),
		lastScan: f.NewGauge(prometheus.GaugeOpts{
			Name: "vacation_alert_last_scan_timestamp_seconds",
			Help: "Unix time of the last successful alert scan",
		}),
		scanFails: f.NewCounter(prometheus.CounterOpts{
			Name: "vacation_alert_scan_failures_total",
			Help: "Alert scans that could not build the report",
		}),
	}
}

// Start begins the scheduler. Calling Start twice is a no-op.
func (s *AlertScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("alert scheduler started", "interval", s.Interval, "threshold", s.Threshold)
}

// Stop stops the scheduler and waits for an in-flight scan.
func (s *AlertScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	s.logger.Info("alert scheduler stopped")
}

func (s *AlertScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce performs a single scan and returns the alerts it found.
func (s *AlertScheduler) RunOnce(ctx context.Context) (vacation.Alerts, error) {
	report, err := s.svc.SystemReport(ctx, s.Threshold)
	if err != nil {
		s.scanFails.Inc()
		s.logger.ErrorContext(ctx, "alert scan failed", "error", err)
		return vacation.Alerts{}, err
	}

	alerts := report.Alerts
	s.missing.Set(float64(len(alerts.MissingSchedule)))
	s.managers.Set(float64(len(alerts.ManagersWithDrafts)))
	s.lastScan.SetToCurrentTime()

	for _, row := range alerts.MissingSchedule {
		s.logger.WarnContext(ctx, "employee has unscheduled vacation days",
			"employee_id", row.Employee.ID,
			"remaining", row.Balance.Remaining,
			"threshold", s.Threshold,
		)
	}
	for _, md := range alerts.ManagersWithDrafts {
		s.logger.WarnContext(ctx, "manager has unsubmitted drafts",
			"manager_id", md.Manager.ID,
			"drafts", md.Drafts,
		)
	}
	return alerts, nil
}
