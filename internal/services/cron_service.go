package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/workflow"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron             *cron.Cron
	attendance       AttendanceStore
	stations         StationStore
	clock            workflow.Clock
	staleBypassAfter time.Duration
	logger           *logrus.Logger
}

// NewCronService creates a new CronService. Schedules are evaluated in loc so
// "midnight" means the outlet's midnight.
func NewCronService(
	attendance AttendanceStore,
	stations StationStore,
	clock workflow.Clock,
	staleBypassAfter time.Duration,
	loc *time.Location,
	logger *logrus.Logger,
) *CronService {
	if loc == nil {
		loc = time.UTC
	}
	return &CronService{
		cron:             cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		attendance:       attendance,
		stations:         stations,
		clock:            clock,
		staleBypassAfter: staleBypassAfter,
		logger:           logger,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	// Cron format: second minute hour day month weekday
	// "0 5 0 * * *" = At 00:05 every day
	if _, err := s.cron.AddFunc("0 5 0 * * *", s.missingClockOutJob); err != nil {
		return fmt.Errorf("failed to schedule missing clock-out job: %w", err)
	}
	s.logger.Info("Scheduled: missing clock-out sweep (daily at 00:05)")

	// "0 0 * * * *" = At minute 0 of every hour
	if _, err := s.cron.AddFunc("0 0 * * * *", s.staleBypassJob); err != nil {
		return fmt.Errorf("failed to schedule stale bypass job: %w", err)
	}
	s.logger.Info("Scheduled: stale bypass request report (hourly)")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) missingClockOutJob() {
	start := time.Now()
	n, err := s.RunMissingClockOutSweep(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Missing clock-out sweep failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"open_records": n,
		"duration":     time.Since(start).String(),
	}).Info("[CRON] Missing clock-out sweep finished")
}

func (s *CronService) staleBypassJob() {
	n, err := s.RunStaleBypassReport(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Stale bypass report failed")
		return
	}
	s.logger.WithField("stale_requests", n).Info("[CRON] Stale bypass report finished")
}

// RunMissingClockOutSweep reports every attendance record from a previous day
// that was never clocked out. Records are left as they are; a day without a
// clock-out stays checked-in until an admin corrects it.
func (s *CronService) RunMissingClockOutSweep(ctx context.Context) (int, error) {
	today := s.clock.Today()
	open, err := s.attendance.ListOpenAttendanceBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list open attendance: %w", err)
	}
	for _, rec := range open {
		s.logger.WithFields(logrus.Fields{
			"attendance_id":   rec.ID,
			"outlet_staff_id": rec.OutletStaffID,
			"date":            rec.Date,
			"clock_in_at":     rec.ClockInAt,
		}).Warn("Attendance has no clock-out")
	}
	return len(open), nil
}

// RunStaleBypassReport reports bypass requests that have been waiting for an
// admin decision longer than the configured threshold.
func (s *CronService) RunStaleBypassReport(ctx context.Context) (int, error) {
	now := s.clock.Now()
	stale, err := s.stations.ListStaleBypassRequests(ctx, now.Add(-s.staleBypassAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale bypass requests: %w", err)
	}
	for _, req := range stale {
		s.logger.WithFields(logrus.Fields{
			"bypass_request_id": req.ID,
			"station_order_id":  req.StationOrderID,
			"outlet_id":         req.OutletID,
			"station":           req.StationType,
			"waiting":           now.Sub(req.RequestedAt).Round(time.Minute).String(),
		}).Warn("Bypass request is waiting for a decision")
	}
	return len(stale), nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
