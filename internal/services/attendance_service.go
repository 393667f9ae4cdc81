package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/workflow"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// AttendanceService runs the daily clock-in/clock-out state machine
type AttendanceService struct {
	store  AttendanceStore
	clock  workflow.Clock
	audit  *AuditService
	logger *logrus.Logger
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(store AttendanceStore, clock workflow.Clock, audit *AuditService, logger *logrus.Logger) *AttendanceService {
	return &AttendanceService{store: store, clock: clock, audit: audit, logger: logger}
}

func requireStaff(op string, actor Actor) error {
	if actor.StaffID == nil {
		return apperr.New(apperr.Forbidden, op, actor.UserID.String(), "Attendance is only tracked for outlet staff")
	}
	return nil
}

// Today returns today's attendance projection for the actor
func (s *AttendanceService) Today(ctx context.Context, actor Actor) (*models.AttendanceView, error) {
	if err := requireStaff("attendance_today", actor); err != nil {
		return nil, err
	}
	date := s.clock.Today()
	rec, err := s.store.GetAttendanceByDate(ctx, *actor.StaffID, date)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "attendance_today", actor.StaffID.String(), err)
	}
	view := models.NewAttendanceView(date, rec)
	return &view, nil
}

// TodayRecord returns the raw record for the access gate; nil means no check-in today
func (s *AttendanceService) TodayRecord(ctx context.Context, actor Actor) (*models.AttendanceRecord, error) {
	if actor.StaffID == nil {
		return nil, nil
	}
	rec, err := s.store.GetAttendanceByDate(ctx, *actor.StaffID, s.clock.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}
	return rec, nil
}

// ClockIn starts the actor's working day
func (s *AttendanceService) ClockIn(ctx context.Context, actor Actor) (*models.AttendanceRecord, error) {
	const op = "clock_in"
	if err := requireStaff(op, actor); err != nil {
		return nil, err
	}
	staffID := *actor.StaffID
	date, now := s.clock.Today(), s.clock.Now()

	today, err := s.store.GetAttendanceByDate(ctx, staffID, date)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, staffID.String(), err)
	}
	rec, err := workflow.ClockIn(today, staffID, date, now)
	if err != nil {
		return nil, err
	}

	applied, err := s.store.ClockIn(ctx, &rec)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, staffID.String(), err)
	}
	if !applied {
		// a concurrent request clocked in first; report what is there now
		current, err := s.store.GetAttendanceByDate(ctx, staffID, date)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, op, staffID.String(), err)
		}
		if err := workflow.CheckClockIn(current); err != nil {
			return nil, err
		}
		return nil, apperr.New(apperr.AlreadyCheckedIn, op, staffID.String(), "")
	}

	s.logger.WithFields(logrus.Fields{
		"outlet_staff_id": staffID,
		"date":            date,
	}).Info("Staff clocked in")
	s.audit.Record(ctx, actor, AuditClockIn, "attendance", rec.ID, map[string]interface{}{"date": date})

	return &rec, nil
}

// ClockOut ends the actor's working day; the day is locked afterwards
func (s *AttendanceService) ClockOut(ctx context.Context, actor Actor) (*models.AttendanceRecord, error) {
	const op = "clock_out"
	if err := requireStaff(op, actor); err != nil {
		return nil, err
	}
	staffID := *actor.StaffID
	date, now := s.clock.Today(), s.clock.Now()

	today, err := s.store.GetAttendanceByDate(ctx, staffID, date)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, staffID.String(), err)
	}
	if err := workflow.CheckClockOut(today); err != nil {
		return nil, err
	}

	rec, err := s.store.ClockOut(ctx, staffID, date, now)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, staffID.String(), err)
	}
	if rec == nil {
		return nil, apperr.New(apperr.NotCheckedIn, op, staffID.String(), "")
	}

	s.logger.WithFields(logrus.Fields{
		"outlet_staff_id": staffID,
		"date":            date,
	}).Info("Staff clocked out")
	s.audit.Record(ctx, actor, AuditClockOut, "attendance", rec.ID, map[string]interface{}{"date": date})

	return rec, nil
}

// History lists the actor's past attendance, newest first. from and to are optional YYYY-MM-DD bounds.
func (s *AttendanceService) History(ctx context.Context, actor Actor, from, to string, page Page) ([]models.AttendanceRecord, int, error) {
	const op = "attendance_history"
	if err := requireStaff(op, actor); err != nil {
		return nil, 0, err
	}
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := parseDate(d); err != nil {
			return nil, 0, apperr.New(apperr.Validation, op, d, "Dates must be formatted as YYYY-MM-DD")
		}
	}
	if from != "" && to != "" && from > to {
		return nil, 0, apperr.New(apperr.Validation, op, "", "from must not be after to")
	}

	records, total, err := s.store.ListAttendance(ctx, models.AttendanceHistoryFilter{
		OutletStaffID: *actor.StaffID,
		From:          from,
		To:            to,
		Limit:         page.Limit,
		Offset:        page.Offset(),
	})
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, op, actor.StaffID.String(), err)
	}
	return records, total, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}
