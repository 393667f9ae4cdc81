package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// CheckClockIn validates today's record (nil when none exists) before a clock-in
func CheckClockIn(today *models.AttendanceRecord) error {
	switch {
	case today.IsCompleted():
		return apperr.New(apperr.DayLocked, "clock_in", today.OutletStaffID.String(), "")
	case today.IsCheckedIn():
		return apperr.New(apperr.AlreadyCheckedIn, "clock_in", today.OutletStaffID.String(), "")
	}
	return nil
}

// CheckClockOut validates that there is an open check-in to close
func CheckClockOut(today *models.AttendanceRecord) error {
	if !today.IsCheckedIn() {
		ref := ""
		if today != nil {
			ref = today.OutletStaffID.String()
		}
		return apperr.New(apperr.NotCheckedIn, "clock_out", ref, "")
	}
	return nil
}

// ClockIn returns the record that results from clocking in at now.
// A nil today starts a new record for date.
func ClockIn(today *models.AttendanceRecord, staffID uuid.UUID, date string, now time.Time) (models.AttendanceRecord, error) {
	if err := CheckClockIn(today); err != nil {
		return models.AttendanceRecord{}, err
	}

	var rec models.AttendanceRecord
	if today != nil {
		rec = *today
	} else {
		rec = models.AttendanceRecord{
			ID:            uuid.New(),
			OutletStaffID: staffID,
			Date:          date,
			CreatedAt:     now,
		}
	}
	rec.ClockInAt = &now
	rec.UpdatedAt = now
	return rec, nil
}

// ClockOut returns the record that results from clocking out at now
func ClockOut(today *models.AttendanceRecord, now time.Time) (models.AttendanceRecord, error) {
	if err := CheckClockOut(today); err != nil {
		return models.AttendanceRecord{}, err
	}

	rec := *today
	if now.Before(*rec.ClockInAt) {
		now = *rec.ClockInAt
	}
	rec.ClockOutAt = &now
	rec.UpdatedAt = now
	return rec, nil
}
