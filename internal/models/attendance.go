package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-day format used for attendance dates
const DateLayout = "2006-01-02"

// AttendanceRecord is one staff member's check-in/check-out for one calendar day
type AttendanceRecord struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	OutletStaffID uuid.UUID  `json:"outlet_staff_id" db:"outlet_staff_id"`
	Date          string     `json:"date" db:"attendance_date"`
	ClockInAt     *time.Time `json:"clock_in_at,omitempty" db:"clock_in_at"`
	ClockOutAt    *time.Time `json:"clock_out_at,omitempty" db:"clock_out_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// IsCheckedIn is true between clock-in and clock-out
func (a *AttendanceRecord) IsCheckedIn() bool {
	return a != nil && a.ClockInAt != nil && a.ClockOutAt == nil
}

// IsCompleted is true once the day has been clocked out
func (a *AttendanceRecord) IsCompleted() bool {
	return a != nil && a.ClockOutAt != nil
}

// AttendanceView is the wire projection of today's attendance, including derived flags
type AttendanceView struct {
	Record      *AttendanceRecord `json:"record"`
	Date        string            `json:"date"`
	IsCheckedIn bool              `json:"is_checked_in"`
	IsCompleted bool              `json:"is_completed"`
}

// NewAttendanceView builds the projection; rec may be nil
func NewAttendanceView(date string, rec *AttendanceRecord) AttendanceView {
	return AttendanceView{
		Record:      rec,
		Date:        date,
		IsCheckedIn: rec.IsCheckedIn(),
		IsCompleted: rec.IsCompleted(),
	}
}

// AttendanceHistoryFilter selects a staff member's past records
type AttendanceHistoryFilter struct {
	OutletStaffID uuid.UUID
	From          string // inclusive, DateLayout; empty for unbounded
	To            string // inclusive, DateLayout; empty for unbounded
	Limit         int
	Offset        int
}
