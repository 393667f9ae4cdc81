package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cleanspin/laundry-ops/internal/models"
)

// AttendanceRepository handles daily check-in/check-out records
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `
	id, outlet_staff_id, to_char(attendance_date, 'YYYY-MM-DD') AS attendance_date,
	clock_in_at, clock_out_at, created_at, updated_at`

// GetAttendanceByDate returns the record of one staff member for one day, or nil
func (r *AttendanceRepository) GetAttendanceByDate(ctx context.Context, staffID uuid.UUID, date string) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE outlet_staff_id = $1 AND attendance_date = $2`

	err := r.db.GetContext(ctx, &rec, query, staffID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &rec, nil
}

// ClockIn stores the clock-in of rec. It returns false without writing when the
// day already has a clock-in; the unique (staff, date) key makes this race-free.
func (r *AttendanceRepository) ClockIn(ctx context.Context, rec *models.AttendanceRecord) (bool, error) {
	query := `
		INSERT INTO attendances (id, outlet_staff_id, attendance_date, clock_in_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (outlet_staff_id, attendance_date) DO UPDATE
		SET clock_in_at = EXCLUDED.clock_in_at, updated_at = EXCLUDED.updated_at
		WHERE attendances.clock_in_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, rec.ID, rec.OutletStaffID, rec.Date, rec.ClockInAt, rec.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to clock in: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ClockOut closes the open check-in of the day. It returns nil when there is none.
func (r *AttendanceRepository) ClockOut(ctx context.Context, staffID uuid.UUID, date string, at time.Time) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	query := `
		UPDATE attendances
		SET clock_out_at = GREATEST($3, clock_in_at), updated_at = $3
		WHERE outlet_staff_id = $1 AND attendance_date = $2
		  AND clock_in_at IS NOT NULL AND clock_out_at IS NULL
		RETURNING ` + attendanceColumns

	err := r.db.GetContext(ctx, &rec, query, staffID, date, at)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to clock out: %w", err)
	}
	return &rec, nil
}

// ListAttendance returns a page of a staff member's history, newest first, and the total count
func (r *AttendanceRepository) ListAttendance(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceRecord, int, error) {
	conditions := []string{"outlet_staff_id = $1"}
	args := []interface{}{filter.OutletStaffID}
	argCount := 2

	if filter.From != "" {
		conditions = append(conditions, fmt.Sprintf("attendance_date >= $%d", argCount))
		args = append(args, filter.From)
		argCount++
	}
	if filter.To != "" {
		conditions = append(conditions, fmt.Sprintf("attendance_date <= $%d", argCount))
		args = append(args, filter.To)
		argCount++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM attendances WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE %s ORDER BY attendance_date DESC LIMIT $%d OFFSET $%d`,
		attendanceColumns, where, argCount, argCount+1)
	args = append(args, filter.Limit, filter.Offset)

	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, total, nil
}

// ListOpenAttendanceBefore returns check-ins that were never closed on days before date
func (r *AttendanceRepository) ListOpenAttendanceBefore(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE attendance_date < $1 AND clock_in_at IS NOT NULL AND clock_out_at IS NULL
		ORDER BY attendance_date, outlet_staff_id`

	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, fmt.Errorf("failed to list open attendance: %w", err)
	}
	return records, nil
}
