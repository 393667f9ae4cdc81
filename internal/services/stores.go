package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cleanspin/laundry-ops/internal/models"
)

// AttendanceStore persists daily attendance records.
// Implemented by database.AttendanceRepository and database.MemoryStore.
type AttendanceStore interface {
	GetAttendanceByDate(ctx context.Context, staffID uuid.UUID, date string) (*models.AttendanceRecord, error)
	// ClockIn returns false when the day already has a clock-in
	ClockIn(ctx context.Context, rec *models.AttendanceRecord) (bool, error)
	// ClockOut returns nil when there is no open check-in for the day
	ClockOut(ctx context.Context, staffID uuid.UUID, date string, at time.Time) (*models.AttendanceRecord, error)
	ListAttendance(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceRecord, int, error)
	ListOpenAttendanceBefore(ctx context.Context, date string) ([]models.AttendanceRecord, error)
}

// StationStore persists station orders and bypass requests.
// Writes are conditional: a false or nil result means the row had already moved on.
type StationStore interface {
	GetStationOrder(ctx context.Context, id uuid.UUID) (*models.StationOrder, error)
	ClaimStationOrder(ctx context.Context, id uuid.UUID, station models.StationType, staffID uuid.UUID, at time.Time) (*models.StationOrder, error)
	ApplyCompletion(ctx context.Context, next models.StationOrder, prevVersion int, bypass *models.BypassRequest) (bool, error)
	ApplyResolution(ctx context.Context, req models.BypassRequest, next models.StationOrder, prevVersion int) (bool, error)
	ListStationOrders(ctx context.Context, filter models.StationOrderFilter) ([]models.StationOrder, int, error)
	StationStats(ctx context.Context, station models.StationType, outletID uuid.UUID) (*models.StationStats, error)

	GetBypassRequest(ctx context.Context, id uuid.UUID) (*models.BypassRequest, error)
	GetOpenBypassRequest(ctx context.Context, stationOrderID uuid.UUID) (*models.BypassRequest, error)
	ListBypassRequests(ctx context.Context, filter models.BypassRequestFilter) ([]models.BypassRequest, int, error)
	ListStaleBypassRequests(ctx context.Context, before time.Time) ([]models.BypassRequest, error)
}

// StaffDirectory resolves outlet staff records
type StaffDirectory interface {
	GetOutletStaff(ctx context.Context, id uuid.UUID) (*models.OutletStaff, error)
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID    uuid.UUID
	StaffID   *uuid.UUID // outlet staff record; nil for super admins and customers
	OutletID  *uuid.UUID
	Role      models.Role
	IPAddress string
	UserAgent string
}

// Page is a normalised page request
type Page struct {
	Page  int
	Limit int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// NewPage clamps page to >= 1 and limit to 1..100 (default 20)
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
