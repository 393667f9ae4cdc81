package models

import (
	"time"

	"github.com/google/uuid"
)

// OutletStaff is an employee assigned to one outlet.
// Workers are bound to a single station type; drivers have none.
type OutletStaff struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	UserID      uuid.UUID    `json:"user_id" db:"user_id"`
	OutletID    uuid.UUID    `json:"outlet_id" db:"outlet_id"`
	Role        Role         `json:"role" db:"role"`
	StationType *StationType `json:"station_type,omitempty" db:"station_type"`
	FullName    string       `json:"full_name" db:"full_name"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// WorksAt reports whether the staff member is an active worker of the given station
func (s *OutletStaff) WorksAt(station StationType) bool {
	return s.IsActive && s.Role == RoleWorker && s.StationType != nil && *s.StationType == station
}
