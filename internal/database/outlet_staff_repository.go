package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cleanspin/laundry-ops/internal/models"
)

// OutletStaffRepository reads outlet employees. Employee management lives elsewhere.
type OutletStaffRepository struct {
	db *sqlx.DB
}

// NewOutletStaffRepository creates a new OutletStaffRepository
func NewOutletStaffRepository(db *sqlx.DB) *OutletStaffRepository {
	return &OutletStaffRepository{db: db}
}

// GetOutletStaff returns a staff member by ID, or nil if not found
func (r *OutletStaffRepository) GetOutletStaff(ctx context.Context, id uuid.UUID) (*models.OutletStaff, error) {
	var staff models.OutletStaff
	query := `
		SELECT id, user_id, outlet_id, role, station_type, full_name, is_active, created_at, updated_at
		FROM outlet_staff
		WHERE id = $1`

	err := r.db.GetContext(ctx, &staff, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get outlet staff: %w", err)
	}
	return &staff, nil
}
