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

const bypassRequestColumns = `
	id, station_order_id, outlet_id, station_type, reason, requested_by, requested_at,
	diffs, status, decided_by, decided_at, admin_note`

func insertBypassRequest(ctx context.Context, tx *sqlx.Tx, req *models.BypassRequest) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bypass_requests (
			id, station_order_id, outlet_id, station_type, reason, requested_by, requested_at, diffs, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.StationOrderID, req.OutletID, req.StationType, req.Reason,
		req.RequestedBy, req.RequestedAt, req.Diffs, req.Status)
	if err != nil {
		return fmt.Errorf("failed to insert bypass request: %w", err)
	}
	return nil
}

// GetBypassRequest returns a bypass request by ID, or nil if not found
func (r *StationOrderRepository) GetBypassRequest(ctx context.Context, id uuid.UUID) (*models.BypassRequest, error) {
	var req models.BypassRequest
	query := `SELECT ` + bypassRequestColumns + ` FROM bypass_requests WHERE id = $1`

	err := r.db.GetContext(ctx, &req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bypass request: %w", err)
	}
	return &req, nil
}

// GetOpenBypassRequest returns the undecided request of a station order, or nil
func (r *StationOrderRepository) GetOpenBypassRequest(ctx context.Context, stationOrderID uuid.UUID) (*models.BypassRequest, error) {
	var req models.BypassRequest
	query := `SELECT ` + bypassRequestColumns + `
		FROM bypass_requests
		WHERE station_order_id = $1 AND status = 'REQUESTED'`

	err := r.db.GetContext(ctx, &req, query, stationOrderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open bypass request: %w", err)
	}
	return &req, nil
}

// ListBypassRequests returns a page of the admin queue, oldest first, and the total count
func (r *StationOrderRepository) ListBypassRequests(ctx context.Context, filter models.BypassRequestFilter) ([]models.BypassRequest, int, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argCount := 1

	if filter.OutletID != nil {
		conditions = append(conditions, fmt.Sprintf("outlet_id = $%d", argCount))
		args = append(args, *filter.OutletID)
		argCount++
	}
	if filter.StationType != nil {
		conditions = append(conditions, fmt.Sprintf("station_type = $%d", argCount))
		args = append(args, *filter.StationType)
		argCount++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filter.Status)
		argCount++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bypass_requests WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bypass requests: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bypass_requests WHERE %s ORDER BY requested_at ASC LIMIT $%d OFFSET $%d`,
		bypassRequestColumns, where, argCount, argCount+1)
	args = append(args, filter.Limit, filter.Offset)

	requests := []models.BypassRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bypass requests: %w", err)
	}
	return requests, total, nil
}

// ListStaleBypassRequests returns undecided requests submitted before the cutoff
func (r *StationOrderRepository) ListStaleBypassRequests(ctx context.Context, before time.Time) ([]models.BypassRequest, error) {
	query := `SELECT ` + bypassRequestColumns + `
		FROM bypass_requests
		WHERE status = 'REQUESTED' AND requested_at < $1
		ORDER BY requested_at ASC`

	requests := []models.BypassRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, before); err != nil {
		return nil, fmt.Errorf("failed to list stale bypass requests: %w", err)
	}
	return requests, nil
}
