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

// StationOrderRepository stores station orders and their bypass requests.
// Every state change is a conditional UPDATE; a zero row count means another
// writer got there first.
type StationOrderRepository struct {
	db *sqlx.DB
}

// NewStationOrderRepository creates a new StationOrderRepository
func NewStationOrderRepository(db *sqlx.DB) *StationOrderRepository {
	return &StationOrderRepository{db: db}
}

const stationOrderColumns = `
	id, order_id, outlet_id, station_type, status, claimed_by,
	expected_item_counts, reported_item_counts, claimed_at, completed_at,
	version, created_at, updated_at`

// GetStationOrder returns a station order by ID, or nil if not found
func (r *StationOrderRepository) GetStationOrder(ctx context.Context, id uuid.UUID) (*models.StationOrder, error) {
	var order models.StationOrder
	query := `SELECT ` + stationOrderColumns + ` FROM station_orders WHERE id = $1`

	err := r.db.GetContext(ctx, &order, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get station order: %w", err)
	}
	return &order, nil
}

// ClaimStationOrder moves a PENDING order to IN_PROGRESS for staffID.
// It returns nil when the order is no longer PENDING at that station.
func (r *StationOrderRepository) ClaimStationOrder(ctx context.Context, id uuid.UUID, station models.StationType, staffID uuid.UUID, at time.Time) (*models.StationOrder, error) {
	var order models.StationOrder
	query := `
		UPDATE station_orders
		SET status = 'IN_PROGRESS', claimed_by = $3, claimed_at = $4,
		    version = version + 1, updated_at = $4
		WHERE id = $1 AND station_type = $2 AND status = 'PENDING' AND claimed_by IS NULL
		RETURNING ` + stationOrderColumns

	err := r.db.GetContext(ctx, &order, query, id, station, staffID, at)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim station order: %w", err)
	}
	return &order, nil
}

// ApplyCompletion persists a completion or bypass submission computed from the
// order at prevVersion. When bypass is set it is inserted in the same transaction.
// It returns false when the order changed underneath or already has an open request.
func (r *StationOrderRepository) ApplyCompletion(ctx context.Context, next models.StationOrder, prevVersion int, bypass *models.BypassRequest) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE station_orders
		SET status = $2, reported_item_counts = $3, completed_at = $4, version = $5, updated_at = $6
		WHERE id = $1 AND status = 'IN_PROGRESS' AND claimed_by = $7 AND version = $8`,
		next.ID, next.Status, next.ReportedItemCounts, next.CompletedAt, next.Version, next.UpdatedAt,
		next.ClaimedBy, prevVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update station order: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	if bypass != nil {
		if err := insertBypassRequest(ctx, tx, bypass); err != nil {
			if isUniqueViolation(err) {
				return false, nil
			}
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit completion: %w", err)
	}
	return true, nil
}

// ApplyResolution persists an admin decision on both the request and its order.
// It returns false when the request was already decided or the order moved on.
func (r *StationOrderRepository) ApplyResolution(ctx context.Context, req models.BypassRequest, next models.StationOrder, prevVersion int) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE bypass_requests
		SET status = $2, decided_by = $3, decided_at = $4, admin_note = $5
		WHERE id = $1 AND status = 'REQUESTED'`,
		req.ID, req.Status, req.DecidedBy, req.DecidedAt, req.AdminNote)
	if err != nil {
		return false, fmt.Errorf("failed to update bypass request: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE station_orders
		SET status = $2, reported_item_counts = $3, completed_at = $4, version = $5, updated_at = $6
		WHERE id = $1 AND status = 'WAITING_BYPASS' AND version = $7`,
		next.ID, next.Status, next.ReportedItemCounts, next.CompletedAt, next.Version, next.UpdatedAt, prevVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update station order: %w", err)
	}
	rows, _ = result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit resolution: %w", err)
	}
	return true, nil
}

// ListStationOrders returns a page of station orders matching filter and the total count
func (r *StationOrderRepository) ListStationOrders(ctx context.Context, filter models.StationOrderFilter) ([]models.StationOrder, int, error) {
	conditions := []string{"station_type = $1", "outlet_id = $2"}
	args := []interface{}{filter.StationType, filter.OutletID}
	argCount := 3

	if len(filter.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argCount))
		args = append(args, filter.Statuses)
		argCount++
	}
	if filter.ClaimedBy != nil {
		conditions = append(conditions, fmt.Sprintf("claimed_by = $%d", argCount))
		args = append(args, *filter.ClaimedBy)
		argCount++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM station_orders WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count station orders: %w", err)
	}

	order := "created_at ASC"
	if filter.NewestFirst {
		order = "updated_at DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM station_orders WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		stationOrderColumns, where, order, argCount, argCount+1)
	args = append(args, filter.Limit, filter.Offset)

	orders := []models.StationOrder{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list station orders: %w", err)
	}
	return orders, total, nil
}

// StationStats counts the orders of one station in one outlet by status
func (r *StationOrderRepository) StationStats(ctx context.Context, station models.StationType, outletID uuid.UUID) (*models.StationStats, error) {
	stats := models.StationStats{StationType: station}
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'PENDING')        AS incoming,
			COUNT(*) FILTER (WHERE status = 'IN_PROGRESS')    AS in_progress,
			COUNT(*) FILTER (WHERE status = 'WAITING_BYPASS') AS waiting_bypass,
			COUNT(*) FILTER (WHERE status = 'COMPLETED')      AS completed
		FROM station_orders
		WHERE station_type = $1 AND outlet_id = $2`

	if err := r.db.GetContext(ctx, &stats, query, station, outletID); err != nil {
		return nil, fmt.Errorf("failed to get station stats: %w", err)
	}
	return &stats, nil
}
