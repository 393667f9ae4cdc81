package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/workflow"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// StationService drives the station order lifecycle: claim, completion,
// bypass submission and admin resolution, plus the dashboard queries.
type StationService struct {
	store      StationStore
	staff      StaffDirectory
	attendance AttendanceStore
	clock      workflow.Clock
	audit      *AuditService
	logger     *logrus.Logger
}

// NewStationService creates a new StationService
func NewStationService(
	store StationStore,
	staff StaffDirectory,
	attendance AttendanceStore,
	clock workflow.Clock,
	audit *AuditService,
	logger *logrus.Logger,
) *StationService {
	return &StationService{
		store:      store,
		staff:      staff,
		attendance: attendance,
		clock:      clock,
		audit:      audit,
		logger:     logger,
	}
}

// ============================================================================
// TRANSITIONS
// ============================================================================

// Claim takes a PENDING order for the calling worker. Of several concurrent
// claims exactly one succeeds; the others get AlreadyClaimed.
func (s *StationService) Claim(ctx context.Context, actor Actor, station models.StationType, orderID uuid.UUID) (*models.StationOrder, error) {
	const op = "claim"
	ref := orderID.String()

	staff, err := s.loadStaff(ctx, op, actor)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	today, err := s.attendance.GetAttendanceByDate(ctx, staff.ID, s.clock.Today())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, ref, err)
	}
	if err := workflow.CheckClaim(order, station, staff, today); err != nil {
		return nil, err
	}

	claimed, err := s.store.ClaimStationOrder(ctx, orderID, station, staff.ID, s.clock.Now())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, ref, err)
	}
	if claimed == nil {
		s.logger.WithFields(logrus.Fields{
			"station_order_id": orderID,
			"outlet_staff_id":  staff.ID,
		}).Info("Station order claim lost")
		s.audit.Record(ctx, actor, AuditClaimLost, "station_order", orderID, map[string]interface{}{"station": station})
		return nil, apperr.New(apperr.AlreadyClaimed, op, ref, "")
	}

	s.logger.WithFields(logrus.Fields{
		"station_order_id": orderID,
		"station":          station,
		"outlet_staff_id":  staff.ID,
	}).Info("Station order claimed")
	s.audit.Record(ctx, actor, AuditClaim, "station_order", orderID, map[string]interface{}{"station": station})

	return claimed, nil
}

// Complete submits the claimant's item counts. A mismatch parks the order in
// WAITING_BYPASS with a bypass request for an admin.
func (s *StationService) Complete(ctx context.Context, actor Actor, station models.StationType, orderID uuid.UUID, reported models.ItemCounts) (*models.CompletionResult, error) {
	const op = "complete"

	staffID, err := staffIDOf(op, actor)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	next, bypass, err := workflow.Complete(*order, station, staffID, reported, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.applyCompletion(ctx, op, *order, next, bypass, func(cur models.StationOrder) error {
		_, _, err := workflow.Complete(cur, station, staffID, reported, s.clock.Now())
		return err
	}); err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"station_order_id": orderID,
		"station":          station,
		"outlet_staff_id":  staffID,
		"status":           next.Status,
	}
	details := map[string]interface{}{"station": station, "status": next.Status}
	if bypass != nil {
		fields["bypass_request_id"] = bypass.ID
		fields["diff_count"] = len(bypass.Diffs)
		details["bypass_request_id"] = bypass.ID.String()
		details["diffs"] = bypass.Diffs
	}
	s.logger.WithFields(fields).Info("Station order completion submitted")
	s.audit.Record(ctx, actor, AuditComplete, "station_order", orderID, details)

	return &models.CompletionResult{Order: next, Bypass: bypass}, nil
}

// RequestBypass is the claimant's explicit discrepancy report with a reason
func (s *StationService) RequestBypass(ctx context.Context, actor Actor, station models.StationType, orderID uuid.UUID, reason string, reported models.ItemCounts) (*models.CompletionResult, error) {
	const op = "bypass"

	staffID, err := staffIDOf(op, actor)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	next, bypass, err := workflow.RequestBypass(*order, station, staffID, reason, reported, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.applyCompletion(ctx, op, *order, next, bypass, func(cur models.StationOrder) error {
		_, _, err := workflow.RequestBypass(cur, station, staffID, reason, reported, s.clock.Now())
		return err
	}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"station_order_id":  orderID,
		"bypass_request_id": bypass.ID,
		"outlet_staff_id":   staffID,
	}).Info("Bypass requested")
	s.audit.Record(ctx, actor, AuditBypassRequest, "station_order", orderID, map[string]interface{}{
		"station":           station,
		"bypass_request_id": bypass.ID.String(),
		"reason":            bypass.Reason,
		"diffs":             bypass.Diffs,
	})

	return &models.CompletionResult{Order: next, Bypass: bypass}, nil
}

// applyCompletion writes next conditionally on prev's version. When the write
// loses a race, recheck re-validates the transition against the current row so
// the caller gets the precise reason.
func (s *StationService) applyCompletion(ctx context.Context, op string, prev, next models.StationOrder, bypass *models.BypassRequest, recheck func(models.StationOrder) error) error {
	ref := prev.ID.String()
	applied, err := s.store.ApplyCompletion(ctx, next, prev.Version, bypass)
	if err != nil {
		return apperr.Wrap(apperr.Internal, op, ref, err)
	}
	if applied {
		return nil
	}

	cur, err := s.loadOrder(ctx, op, prev.ID)
	if err != nil {
		return err
	}
	if err := recheck(*cur); err != nil {
		return err
	}
	return apperr.New(apperr.InvalidTransition, op, ref, "Order changed while saving, refresh and try again")
}

// ResolveBypass records an admin decision. Outlet admins may only decide
// requests of their own outlet.
func (s *StationService) ResolveBypass(ctx context.Context, actor Actor, requestID uuid.UUID, action models.BypassAction, note *string) (*models.ResolveBypassResult, error) {
	const op = "resolve_bypass"
	ref := requestID.String()

	if !actor.Role.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, op, ref, "Only admins can resolve bypass requests")
	}
	req, err := s.loadBypass(ctx, op, requestID)
	if err != nil {
		return nil, err
	}
	if err := checkOutlet(op, ref, actor, req.OutletID); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, op, req.StationOrderID)
	if err != nil {
		return nil, err
	}

	decided, next, err := workflow.Resolve(*req, *order, actor.UserID, action, note, s.clock.Now())
	if err != nil {
		return nil, err
	}

	applied, err := s.store.ApplyResolution(ctx, decided, next, order.Version)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, ref, err)
	}
	if !applied {
		cur, err := s.loadBypass(ctx, op, requestID)
		if err != nil {
			return nil, err
		}
		if !cur.IsOpen() {
			return nil, apperr.New(apperr.AlreadyResolved, op, ref, "")
		}
		return nil, apperr.New(apperr.InvalidTransition, op, ref, "Order changed while saving, refresh and try again")
	}

	s.logger.WithFields(logrus.Fields{
		"bypass_request_id": requestID,
		"station_order_id":  order.ID,
		"action":            action,
		"admin_user_id":     actor.UserID,
	}).Info("Bypass request resolved")
	s.audit.Record(ctx, actor, AuditBypassResolve, "bypass_request", requestID, map[string]interface{}{
		"action":           action,
		"station_order_id": order.ID.String(),
		"order_status":     next.Status,
	})

	return &models.ResolveBypassResult{Request: decided, Order: next}, nil
}

// ============================================================================
// QUERIES
// ============================================================================

// ListStationOrders returns one of the station dashboard lists.
// incoming is the outlet's unclaimed queue, my is the caller's open work, and
// completed is the outlet's finished orders at this station.
func (s *StationService) ListStationOrders(ctx context.Context, actor Actor, station models.StationType, scope models.OrderScope, outletID *uuid.UUID, page Page) ([]models.StationOrder, int, error) {
	const op = "list_station_orders"

	if !scope.Valid() {
		return nil, 0, apperr.New(apperr.Validation, op, string(scope), "scope must be incoming, my or completed")
	}
	outlet, err := resolveOutlet(op, actor, outletID)
	if err != nil {
		return nil, 0, err
	}

	filter := models.StationOrderFilter{
		StationType: station,
		OutletID:    outlet,
		Limit:       page.Limit,
		Offset:      page.Offset(),
	}
	switch scope {
	case models.ScopeIncoming:
		filter.Statuses = models.StatusList{models.StationOrderPending}
	case models.ScopeMy:
		staffID, err := staffIDOf(op, actor)
		if err != nil {
			return nil, 0, err
		}
		filter.Statuses = models.StatusList{models.StationOrderInProgress, models.StationOrderWaitingBypass}
		filter.ClaimedBy = &staffID
		filter.NewestFirst = true
	case models.ScopeCompleted:
		filter.Statuses = models.StatusList{models.StationOrderCompleted}
		filter.NewestFirst = true
	}

	orders, total, err := s.store.ListStationOrders(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, op, string(station), err)
	}
	return orders, total, nil
}

// StationStats returns the dashboard counters of a station
func (s *StationService) StationStats(ctx context.Context, actor Actor, station models.StationType, outletID *uuid.UUID) (*models.StationStats, error) {
	const op = "station_stats"
	outlet, err := resolveOutlet(op, actor, outletID)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.StationStats(ctx, station, outlet)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, string(station), err)
	}
	return stats, nil
}

// GetStationOrder returns an order with its open bypass request
func (s *StationService) GetStationOrder(ctx context.Context, actor Actor, station models.StationType, orderID uuid.UUID) (*models.StationOrderDetail, error) {
	const op = "get_station_order"
	ref := orderID.String()

	order, err := s.loadOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	if order.StationType != station {
		return nil, apperr.New(apperr.NotFound, op, ref, "Order is not queued at this station")
	}
	if err := checkOutlet(op, ref, actor, order.OutletID); err != nil {
		return nil, err
	}

	detail := &models.StationOrderDetail{StationOrder: *order}
	if order.Status == models.StationOrderWaitingBypass {
		open, err := s.store.GetOpenBypassRequest(ctx, order.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, op, ref, err)
		}
		detail.OpenBypass = open
	}
	return detail, nil
}

// ListBypassRequests returns the admin queue. Outlet admins only see their outlet.
func (s *StationService) ListBypassRequests(ctx context.Context, actor Actor, filter models.BypassRequestFilter, page Page) ([]models.BypassRequest, int, error) {
	const op = "list_bypass_requests"

	if !actor.Role.IsAdmin() {
		return nil, 0, apperr.New(apperr.Forbidden, op, "", "Only admins can view bypass requests")
	}
	if actor.Role == models.RoleOutletAdmin {
		if actor.OutletID == nil {
			return nil, 0, apperr.New(apperr.Forbidden, op, "", "Outlet admin has no outlet")
		}
		if filter.OutletID != nil && *filter.OutletID != *actor.OutletID {
			return nil, 0, apperr.New(apperr.Forbidden, op, filter.OutletID.String(), "Bypass requests of another outlet")
		}
		filter.OutletID = actor.OutletID
	}
	filter.Limit = page.Limit
	filter.Offset = page.Offset()

	requests, total, err := s.store.ListBypassRequests(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, op, "", err)
	}
	return requests, total, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *StationService) loadStaff(ctx context.Context, op string, actor Actor) (*models.OutletStaff, error) {
	staffID, err := staffIDOf(op, actor)
	if err != nil {
		return nil, err
	}
	staff, err := s.staff.GetOutletStaff(ctx, staffID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, staffID.String(), err)
	}
	if staff == nil || !staff.IsActive {
		return nil, apperr.New(apperr.Forbidden, op, staffID.String(), "Staff record is missing or inactive")
	}
	return staff, nil
}

func (s *StationService) loadOrder(ctx context.Context, op string, id uuid.UUID) (*models.StationOrder, error) {
	order, err := s.store.GetStationOrder(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, id.String(), err)
	}
	if order == nil {
		return nil, apperr.New(apperr.NotFound, op, id.String(), "Station order not found")
	}
	return order, nil
}

func (s *StationService) loadBypass(ctx context.Context, op string, id uuid.UUID) (*models.BypassRequest, error) {
	req, err := s.store.GetBypassRequest(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, id.String(), err)
	}
	if req == nil {
		return nil, apperr.New(apperr.NotFound, op, id.String(), "Bypass request not found")
	}
	return req, nil
}

func staffIDOf(op string, actor Actor) (uuid.UUID, error) {
	if actor.StaffID == nil {
		return uuid.Nil, apperr.New(apperr.Forbidden, op, actor.UserID.String(), "Only outlet staff can work station orders")
	}
	return *actor.StaffID, nil
}

// checkOutlet lets super admins through and everyone else only into their own outlet
func checkOutlet(op, ref string, actor Actor, outletID uuid.UUID) error {
	if actor.Role == models.RoleSuperAdmin {
		return nil
	}
	if actor.OutletID == nil || *actor.OutletID != outletID {
		return apperr.New(apperr.Forbidden, op, ref, "This belongs to another outlet")
	}
	return nil
}

// resolveOutlet picks the outlet a query runs against. Staff are pinned to
// their own outlet; super admins must name one.
func resolveOutlet(op string, actor Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if actor.Role == models.RoleSuperAdmin {
		if requested != nil {
			return *requested, nil
		}
		if actor.OutletID != nil {
			return *actor.OutletID, nil
		}
		return uuid.Nil, apperr.New(apperr.Validation, op, "", "outlet_id is required")
	}
	if actor.OutletID == nil {
		return uuid.Nil, apperr.New(apperr.Forbidden, op, "", "Caller is not assigned to an outlet")
	}
	if requested != nil && *requested != *actor.OutletID {
		return uuid.Nil, apperr.New(apperr.Forbidden, op, requested.String(), "This belongs to another outlet")
	}
	return *actor.OutletID, nil
}
