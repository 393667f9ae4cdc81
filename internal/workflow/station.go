package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// DiscrepancyReason is recorded on bypass requests raised by a plain completion
const DiscrepancyReason = "Reported item counts differ from expected counts"

// DiffItemCounts compares both maps over the union of their keys, treating an
// absent item as zero. The result is sorted by item id and empty when they agree.
func DiffItemCounts(expected, reported models.ItemCounts) models.ItemDiffs {
	var diffs models.ItemDiffs
	for _, id := range expected.Keys(reported) {
		exp, rep := expected.Get(id), reported.Get(id)
		if exp != rep {
			diffs = append(diffs, models.ItemDiff{ItemID: id, ExpectedQty: exp, ReportedQty: rep})
		}
	}
	return diffs
}

// CheckClaim validates everything about a claim except the status race,
// which the store decides atomically.
func CheckClaim(order *models.StationOrder, station models.StationType, staff *models.OutletStaff, attendance *models.AttendanceRecord) error {
	ref := order.ID.String()
	if order.StationType != station {
		return apperr.New(apperr.NotFound, "claim", ref, "Order is not queued at this station")
	}
	if staff.OutletID != order.OutletID {
		return apperr.New(apperr.Forbidden, "claim", ref, "Order belongs to another outlet")
	}
	if !staff.WorksAt(station) {
		return apperr.New(apperr.Forbidden, "claim", ref, "Only workers of this station can claim its orders")
	}
	if !attendance.IsCheckedIn() {
		return apperr.New(apperr.AttendanceRequired, "claim", ref, "")
	}
	return nil
}

// Claim moves a PENDING order to IN_PROGRESS held by staff
func Claim(order models.StationOrder, station models.StationType, staff *models.OutletStaff, attendance *models.AttendanceRecord, now time.Time) (models.StationOrder, error) {
	if err := CheckClaim(&order, station, staff, attendance); err != nil {
		return order, err
	}
	if order.Status != models.StationOrderPending {
		return order, apperr.New(apperr.AlreadyClaimed, "claim", order.ID.String(), "")
	}

	staffID := staff.ID
	order.Status = models.StationOrderInProgress
	order.ClaimedBy = &staffID
	order.ClaimedAt = &now
	return bump(order, now), nil
}

// checkHolder validates that staffID holds an IN_PROGRESS claim on order
func checkHolder(op string, order *models.StationOrder, station models.StationType, staffID uuid.UUID) error {
	ref := order.ID.String()
	if order.StationType != station {
		return apperr.New(apperr.NotFound, op, ref, "Order is not queued at this station")
	}
	if order.Status != models.StationOrderPending && !order.IsClaimedBy(staffID) {
		return apperr.New(apperr.NotClaimant, op, ref, "")
	}
	if order.Status != models.StationOrderInProgress {
		return apperr.New(apperr.InvalidTransition, op, ref, "")
	}
	return nil
}

// Complete records the reported counts. Matching counts complete the order;
// any mismatch moves it to WAITING_BYPASS and returns the bypass request to persist.
// The claim is kept in both cases.
func Complete(order models.StationOrder, station models.StationType, staffID uuid.UUID, reported models.ItemCounts, now time.Time) (models.StationOrder, *models.BypassRequest, error) {
	if err := checkHolder("complete", &order, station, staffID); err != nil {
		return order, nil, err
	}
	if err := reported.Validate(); err != nil {
		return order, nil, apperr.Wrap(apperr.Validation, "complete", order.ID.String(), err)
	}

	diffs := DiffItemCounts(order.ExpectedItemCounts, reported)
	order.ReportedItemCounts = reported
	if len(diffs) == 0 {
		order.Status = models.StationOrderCompleted
		order.CompletedAt = &now
		return bump(order, now), nil, nil
	}

	order.Status = models.StationOrderWaitingBypass
	req := newBypassRequest(&order, staffID, DiscrepancyReason, diffs, now)
	return bump(order, now), req, nil
}

// RequestBypass is an explicit worker submission with a reason. It is only
// accepted when the reported counts actually disagree with the expected ones.
func RequestBypass(order models.StationOrder, station models.StationType, staffID uuid.UUID, reason string, reported models.ItemCounts, now time.Time) (models.StationOrder, *models.BypassRequest, error) {
	if err := checkHolder("bypass", &order, station, staffID); err != nil {
		return order, nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return order, nil, apperr.New(apperr.Validation, "bypass", order.ID.String(), "Reason is required")
	}
	if err := reported.Validate(); err != nil {
		return order, nil, apperr.Wrap(apperr.Validation, "bypass", order.ID.String(), err)
	}

	diffs := DiffItemCounts(order.ExpectedItemCounts, reported)
	if len(diffs) == 0 {
		return order, nil, apperr.New(apperr.NoDiscrepancy, "bypass", order.ID.String(), "")
	}

	order.ReportedItemCounts = reported
	order.Status = models.StationOrderWaitingBypass
	req := newBypassRequest(&order, staffID, reason, diffs, now)
	return bump(order, now), req, nil
}

// Resolve applies an admin decision. Approve makes the reported counts
// authoritative and completes the order; reject hands it back to the same
// claimant for a recount.
func Resolve(req models.BypassRequest, order models.StationOrder, adminID uuid.UUID, action models.BypassAction, note *string, now time.Time) (models.BypassRequest, models.StationOrder, error) {
	ref := req.ID.String()
	if !req.IsOpen() {
		return req, order, apperr.New(apperr.AlreadyResolved, "resolve_bypass", ref, "")
	}
	if !action.Valid() {
		return req, order, apperr.New(apperr.Validation, "resolve_bypass", ref, "Action must be APPROVE or REJECT")
	}
	if order.ID != req.StationOrderID || order.Status != models.StationOrderWaitingBypass {
		return req, order, apperr.New(apperr.InvalidTransition, "resolve_bypass", ref, "")
	}

	switch action {
	case models.BypassActionApprove:
		req.Status = models.BypassApproved
		order.Status = models.StationOrderCompleted
		order.CompletedAt = &now
	case models.BypassActionReject:
		req.Status = models.BypassRejected
		order.Status = models.StationOrderInProgress
		order.ReportedItemCounts = nil
	}
	req.DecidedBy = &adminID
	req.DecidedAt = &now
	req.AdminNote = note
	return req, bump(order, now), nil
}

func newBypassRequest(order *models.StationOrder, staffID uuid.UUID, reason string, diffs models.ItemDiffs, now time.Time) *models.BypassRequest {
	return &models.BypassRequest{
		ID:             uuid.New(),
		StationOrderID: order.ID,
		OutletID:       order.OutletID,
		StationType:    order.StationType,
		Reason:         reason,
		RequestedBy:    staffID,
		RequestedAt:    now,
		Diffs:          diffs,
		Status:         models.BypassRequested,
	}
}

func bump(order models.StationOrder, now time.Time) models.StationOrder {
	order.Version++
	order.UpdatedAt = now
	return order
}
