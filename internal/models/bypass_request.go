package models

import (
	"time"

	"github.com/google/uuid"
)

// BypassStatus is the decision state of a bypass request
type BypassStatus string

const (
	BypassRequested BypassStatus = "REQUESTED"
	BypassApproved  BypassStatus = "APPROVED"
	BypassRejected  BypassStatus = "REJECTED"
)

// BypassAction is an admin decision on a bypass request
type BypassAction string

const (
	BypassActionApprove BypassAction = "APPROVE"
	BypassActionReject  BypassAction = "REJECT"
)

// Valid reports whether a is APPROVE or REJECT
func (a BypassAction) Valid() bool {
	return a == BypassActionApprove || a == BypassActionReject
}

// BypassRequest records a worker's reported item discrepancy awaiting an admin decision.
// Diffs are a snapshot taken at submission time and never change.
type BypassRequest struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	StationOrderID uuid.UUID    `json:"station_order_id" db:"station_order_id"`
	OutletID       uuid.UUID    `json:"outlet_id" db:"outlet_id"`
	StationType    StationType  `json:"station_type" db:"station_type"`
	Reason         string       `json:"reason" db:"reason"`
	RequestedBy    uuid.UUID    `json:"requested_by" db:"requested_by"`
	RequestedAt    time.Time    `json:"requested_at" db:"requested_at"`
	Diffs          ItemDiffs    `json:"diffs" db:"diffs"`
	Status         BypassStatus `json:"status" db:"status"`
	DecidedBy      *uuid.UUID   `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt      *time.Time   `json:"decided_at,omitempty" db:"decided_at"`
	AdminNote      *string      `json:"admin_note,omitempty" db:"admin_note"`
}

// IsOpen is true until an admin has decided the request
func (r *BypassRequest) IsOpen() bool {
	return r.Status == BypassRequested
}

// BypassRequestFilter selects requests for the admin queue.
// A nil OutletID means every outlet (super admin only).
type BypassRequestFilter struct {
	OutletID    *uuid.UUID
	StationType *StationType
	Status      *BypassStatus
	Limit       int
	Offset      int
}

// ResolveBypassResult carries both sides of a decision
type ResolveBypassResult struct {
	Request BypassRequest `json:"bypass_request"`
	Order   StationOrder  `json:"station_order"`
}

// CompletionResult is the outcome of a completion or bypass submission.
// Bypass is set only when the order moved to WAITING_BYPASS.
type CompletionResult struct {
	Order  StationOrder   `json:"station_order"`
	Bypass *BypassRequest `json:"bypass_request,omitempty"`
}
