package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// StationType identifies a processing station inside an outlet
type StationType string

const (
	StationWashing StationType = "WASHING"
	StationIroning StationType = "IRONING"
	StationPacking StationType = "PACKING"
)

// StationTypes lists every station in processing order
var StationTypes = []StationType{StationWashing, StationIroning, StationPacking}

// ParseStationType accepts both upper and lower case station names
func ParseStationType(s string) (StationType, bool) {
	switch StationType(strings.ToUpper(s)) {
	case StationWashing:
		return StationWashing, true
	case StationIroning:
		return StationIroning, true
	case StationPacking:
		return StationPacking, true
	}
	return "", false
}

// StationOrderStatus is the state of an order at one station
type StationOrderStatus string

const (
	StationOrderPending       StationOrderStatus = "PENDING"
	StationOrderInProgress    StationOrderStatus = "IN_PROGRESS"
	StationOrderWaitingBypass StationOrderStatus = "WAITING_BYPASS"
	StationOrderCompleted     StationOrderStatus = "COMPLETED"
)

// StatusList is a set of statuses bound as a TEXT[] parameter
type StatusList []StationOrderStatus

// Value implements the driver.Valuer interface
func (l StatusList) Value() (driver.Value, error) {
	s := make([]string, len(l))
	for i, st := range l {
		s[i] = string(st)
	}
	return pq.Array(s).Value()
}

// StationOrder pairs an order with a station; it is the unit of work a worker claims
type StationOrder struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	OrderID            uuid.UUID          `json:"order_id" db:"order_id"`
	OutletID           uuid.UUID          `json:"outlet_id" db:"outlet_id"`
	StationType        StationType        `json:"station_type" db:"station_type"`
	Status             StationOrderStatus `json:"status" db:"status"`
	ClaimedBy          *uuid.UUID         `json:"claimed_by,omitempty" db:"claimed_by"`
	ExpectedItemCounts ItemCounts         `json:"expected_item_counts" db:"expected_item_counts"`
	ReportedItemCounts ItemCounts         `json:"reported_item_counts,omitempty" db:"reported_item_counts"`
	ClaimedAt          *time.Time         `json:"claimed_at,omitempty" db:"claimed_at"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty" db:"completed_at"`
	Version            int                `json:"version" db:"version"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// IsClaimedBy reports whether staffID currently holds the claim
func (o *StationOrder) IsClaimedBy(staffID uuid.UUID) bool {
	return o.ClaimedBy != nil && *o.ClaimedBy == staffID
}

// StationOrderDetail is an order together with its open bypass request, if any
type StationOrderDetail struct {
	StationOrder
	OpenBypass *BypassRequest `json:"open_bypass,omitempty"`
}

// OrderScope selects one of the station dashboard lists
type OrderScope string

const (
	ScopeIncoming  OrderScope = "incoming"
	ScopeMy        OrderScope = "my"
	ScopeCompleted OrderScope = "completed"
)

// Valid reports whether s is a known scope
func (s OrderScope) Valid() bool {
	return s == ScopeIncoming || s == ScopeMy || s == ScopeCompleted
}

// StationOrderFilter selects station orders for a dashboard list
type StationOrderFilter struct {
	StationType StationType
	OutletID    uuid.UUID
	Statuses    StatusList
	ClaimedBy   *uuid.UUID
	NewestFirst bool
	Limit       int
	Offset      int
}

// StationStats are the counters shown on a station dashboard
type StationStats struct {
	StationType   StationType `json:"station_type"`
	Incoming      int         `json:"incoming" db:"incoming"`
	InProgress    int         `json:"in_progress" db:"in_progress"`
	WaitingBypass int         `json:"waiting_bypass" db:"waiting_bypass"`
	Completed     int         `json:"completed" db:"completed"`
}
