package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cleanspin/laundry-ops/internal/models"
)

// MemoryStore keeps staff, attendance, station orders and bypass requests in
// process memory behind a single mutex. It honours the same conditional-write
// contracts as the Postgres repositories and backs DATABASE_DRIVER=memory and tests.
type MemoryStore struct {
	mu         sync.Mutex
	staff      map[uuid.UUID]models.OutletStaff
	attendance map[attendanceKey]models.AttendanceRecord
	orders     map[uuid.UUID]models.StationOrder
	bypass     map[uuid.UUID]models.BypassRequest
	openBypass map[uuid.UUID]uuid.UUID // station order id -> open request id
}

type attendanceKey struct {
	staffID uuid.UUID
	date    string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		staff:      make(map[uuid.UUID]models.OutletStaff),
		attendance: make(map[attendanceKey]models.AttendanceRecord),
		orders:     make(map[uuid.UUID]models.StationOrder),
		bypass:     make(map[uuid.UUID]models.BypassRequest),
		openBypass: make(map[uuid.UUID]uuid.UUID),
	}
}

// AddStaff seeds or replaces a staff member
func (s *MemoryStore) AddStaff(staff models.OutletStaff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[staff.ID] = staff
}

// AddStationOrder seeds or replaces a station order
func (s *MemoryStore) AddStationOrder(order models.StationOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = cloneOrder(order)
}

// ----------------------------------------------------------------------------
// Staff

func (s *MemoryStore) GetOutletStaff(_ context.Context, id uuid.UUID) (*models.OutletStaff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	staff, ok := s.staff[id]
	if !ok {
		return nil, nil
	}
	return &staff, nil
}

// ----------------------------------------------------------------------------
// Attendance

func (s *MemoryStore) GetAttendanceByDate(_ context.Context, staffID uuid.UUID, date string) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.attendance[attendanceKey{staffID, date}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) ClockIn(_ context.Context, rec *models.AttendanceRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attendanceKey{rec.OutletStaffID, rec.Date}
	if existing, ok := s.attendance[key]; ok {
		if existing.ClockInAt != nil {
			return false, nil
		}
		existing.ClockInAt = rec.ClockInAt
		existing.UpdatedAt = rec.UpdatedAt
		s.attendance[key] = existing
		return true, nil
	}
	s.attendance[key] = *rec
	return true, nil
}

func (s *MemoryStore) ClockOut(_ context.Context, staffID uuid.UUID, date string, at time.Time) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attendanceKey{staffID, date}
	rec, ok := s.attendance[key]
	if !ok || !rec.IsCheckedIn() {
		return nil, nil
	}
	if at.Before(*rec.ClockInAt) {
		at = *rec.ClockInAt
	}
	rec.ClockOutAt = &at
	rec.UpdatedAt = at
	s.attendance[key] = rec
	return &rec, nil
}

func (s *MemoryStore) ListAttendance(_ context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := []models.AttendanceRecord{}
	for key, rec := range s.attendance {
		if key.staffID != filter.OutletStaffID {
			continue
		}
		if filter.From != "" && rec.Date < filter.From {
			continue
		}
		if filter.To != "" && rec.Date > filter.To {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return page(records, filter.Limit, filter.Offset), len(records), nil
}

func (s *MemoryStore) ListOpenAttendanceBefore(_ context.Context, date string) ([]models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := []models.AttendanceRecord{}
	for _, rec := range s.attendance {
		if rec.Date < date && rec.IsCheckedIn() {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].OutletStaffID.String() < records[j].OutletStaffID.String()
	})
	return records, nil
}

// ----------------------------------------------------------------------------
// Station orders

func (s *MemoryStore) GetStationOrder(_ context.Context, id uuid.UUID) (*models.StationOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	order = cloneOrder(order)
	return &order, nil
}

func (s *MemoryStore) ClaimStationOrder(_ context.Context, id uuid.UUID, station models.StationType, staffID uuid.UUID, at time.Time) (*models.StationOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.StationType != station || order.Status != models.StationOrderPending || order.ClaimedBy != nil {
		return nil, nil
	}
	order.Status = models.StationOrderInProgress
	order.ClaimedBy = &staffID
	order.ClaimedAt = &at
	order.Version++
	order.UpdatedAt = at
	s.orders[id] = order
	order = cloneOrder(order)
	return &order, nil
}

func (s *MemoryStore) ApplyCompletion(_ context.Context, next models.StationOrder, prevVersion int, bypass *models.BypassRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[next.ID]
	if !ok || cur.Status != models.StationOrderInProgress || cur.Version != prevVersion ||
		next.ClaimedBy == nil || !cur.IsClaimedBy(*next.ClaimedBy) {
		return false, nil
	}
	if bypass != nil {
		if _, open := s.openBypass[next.ID]; open {
			return false, nil
		}
		s.bypass[bypass.ID] = cloneBypass(*bypass)
		s.openBypass[next.ID] = bypass.ID
	}
	s.orders[next.ID] = cloneOrder(next)
	return true, nil
}

func (s *MemoryStore) ApplyResolution(_ context.Context, req models.BypassRequest, next models.StationOrder, prevVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	curReq, ok := s.bypass[req.ID]
	if !ok || curReq.Status != models.BypassRequested {
		return false, nil
	}
	cur, ok := s.orders[next.ID]
	if !ok || cur.Status != models.StationOrderWaitingBypass || cur.Version != prevVersion {
		return false, nil
	}
	s.bypass[req.ID] = cloneBypass(req)
	delete(s.openBypass, next.ID)
	s.orders[next.ID] = cloneOrder(next)
	return true, nil
}

func (s *MemoryStore) ListStationOrders(_ context.Context, filter models.StationOrderFilter) ([]models.StationOrder, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []models.StationOrder{}
	for _, o := range s.orders {
		if o.StationType != filter.StationType || o.OutletID != filter.OutletID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		if filter.ClaimedBy != nil && !o.IsClaimedBy(*filter.ClaimedBy) {
			continue
		}
		orders = append(orders, cloneOrder(o))
	}
	sort.Slice(orders, func(i, j int) bool {
		if filter.NewestFirst {
			return orders[i].UpdatedAt.After(orders[j].UpdatedAt)
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return page(orders, filter.Limit, filter.Offset), len(orders), nil
}

func (s *MemoryStore) StationStats(_ context.Context, station models.StationType, outletID uuid.UUID) (*models.StationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.StationStats{StationType: station}
	for _, o := range s.orders {
		if o.StationType != station || o.OutletID != outletID {
			continue
		}
		switch o.Status {
		case models.StationOrderPending:
			stats.Incoming++
		case models.StationOrderInProgress:
			stats.InProgress++
		case models.StationOrderWaitingBypass:
			stats.WaitingBypass++
		case models.StationOrderCompleted:
			stats.Completed++
		}
	}
	return &stats, nil
}

// ----------------------------------------------------------------------------
// Bypass requests

func (s *MemoryStore) GetBypassRequest(_ context.Context, id uuid.UUID) (*models.BypassRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.bypass[id]
	if !ok {
		return nil, nil
	}
	req = cloneBypass(req)
	return &req, nil
}

func (s *MemoryStore) GetOpenBypassRequest(_ context.Context, stationOrderID uuid.UUID) (*models.BypassRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.openBypass[stationOrderID]
	if !ok {
		return nil, nil
	}
	req := cloneBypass(s.bypass[id])
	return &req, nil
}

func (s *MemoryStore) ListBypassRequests(_ context.Context, filter models.BypassRequestFilter) ([]models.BypassRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := []models.BypassRequest{}
	for _, r := range s.bypass {
		if filter.OutletID != nil && r.OutletID != *filter.OutletID {
			continue
		}
		if filter.StationType != nil && r.StationType != *filter.StationType {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		requests = append(requests, cloneBypass(r))
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].RequestedAt.Before(requests[j].RequestedAt) })
	return page(requests, filter.Limit, filter.Offset), len(requests), nil
}

func (s *MemoryStore) ListStaleBypassRequests(_ context.Context, before time.Time) ([]models.BypassRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := []models.BypassRequest{}
	for _, r := range s.bypass {
		if r.Status == models.BypassRequested && r.RequestedAt.Before(before) {
			requests = append(requests, cloneBypass(r))
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].RequestedAt.Before(requests[j].RequestedAt) })
	return requests, nil
}

func containsStatus(list models.StatusList, st models.StationOrderStatus) bool {
	for _, s := range list {
		if s == st {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneCounts(c models.ItemCounts) models.ItemCounts {
	if c == nil {
		return nil
	}
	out := make(models.ItemCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func cloneOrder(o models.StationOrder) models.StationOrder {
	o.ExpectedItemCounts = cloneCounts(o.ExpectedItemCounts)
	o.ReportedItemCounts = cloneCounts(o.ReportedItemCounts)
	return o
}

func cloneBypass(r models.BypassRequest) models.BypassRequest {
	r.Diffs = append(models.ItemDiffs(nil), r.Diffs...)
	return r
}
