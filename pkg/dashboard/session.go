// Package dashboard is the client-side session behind one station or admin
// screen. It registers the screen's queries in a tag-scoped cache, issues
// mutations through the API client and refetches exactly the scopes each
// mutation made stale.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/guard"
	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
	"github.com/cleanspin/laundry-ops/pkg/fetch"
	"github.com/cleanspin/laundry-ops/pkg/laundryapi"
	"github.com/cleanspin/laundry-ops/pkg/querycache"
)

// ErrInFlight is returned when a mutation is issued for an order that already
// has one in progress from this session
var ErrInFlight = errors.New("dashboard: an action on this order is already in progress")

// API is the part of the laundry API a dashboard uses; *laundryapi.Client implements it
type API interface {
	Today(ctx context.Context) (*models.AttendanceView, error)
	ClockIn(ctx context.Context) (*models.AttendanceView, error)
	ClockOut(ctx context.Context) (*models.AttendanceView, error)
	ListStationOrders(ctx context.Context, station models.StationType, query laundryapi.OrderListQuery) (*laundryapi.Page[models.StationOrder], error)
	StationStats(ctx context.Context, station models.StationType, outletID *uuid.UUID) (*models.StationStats, error)
	GetStationOrder(ctx context.Context, station models.StationType, id uuid.UUID) (*models.StationOrderDetail, error)
	Claim(ctx context.Context, station models.StationType, id uuid.UUID) (*models.StationOrder, error)
	Complete(ctx context.Context, station models.StationType, id uuid.UUID, counts models.ItemCounts) (*models.CompletionResult, error)
	RequestBypass(ctx context.Context, station models.StationType, id uuid.UUID, reason string, counts models.ItemCounts) (*models.CompletionResult, error)
	ListBypassRequests(ctx context.Context, query laundryapi.BypassListQuery) (*laundryapi.Page[models.BypassRequest], error)
	ResolveBypass(ctx context.Context, id uuid.UUID, action models.BypassAction, note *string) (*models.ResolveBypassResult, error)
}

// Identity is who the session acts for
type Identity struct {
	Role     models.Role
	StaffID  *uuid.UUID
	OutletID *uuid.UUID
}

// Session owns the cached queries of one screen
type Session struct {
	api    API
	id     Identity
	cache  *querycache.Cache
	router querycache.Router
	logger *logrus.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewSession creates a session with an empty cache
func NewSession(api API, id Identity, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{
		api:      api,
		id:       id,
		cache:    querycache.NewCache(logger),
		logger:   logger,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// StatsKey is the query key of a station's counters
func StatsKey(station models.StationType) string {
	return "stats:" + string(station)
}

func OrdersKey(station models.StationType, scope models.OrderScope) string {
	return "orders:" + string(station) + ":" + string(scope)
}

func OrderKey(id uuid.UUID) string {
	return "order:" + id.String()
}

const (
	BypassQueueKey = "bypass-queue"
	AttendanceKey  = "attendance-today"
)

// WatchStation registers the stats and order lists of a station screen.
// The "my" list is only registered for sessions that belong to a staff member.
func (s *Session) WatchStation(station models.StationType, page laundryapi.PageQuery) []string {
	outletID := s.id.OutletID
	s.cache.Register(StatsKey(station), func(ctx context.Context) (interface{}, error) {
		return s.api.StationStats(ctx, station, outletID)
	}, querycache.StatsTag(station))

	lists := map[models.OrderScope]querycache.Tag{
		models.ScopeIncoming:  querycache.IncomingTag(station),
		models.ScopeCompleted: querycache.CompletedTag(station),
	}
	if s.id.StaffID != nil {
		lists[models.ScopeMy] = querycache.MyTag(station, *s.id.StaffID)
	}

	keys := []string{StatsKey(station)}
	for scope, tag := range lists {
		query := laundryapi.OrderListQuery{Scope: scope, OutletID: outletID, PageQuery: page}
		s.cache.Register(OrdersKey(station, scope), func(ctx context.Context) (interface{}, error) {
			return s.api.ListStationOrders(ctx, station, query)
		}, tag)
		keys = append(keys, OrdersKey(station, scope))
	}
	return keys
}

// WatchOrder registers the detail view of one station order
func (s *Session) WatchOrder(station models.StationType, id uuid.UUID) string {
	s.cache.Register(OrderKey(id), func(ctx context.Context) (interface{}, error) {
		return s.api.GetStationOrder(ctx, station, id)
	}, querycache.OrderTag(id))
	return OrderKey(id)
}

// WatchBypassQueue registers the admin queue of bypass requests
func (s *Session) WatchBypassQueue(query laundryapi.BypassListQuery) string {
	s.cache.Register(BypassQueueKey, func(ctx context.Context) (interface{}, error) {
		return s.api.ListBypassRequests(ctx, query)
	}, querycache.BypassQueueTag)
	return BypassQueueKey
}

// WatchAttendance registers today's attendance of the session's staff member.
// Access reads it to gate check-in-only screens.
func (s *Session) WatchAttendance() string {
	s.cache.Register(AttendanceKey, func(ctx context.Context) (interface{}, error) {
		return s.api.Today(ctx)
	}, querycache.AttendanceTag)
	return AttendanceKey
}

// Access decides whether the screen at pathname may render. It is evaluated
// against the current attendance query, so calling it again after the
// attendance or pathname changes yields the up-to-date decision. Until the
// attendance query has a result, gated screens Hold.
func (s *Session) Access(pathname string, allowed []models.Role, requireCheckIn bool, checkInPath string) guard.Decision {
	in := guard.Input{
		HasSession:     s.id.Role != "",
		AllowedRoles:   allowed,
		Pathname:       pathname,
		RequireCheckIn: requireCheckIn,
		RedirectTarget: guard.CheckInTarget(checkInPath, pathname),
	}
	if in.HasSession {
		role := s.id.Role
		in.Role = &role
	}

	st, _ := s.cache.State(AttendanceKey)
	in.IsLoadingAttendance = st.Loading || (!st.HasData && st.Err == nil)
	if view, ok := st.Data.(*models.AttendanceView); ok && view != nil {
		in.Attendance = view.Record
	}
	return guard.Decide(in)
}

// ClockIn starts the staff member's day and refreshes the attendance query
func (s *Session) ClockIn(ctx context.Context) (*models.AttendanceView, error) {
	view, err := s.api.ClockIn(ctx)
	s.refreshAttendance(ctx, err)
	return view, err
}

// ClockOut ends the staff member's day and refreshes the attendance query
func (s *Session) ClockOut(ctx context.Context) (*models.AttendanceView, error) {
	view, err := s.api.ClockOut(ctx)
	s.refreshAttendance(ctx, err)
	return view, err
}

// refreshAttendance refetches attendance after a clock mutation. A rejected
// mutation (already checked in, day completed) also means the cached record
// was out of date; only a transient failure leaves it untouched.
func (s *Session) refreshAttendance(ctx context.Context, err error) {
	if err != nil && apperr.KindOf(err) == apperr.Transient {
		return
	}
	if _, err := s.cache.Invalidate(ctx, querycache.AttendanceTag); err != nil {
		s.logger.WithError(err).Warn("Refetch of attendance failed")
	}
}

// Unwatch drops a query from the session
func (s *Session) Unwatch(key string) {
	s.cache.Unregister(key)
}

// Load fetches the given queries now. A result superseded by a newer fetch is not an error.
func (s *Session) Load(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.cache.Load(ctx, key); err != nil && !errors.Is(err, fetch.ErrStale) {
			return err
		}
	}
	return nil
}

// State returns what the screen should render for key and whether it is stale
func (s *Session) State(key string) (fetch.State[interface{}], bool) {
	return s.cache.State(key)
}

// Claim claims an incoming order for this session's staff member
func (s *Session) Claim(ctx context.Context, station models.StationType, id uuid.UUID) (*models.StationOrder, error) {
	release, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.api.Claim(ctx, station, id)
	m := querycache.Mutation{Kind: querycache.MutationClaim, Station: station, OrderID: id, Err: err}
	if order != nil {
		m.Claimant = s.claimantOf(*order)
	}
	s.invalidate(ctx, m)
	return order, err
}

// Complete submits the counted items of a claimed order
func (s *Session) Complete(ctx context.Context, station models.StationType, id uuid.UUID, counts models.ItemCounts) (*models.CompletionResult, error) {
	release, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.api.Complete(ctx, station, id, counts)
	m := querycache.Mutation{Kind: querycache.MutationComplete, Station: station, OrderID: id, Err: err}
	if result != nil {
		m.Claimant = s.claimantOf(result.Order)
		m.Discrepancy = result.Order.Status == models.StationOrderWaitingBypass
	}
	s.invalidate(ctx, m)
	return result, err
}

// RequestBypass asks an admin to accept counts that differ from the expected ones
func (s *Session) RequestBypass(ctx context.Context, station models.StationType, id uuid.UUID, reason string, counts models.ItemCounts) (*models.CompletionResult, error) {
	release, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.api.RequestBypass(ctx, station, id, reason, counts)
	m := querycache.Mutation{Kind: querycache.MutationBypass, Station: station, OrderID: id, Err: err}
	if result != nil {
		m.Claimant = s.claimantOf(result.Order)
	}
	s.invalidate(ctx, m)
	return result, err
}

// ResolveBypass approves or rejects a bypass request
func (s *Session) ResolveBypass(ctx context.Context, requestID uuid.UUID, action models.BypassAction, note *string) (*models.ResolveBypassResult, error) {
	release, err := s.acquire(requestID)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.api.ResolveBypass(ctx, requestID, action, note)
	m := querycache.Mutation{Kind: querycache.MutationResolveBypass, Err: err}
	if result != nil {
		m.Station = result.Order.StationType
		m.OrderID = result.Order.ID
		m.Claimant = s.claimantOf(result.Order)
	}
	s.invalidate(ctx, m)
	return result, err
}

func (s *Session) acquire(target uuid.UUID) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[target]; busy {
		return nil, ErrInFlight
	}
	s.inFlight[target] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, target)
		s.mu.Unlock()
	}, nil
}

func (s *Session) claimantOf(order models.StationOrder) uuid.UUID {
	if order.ClaimedBy != nil {
		return *order.ClaimedBy
	}
	if s.id.StaffID != nil {
		return *s.id.StaffID
	}
	return uuid.Nil
}

// invalidate refetches the scopes m made stale. Refetch failures leave the
// entries stale and are logged; they never replace the mutation's own result.
func (s *Session) invalidate(ctx context.Context, m querycache.Mutation) {
	m.Role = s.id.Role
	tags := s.router.Route(m)
	if len(tags) == 0 {
		return
	}
	keys, err := s.cache.Invalidate(ctx, tags...)
	entry := s.logger.WithFields(logrus.Fields{
		"mutation": m.Kind,
		"order_id": m.OrderID,
		"refetch":  keys,
	})
	if err != nil {
		entry.WithError(err).Warn("Refetch after mutation failed")
		return
	}
	entry.Debug("Refetched stale queries")
}
