package laundryapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanspin/laundry-ops/internal/database"
	"github.com/cleanspin/laundry-ops/internal/handlers"
	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/services"
	"github.com/cleanspin/laundry-ops/internal/workflow"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
	"github.com/cleanspin/laundry-ops/pkg/jwt"
)

type testServer struct {
	*httptest.Server
	store    *database.MemoryStore
	jwt      *jwt.Service
	outletID uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := database.NewMemoryStore()
	clock := workflow.NewFixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	jwtService := jwt.NewService("client-test-secret", time.Hour)

	router := gin.New()
	handlers.RegisterRoutes(router.Group("/api/v1"), handlers.RouteDeps{
		JWT:         jwtService,
		Attendance:  services.NewAttendanceService(store, clock, nil, logger),
		Stations:    services.NewStationService(store, store, store, clock, nil, logger),
		CheckInPath: "/attendance/check-in",
		Logger:      logger,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, jwt: jwtService, outletID: uuid.New()}
}

func (s *testServer) workerClient(t *testing.T) *Client {
	t.Helper()
	st := models.StationWashing
	staff := models.OutletStaff{ID: uuid.New(), UserID: uuid.New(), OutletID: s.outletID, Role: models.RoleWorker, StationType: &st, IsActive: true}
	s.store.AddStaff(staff)
	outletID := s.outletID
	token, err := s.jwt.GenerateAccessToken(jwt.Identity{UserID: staff.UserID, OutletStaffID: &staff.ID, OutletID: &outletID, Role: string(models.RoleWorker)})
	require.NoError(t, err)
	return New(s.URL+"/api/v1", WithToken(token))
}

func (s *testServer) adminClient(t *testing.T) *Client {
	t.Helper()
	outletID := s.outletID
	token, err := s.jwt.GenerateAccessToken(jwt.Identity{UserID: uuid.New(), OutletID: &outletID, Role: string(models.RoleOutletAdmin)})
	require.NoError(t, err)
	return New(s.URL+"/api/v1", WithToken(token))
}

func (s *testServer) addOrder(expected models.ItemCounts) models.StationOrder {
	order := models.StationOrder{
		ID:                 uuid.New(),
		OrderID:            uuid.New(),
		OutletID:           s.outletID,
		StationType:        models.StationWashing,
		Status:             models.StationOrderPending,
		ExpectedItemCounts: expected,
		CreatedAt:          time.Now(),
	}
	s.store.AddStationOrder(order)
	return order
}

func TestClient_WorkdayAndDiscrepancy(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	worker := srv.workerClient(t)
	admin := srv.adminClient(t)
	order := srv.addOrder(models.ItemCounts{"shirt": 5, "pants": 2})

	_, err := worker.Claim(ctx, models.StationWashing, order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.AttendanceRequired))
	target, ok := RedirectTarget(err)
	require.True(t, ok)
	assert.Contains(t, target, "/attendance/check-in?next=")

	view, err := worker.ClockIn(ctx)
	require.NoError(t, err)
	assert.True(t, view.IsCheckedIn)

	incoming, err := worker.ListStationOrders(ctx, models.StationWashing, OrderListQuery{Scope: models.ScopeIncoming})
	require.NoError(t, err)
	require.Equal(t, 1, incoming.Total)

	claimed, err := worker.Claim(ctx, models.StationWashing, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StationOrderInProgress, claimed.Status)

	result, err := worker.Complete(ctx, models.StationWashing, order.ID, models.ItemCounts{"shirt": 5, "pants": 1})
	require.NoError(t, err)
	require.NotNil(t, result.Bypass)
	assert.Equal(t, models.StationOrderWaitingBypass, result.Order.Status)

	status := models.BypassRequested
	queue, err := admin.ListBypassRequests(ctx, BypassListQuery{Status: &status})
	require.NoError(t, err)
	require.Len(t, queue.Data, 1)

	resolved, err := admin.ResolveBypass(ctx, queue.Data[0].ID, models.BypassActionReject, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StationOrderInProgress, resolved.Order.Status)

	_, err = admin.ResolveBypass(ctx, queue.Data[0].ID, models.BypassActionApprove, nil)
	assert.True(t, errors.Is(err, apperr.AlreadyResolved))
	assert.False(t, apperr.IsRetryable(err))

	result, err = worker.Complete(ctx, models.StationWashing, order.ID, models.ItemCounts{"shirt": 5, "pants": 2})
	require.NoError(t, err)
	assert.Equal(t, models.StationOrderCompleted, result.Order.Status)

	stats, err := worker.StationStats(ctx, models.StationWashing, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Completed)

	detail, err := worker.GetStationOrder(ctx, models.StationWashing, order.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.OpenBypass)

	view, err = worker.ClockOut(ctx)
	require.NoError(t, err)
	assert.True(t, view.IsCompleted)

	_, err = worker.ClockIn(ctx)
	assert.True(t, errors.Is(err, apperr.DayLocked))

	history, err := worker.AttendanceHistory(ctx, "2026-03-01", "2026-03-02", PageQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, history.Total)
	assert.Equal(t, 10, history.Limit)
}

func TestClient_ConcurrentClaimsOneWinner(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	workers := make([]*Client, 5)
	for i := range workers {
		workers[i] = srv.workerClient(t)
		_, err := workers[i].ClockIn(ctx)
		require.NoError(t, err)
	}
	order := srv.addOrder(models.ItemCounts{"towel": 2})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		lost    int
	)
	for _, w := range workers {
		wg.Add(1)
		go func(w *Client) {
			defer wg.Done()
			_, err := w.Claim(ctx, models.StationWashing, order.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, apperr.AlreadyClaimed):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, len(workers)-1, lost)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperr.Kind
	}{
		{"Coded error", http.StatusConflict, `{"error":"already_claimed","message":"gone","code":"ALREADY_CLAIMED"}`, apperr.AlreadyClaimed},
		{"Token expired maps to unauthenticated", http.StatusUnauthorized, `{"error":"token_expired","code":"TOKEN_EXPIRED"}`, apperr.Unauthenticated},
		{"Bad gateway page", http.StatusBadGateway, `<html>bad gateway</html>`, apperr.Transient},
		{"Server error", http.StatusInternalServerError, `{"error":"internal","code":"INTERNAL"}`, apperr.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Today(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.Equal(t, tt.want == apperr.Transient, apperr.IsRetryable(err))
		})
	}
}

func TestClient_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Today(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.Transient, apperr.KindOf(err))
}

func TestClient_CanceledContextIsNotTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := New(srv.URL).Today(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, apperr.IsRetryable(err))
}

func TestClient_DeadlineIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).Today(ctx)
	require.Error(t, err)
	assert.Equal(t, apperr.Transient, apperr.KindOf(err))
	assert.True(t, apperr.IsRetryable(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "attendance_today", appErr.Op)
}
