package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cleanspin/laundry-ops/internal/database"
	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/workflow"
)

// fixture wires both services over one memory store, with a worker per
// station plus admins for a single outlet.
type fixture struct {
	store      *database.MemoryStore
	clock      *workflow.FixedClock
	attendance *AttendanceService
	stations   *StationService

	outletID uuid.UUID
	washer   Actor
	washer2  Actor
	ironer   Actor
	admin    Actor
	super    Actor
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := database.NewMemoryStore()
	clock := workflow.NewFixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	logger := quietLogger()

	f := &fixture{
		store:      store,
		clock:      clock,
		attendance: NewAttendanceService(store, clock, nil, logger),
		stations:   NewStationService(store, store, store, clock, nil, logger),
		outletID:   uuid.New(),
	}
	f.washer = f.addWorker(models.StationWashing)
	f.washer2 = f.addWorker(models.StationWashing)
	f.ironer = f.addWorker(models.StationIroning)

	outletID := f.outletID
	f.admin = Actor{UserID: uuid.New(), OutletID: &outletID, Role: models.RoleOutletAdmin}
	f.super = Actor{UserID: uuid.New(), Role: models.RoleSuperAdmin}
	return f
}

func (f *fixture) addWorker(station models.StationType) Actor {
	st := station
	staff := models.OutletStaff{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		OutletID:    f.outletID,
		Role:        models.RoleWorker,
		StationType: &st,
		IsActive:    true,
	}
	f.store.AddStaff(staff)
	staffID, outletID := staff.ID, f.outletID
	return Actor{UserID: staff.UserID, StaffID: &staffID, OutletID: &outletID, Role: models.RoleWorker}
}

func (f *fixture) addOrder(station models.StationType, expected models.ItemCounts) models.StationOrder {
	order := models.StationOrder{
		ID:                 uuid.New(),
		OrderID:            uuid.New(),
		OutletID:           f.outletID,
		StationType:        station,
		Status:             models.StationOrderPending,
		ExpectedItemCounts: expected,
		CreatedAt:          f.clock.Now(),
		UpdatedAt:          f.clock.Now(),
	}
	f.store.AddStationOrder(order)
	f.clock.Advance(time.Second)
	return order
}

func (f *fixture) clockIn(t *testing.T, actors ...Actor) {
	t.Helper()
	for _, a := range actors {
		_, err := f.attendance.ClockIn(context.Background(), a)
		require.NoError(t, err)
	}
}

func (f *fixture) claim(t *testing.T, actor Actor, order models.StationOrder) models.StationOrder {
	t.Helper()
	claimed, err := f.stations.Claim(context.Background(), actor, order.StationType, order.ID)
	require.NoError(t, err)
	return *claimed
}
