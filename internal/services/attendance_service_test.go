package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

func TestAttendanceService_WorkdayTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.attendance.Today(ctx, f.washer)
	require.NoError(t, err)
	assert.False(t, view.IsCheckedIn)
	assert.False(t, view.IsCompleted)
	assert.Equal(t, "2026-03-02", view.Date)

	_, err = f.attendance.ClockOut(ctx, f.washer)
	assert.True(t, errors.Is(err, apperr.NotCheckedIn))

	rec, err := f.attendance.ClockIn(ctx, f.washer)
	require.NoError(t, err)
	require.NotNil(t, rec.ClockInAt)
	assert.Nil(t, rec.ClockOutAt)

	_, err = f.attendance.ClockIn(ctx, f.washer)
	assert.True(t, errors.Is(err, apperr.AlreadyCheckedIn))

	f.clock.Advance(8 * time.Hour)
	rec, err = f.attendance.ClockOut(ctx, f.washer)
	require.NoError(t, err)
	require.NotNil(t, rec.ClockOutAt)
	assert.False(t, rec.ClockOutAt.Before(*rec.ClockInAt))

	view, err = f.attendance.Today(ctx, f.washer)
	require.NoError(t, err)
	assert.False(t, view.IsCheckedIn)
	assert.True(t, view.IsCompleted)

	_, err = f.attendance.ClockIn(ctx, f.washer)
	assert.True(t, errors.Is(err, apperr.DayLocked))

	_, err = f.attendance.ClockOut(ctx, f.washer)
	assert.True(t, errors.Is(err, apperr.NotCheckedIn))
}

func TestAttendanceService_NewDayStartsFresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clockIn(t, f.washer)
	_, err := f.attendance.ClockOut(ctx, f.washer)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	view, err := f.attendance.Today(ctx, f.washer)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", view.Date)
	assert.Nil(t, view.Record)

	_, err = f.attendance.ClockIn(ctx, f.washer)
	assert.NoError(t, err)
}

func TestAttendanceService_ConcurrentClockInAppliesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		kinds     []apperr.Kind
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.attendance.ClockIn(ctx, f.washer)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			kinds = append(kinds, apperr.KindOf(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, k := range kinds {
		assert.Equal(t, apperr.AlreadyCheckedIn, k)
	}
}

func TestAttendanceService_NonStaffIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.attendance.Today(ctx, f.super)
	assert.True(t, errors.Is(err, apperr.Forbidden))
	_, err = f.attendance.ClockIn(ctx, f.super)
	assert.True(t, errors.Is(err, apperr.Forbidden))

	rec, err := f.attendance.TodayRecord(ctx, f.super)
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAttendanceService_History(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		f.clockIn(t, f.washer)
		_, err := f.attendance.ClockOut(ctx, f.washer)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	records, total, err := f.attendance.History(ctx, f.washer, "", "", NewPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, records, 2)
	assert.Equal(t, "2026-03-04", records[0].Date)

	records, total, err = f.attendance.History(ctx, f.washer, "2026-03-03", "2026-03-03", NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "2026-03-03", records[0].Date)

	tests := []struct {
		name     string
		from, to string
	}{
		{"Bad from", "03/03/2026", ""},
		{"Bad to", "", "2026-13-01"},
		{"Inverted range", "2026-03-04", "2026-03-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.attendance.History(ctx, f.washer, tt.from, tt.to, NewPage(1, 20))
			assert.True(t, errors.Is(err, apperr.Validation))
		})
	}
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		page, limit       int
		wantPage, wantLim int
		wantOffset        int
	}{
		{0, 0, 1, 20, 0},
		{2, 10, 2, 10, 10},
		{3, 500, 3, 100, 200},
		{-1, -5, 1, 20, 0},
	}
	for _, tt := range tests {
		p := NewPage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p.Page)
		assert.Equal(t, tt.wantLim, p.Limit)
		assert.Equal(t, tt.wantOffset, p.Offset())
	}
}

func TestAttendanceService_TodayRecordForStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.attendance.TodayRecord(ctx, f.washer)
	require.NoError(t, err)
	assert.Nil(t, rec)

	f.clockIn(t, f.washer)
	rec, err = f.attendance.TodayRecord(ctx, f.washer)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.IsCheckedIn())

	unknown := uuid.New()
	rec, err = f.attendance.TodayRecord(ctx, Actor{StaffID: &unknown, Role: models.RoleWorker})
	require.NoError(t, err)
	assert.Nil(t, rec)
}
