package guard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/workflow"
)

const checkIn = "/attendance/check-in"

func rolePtr(r models.Role) *models.Role { return &r }

func attendanceStates() map[string]*models.AttendanceRecord {
	in := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	out := in.Add(9 * time.Hour)
	return map[string]*models.AttendanceRecord{
		"none":       nil,
		"empty":      {},
		"checked in": {ClockInAt: &in},
		"completed":  {ClockInAt: &in, ClockOutAt: &out},
	}
}

func TestDecide_Rules(t *testing.T) {
	states := attendanceStates()
	target := CheckInTarget(checkIn, "/worker/washing")

	tests := []struct {
		name string
		in   Input
		want Decision
	}{
		{"no session", Input{Role: rolePtr(models.RoleWorker)}, Decision{Kind: GoSignIn}},
		{"profile loading", Input{HasSession: true, IsLoadingProfile: true}, Decision{Kind: Hold}},
		{"no role", Input{HasSession: true, AllowedRoles: []models.Role{models.RoleWorker}}, Decision{Kind: GoSignIn}},
		{"unknown role", Input{HasSession: true, Role: rolePtr("JANITOR"), AllowedRoles: []models.Role{"JANITOR"}}, Decision{Kind: GoSignIn}},
		{"role not allowed", Input{HasSession: true, Role: rolePtr(models.RoleCustomer), AllowedRoles: []models.Role{models.RoleWorker}}, Decision{Kind: GoSignIn}},
		{"empty allow list", Input{HasSession: true, Role: rolePtr(models.RoleWorker)}, Decision{Kind: GoSignIn}},
		{
			"role only gating",
			Input{HasSession: true, Role: rolePtr(models.RoleWorker), AllowedRoles: []models.Role{models.RoleWorker}, IsLoadingAttendance: true},
			Decision{Kind: Allow},
		},
		{
			"attendance loading",
			Input{HasSession: true, Role: rolePtr(models.RoleWorker), AllowedRoles: []models.Role{models.RoleWorker}, RequireCheckIn: true, IsLoadingAttendance: true},
			Decision{Kind: Hold},
		},
		{
			"checked in",
			Input{HasSession: true, Role: rolePtr(models.RoleWorker), AllowedRoles: []models.Role{models.RoleWorker}, RequireCheckIn: true, Attendance: states["checked in"]},
			Decision{Kind: Allow},
		},
		{
			"not checked in",
			Input{HasSession: true, Role: rolePtr(models.RoleDriver), AllowedRoles: []models.Role{models.RoleDriver}, RequireCheckIn: true, Pathname: "/worker/washing", RedirectTarget: target},
			Decision{Kind: GoRedirect, Target: target},
		},
		{
			"completed day",
			Input{HasSession: true, Role: rolePtr(models.RoleWorker), AllowedRoles: []models.Role{models.RoleWorker}, RequireCheckIn: true, Attendance: states["completed"], Pathname: "/worker/washing", RedirectTarget: target},
			Decision{Kind: GoRedirect, Target: target},
		},
		{
			"already on target",
			Input{HasSession: true, Role: rolePtr(models.RoleWorker), AllowedRoles: []models.Role{models.RoleWorker}, RequireCheckIn: true, Pathname: checkIn, RedirectTarget: target},
			Decision{Kind: Hold},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.in))
		})
	}
}

// Walks the whole input space: decisions are deterministic, never redirect to
// the current page, and never allow without a session or an allowed role.
func TestDecide_CrossProduct(t *testing.T) {
	roles := []*models.Role{nil, rolePtr("UNKNOWN")}
	for _, r := range []models.Role{models.RoleSuperAdmin, models.RoleOutletAdmin, models.RoleWorker, models.RoleDriver, models.RoleCustomer} {
		roles = append(roles, rolePtr(r))
	}
	allowLists := [][]models.Role{nil, {models.RoleWorker}, {models.RoleWorker, models.RoleDriver}, {models.RoleSuperAdmin}}
	paths := []string{"/worker/washing", checkIn, checkIn + "/"}
	bools := []bool{false, true}

	count := 0
	for _, session := range bools {
		for _, role := range roles {
			for _, allowed := range allowLists {
				for name, att := range attendanceStates() {
					for _, path := range paths {
						for _, loadingProfile := range bools {
							for _, loadingAttendance := range bools {
								for _, requireCheckIn := range bools {
									in := Input{
										HasSession:          session,
										Role:                role,
										AllowedRoles:        allowed,
										Attendance:          att,
										Pathname:            path,
										IsLoadingProfile:    loadingProfile,
										IsLoadingAttendance: loadingAttendance,
										RequireCheckIn:      requireCheckIn,
										RedirectTarget:      CheckInTarget(checkIn, "/worker/washing"),
									}
									d := Decide(in)
									count++

									require.Equal(t, d, Decide(in), "not idempotent for attendance %s", name)
									if path == checkIn || path == checkIn+"/" {
										assert.NotEqual(t, GoRedirect, d.Kind)
									}
									if !session {
										assert.Equal(t, GoSignIn, d.Kind)
									}
									if d.Kind == Allow {
										require.NotNil(t, role)
										assert.True(t, models.HasRole(*role, allowed...))
										assert.False(t, loadingProfile)
										if requireCheckIn {
											assert.True(t, att.IsCheckedIn())
										}
									}
									if d.Kind == GoRedirect {
										assert.NotEmpty(t, d.Target)
									} else {
										assert.Empty(t, d.Target)
									}
								}
							}
						}
					}
				}
			}
		}
	}
	assert.Equal(t, 2*7*4*4*3*2*2*2, count)
}

func TestCheckInTarget(t *testing.T) {
	assert.Equal(t, checkIn+"?next=%2Fworker%2Fwashing%3Ftab%3Dmy", CheckInTarget(checkIn, "/worker/washing?tab=my"))
	assert.Equal(t, checkIn, CheckInTarget(checkIn, ""))
	assert.Equal(t, checkIn, CheckInTarget(checkIn, checkIn))
}

// Scenarios: clock in at 08:00 allows the station dashboard; clock out at
// 17:00 locks the day and sends the worker back to the check-in page.
func TestDecide_WorkdayScenario(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	clock := workflow.NewFixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, loc))
	staffID := uuid.New()

	dashboard := func(att *models.AttendanceRecord) Decision {
		return Decide(Input{
			HasSession:     true,
			Role:           rolePtr(models.RoleWorker),
			AllowedRoles:   []models.Role{models.RoleWorker},
			Attendance:     att,
			Pathname:       "/worker/washing",
			RequireCheckIn: true,
			RedirectTarget: CheckInTarget(checkIn, "/worker/washing"),
		})
	}

	rec, err := workflow.ClockIn(nil, staffID, clock.Today(), clock.Now())
	require.NoError(t, err)
	assert.True(t, rec.IsCheckedIn())
	assert.False(t, rec.IsCompleted())
	assert.Equal(t, Allow, dashboard(&rec).Kind)

	clock.Set(time.Date(2026, 3, 2, 17, 0, 0, 0, loc))
	rec, err = workflow.ClockOut(&rec, clock.Now())
	require.NoError(t, err)

	_, err = workflow.ClockIn(&rec, staffID, clock.Today(), clock.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already completed")

	d := dashboard(&rec)
	assert.Equal(t, GoRedirect, d.Kind)
	assert.Equal(t, CheckInTarget(checkIn, "/worker/washing"), d.Target)
}
