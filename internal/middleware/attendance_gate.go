package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/guard"
	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/services"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// AttendanceContextKey holds today's attendance record once the gate admitted the caller
const AttendanceContextKey = "attendance"

// AttendanceLookup returns the caller's attendance record for today, nil if none
type AttendanceLookup interface {
	TodayRecord(ctx context.Context, actor services.Actor) (*models.AttendanceRecord, error)
}

// GateConfig describes who may enter a route group
type GateConfig struct {
	AllowedRoles []models.Role
	// CheckInRoles must hold an open check-in for today; other allowed roles pass on role alone
	CheckInRoles []models.Role
	CheckInPath  string
}

// RequireAttendance admits callers through guard.Decide. The server always has
// authoritative data, so the loading flags are never set.
func RequireAttendance(lookup AttendanceLookup, cfg GateConfig, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		in := guard.Input{
			HasSession:     exists,
			AllowedRoles:   cfg.AllowedRoles,
			Pathname:       c.Request.URL.Path,
			RedirectTarget: guard.CheckInTarget(cfg.CheckInPath, c.Request.URL.RequestURI()),
		}

		if exists {
			role := userCtx.Role
			in.Role = &role
			in.RequireCheckIn = models.HasRole(role, cfg.CheckInRoles...)
			if in.RequireCheckIn {
				rec, err := lookup.TodayRecord(c.Request.Context(), services.Actor{
					UserID:   userCtx.UserID,
					StaffID:  userCtx.OutletStaffID,
					OutletID: userCtx.OutletID,
					Role:     role,
				})
				if err != nil {
					logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Failed to load attendance for access check")
					AbortWithError(c, apperr.Wrap(apperr.Internal, "attendance_gate", "", err))
					return
				}
				in.Attendance = rec
			}
		}

		decision := guard.Decide(in)
		switch decision.Kind {
		case guard.Allow:
			if in.Attendance != nil {
				c.Set(AttendanceContextKey, in.Attendance)
			}
			c.Next()
		case guard.GoSignIn:
			if !exists {
				AbortWithError(c, apperr.New(apperr.Unauthenticated, "attendance_gate", "", ""))
				return
			}
			AbortWithError(c, apperr.New(apperr.Forbidden, "attendance_gate", string(userCtx.Role), ""))
		case guard.GoRedirect:
			body := ErrorBody(apperr.New(apperr.AttendanceRequired, "attendance_gate", "", ""))
			body["redirect_to"] = decision.Target
			c.AbortWithStatusJSON(http.StatusForbidden, body)
		default:
			// Hold: the caller is already at the check-in target, redirecting again would loop
			AbortWithError(c, apperr.New(apperr.AttendanceRequired, "attendance_gate", "", ""))
		}
	}
}
