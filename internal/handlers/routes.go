package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/middleware"
	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/services"
	"github.com/cleanspin/laundry-ops/pkg/jwt"
)

// RouteDeps is everything the API routes are built from
type RouteDeps struct {
	JWT         *jwt.Service
	Attendance  *services.AttendanceService
	Stations    *services.StationService
	CheckInPath string
	Logger      *logrus.Logger
}

// RegisterRoutes mounts the attendance, station and bypass routes on api (/api/v1)
func RegisterRoutes(api *gin.RouterGroup, deps RouteDeps) {
	attendanceHandler := NewAttendanceHandler(deps.Attendance, deps.Logger)
	stationHandler := NewStationHandler(deps.Stations, deps.Logger)
	bypassHandler := NewBypassHandler(deps.Stations, deps.Logger)

	auth := middleware.AuthMiddleware(deps.JWT, deps.Logger)

	// Attendance is reachable without an active shift
	attendance := api.Group("/attendance")
	attendance.Use(auth)
	attendance.Use(middleware.RequireAttendance(deps.Attendance, middleware.GateConfig{
		AllowedRoles: []models.Role{models.RoleWorker, models.RoleDriver, models.RoleOutletAdmin},
		CheckInPath:  deps.CheckInPath,
	}, deps.Logger))
	{
		attendance.GET("/today", attendanceHandler.Today)
		attendance.POST("/clock-in", attendanceHandler.ClockIn)
		attendance.POST("/clock-out", attendanceHandler.ClockOut)
		attendance.GET("/history", attendanceHandler.History)
	}

	// Station dashboards: workers need an open check-in, admins do not
	stations := api.Group("/stations/:station")
	stations.Use(auth)
	stations.Use(middleware.RequireAttendance(deps.Attendance, middleware.GateConfig{
		AllowedRoles: []models.Role{models.RoleWorker, models.RoleOutletAdmin, models.RoleSuperAdmin},
		CheckInRoles: []models.Role{models.RoleWorker},
		CheckInPath:  deps.CheckInPath,
	}, deps.Logger))
	{
		stations.GET("/orders", stationHandler.ListOrders)
		stations.GET("/stats", stationHandler.Stats)
		stations.GET("/orders/:id", stationHandler.GetOrder)
		stations.POST("/orders/:id/claim", stationHandler.Claim)
		stations.POST("/orders/:id/complete", stationHandler.Complete)
		stations.POST("/orders/:id/bypass", stationHandler.Bypass)
	}

	bypass := api.Group("/bypass-requests")
	bypass.Use(auth)
	bypass.Use(middleware.RequireRole(models.RoleSuperAdmin, models.RoleOutletAdmin))
	{
		bypass.GET("", bypassHandler.List)
		bypass.PATCH("/:id", bypassHandler.Resolve)
	}
}
