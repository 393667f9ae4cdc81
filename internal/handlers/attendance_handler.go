package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/services"
)

// AttendanceHandler handles attendance HTTP requests
type AttendanceHandler struct {
	attendanceService *services.AttendanceService
	logger            *logrus.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *services.AttendanceService, logger *logrus.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService, logger: logger}
}

// Today handles GET /api/v1/attendance/today
func (h *AttendanceHandler) Today(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	view, err := h.attendanceService.Today(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClockIn handles POST /api/v1/attendance/clock-in
func (h *AttendanceHandler) ClockIn(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rec, err := h.attendanceService.ClockIn(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewAttendanceView(rec.Date, rec))
}

// ClockOut handles POST /api/v1/attendance/clock-out
func (h *AttendanceHandler) ClockOut(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rec, err := h.attendanceService.ClockOut(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewAttendanceView(rec.Date, rec))
}

// History handles GET /api/v1/attendance/history?from=&to=&page=&limit=
func (h *AttendanceHandler) History(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	page := pageFromQuery(c)
	records, total, err := h.attendanceService.History(c.Request.Context(), actor, c.Query("from"), c.Query("to"), page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: records, Total: total, Page: page.Page, Limit: page.Limit})
}
