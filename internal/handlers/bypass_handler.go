package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/services"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// BypassHandler handles the admin bypass request queue
type BypassHandler struct {
	stationService *services.StationService
	logger         *logrus.Logger
}

// NewBypassHandler creates a new bypass handler
func NewBypassHandler(stationService *services.StationService, logger *logrus.Logger) *BypassHandler {
	return &BypassHandler{stationService: stationService, logger: logger}
}

// ResolveBypassRequest is the body of an admin decision
type ResolveBypassRequest struct {
	Action    models.BypassAction `json:"action" binding:"required,oneof=APPROVE REJECT"`
	AdminNote *string             `json:"admin_note"`
}

// Resolve handles PATCH /api/v1/bypass-requests/:id
func (h *BypassHandler) Resolve(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	requestID, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var body ResolveBypassRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.logger, apperr.New(apperr.Validation, "resolve_bypass", requestID.String(), "Invalid request body: "+err.Error()))
		return
	}

	result, err := h.stationService.ResolveBypass(c.Request.Context(), actor, requestID, body.Action, body.AdminNote)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// List handles GET /api/v1/bypass-requests?status=&station=&outlet_id=&page=&limit=
func (h *BypassHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var filter models.BypassRequestFilter
	if filter.OutletID, err = optionalUUIDQuery(c, "outlet_id"); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if raw := c.Query("station"); raw != "" {
		station, ok := models.ParseStationType(raw)
		if !ok {
			respondError(c, h.logger, apperr.New(apperr.Validation, "list_bypass_requests", raw, "Unknown station"))
			return
		}
		filter.StationType = &station
	}
	if raw := c.Query("status"); raw != "" {
		status := models.BypassStatus(raw)
		switch status {
		case models.BypassRequested, models.BypassApproved, models.BypassRejected:
			filter.Status = &status
		default:
			respondError(c, h.logger, apperr.New(apperr.Validation, "list_bypass_requests", raw, "status must be REQUESTED, APPROVED or REJECTED"))
			return
		}
	}

	page := pageFromQuery(c)
	requests, total, err := h.stationService.ListBypassRequests(c.Request.Context(), actor, filter, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: requests, Total: total, Page: page.Page, Limit: page.Limit})
}
