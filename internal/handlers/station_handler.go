package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/services"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// StationHandler handles station dashboard and station order HTTP requests
type StationHandler struct {
	stationService *services.StationService
	logger         *logrus.Logger
}

// NewStationHandler creates a new station handler
func NewStationHandler(stationService *services.StationService, logger *logrus.Logger) *StationHandler {
	return &StationHandler{stationService: stationService, logger: logger}
}

// CompleteRequest is the body of a completion. An empty item_counts object is a
// valid report of zero items; only a missing one is rejected.
type CompleteRequest struct {
	ItemCounts models.ItemCounts `json:"item_counts"`
}

// SubmitBypassRequest is the body of an explicit bypass submission
type SubmitBypassRequest struct {
	Reason     string            `json:"reason" binding:"required"`
	ItemCounts models.ItemCounts `json:"item_counts"`
}

// stationRequest collects what every station route needs
type stationRequest struct {
	actor   services.Actor
	station models.StationType
}

func (h *StationHandler) bind(c *gin.Context) (stationRequest, bool) {
	actor, err := actorFromContext(c)
	if err != nil {
		respondError(c, h.logger, err)
		return stationRequest{}, false
	}
	station, err := stationParam(c)
	if err != nil {
		respondError(c, h.logger, err)
		return stationRequest{}, false
	}
	return stationRequest{actor: actor, station: station}, true
}

// ListOrders handles GET /api/v1/stations/:station/orders?scope=&outlet_id=&page=&limit=
func (h *StationHandler) ListOrders(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	outletID, err := optionalUUIDQuery(c, "outlet_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	page := pageFromQuery(c)
	scope := models.OrderScope(c.DefaultQuery("scope", string(models.ScopeIncoming)))
	orders, total, err := h.stationService.ListStationOrders(c.Request.Context(), req.actor, req.station, scope, outletID, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: orders, Total: total, Page: page.Page, Limit: page.Limit})
}

// Stats handles GET /api/v1/stations/:station/stats?outlet_id=
func (h *StationHandler) Stats(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	outletID, err := optionalUUIDQuery(c, "outlet_id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	stats, err := h.stationService.StationStats(c.Request.Context(), req.actor, req.station, outletID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetOrder handles GET /api/v1/stations/:station/orders/:id
func (h *StationHandler) GetOrder(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	orderID, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	detail, err := h.stationService.GetStationOrder(c.Request.Context(), req.actor, req.station, orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Claim handles POST /api/v1/stations/:station/orders/:id/claim
func (h *StationHandler) Claim(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	orderID, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	order, err := h.stationService.Claim(c.Request.Context(), req.actor, req.station, orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Complete handles POST /api/v1/stations/:station/orders/:id/complete
func (h *StationHandler) Complete(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	orderID, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var body CompleteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.logger, apperr.New(apperr.Validation, "complete", orderID.String(), "Invalid request body: "+err.Error()))
		return
	}
	if body.ItemCounts == nil {
		respondError(c, h.logger, apperr.New(apperr.Validation, "complete", orderID.String(), "item_counts is required"))
		return
	}

	result, err := h.stationService.Complete(c.Request.Context(), req.actor, req.station, orderID, body.ItemCounts)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Bypass handles POST /api/v1/stations/:station/orders/:id/bypass
func (h *StationHandler) Bypass(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	orderID, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var body SubmitBypassRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.logger, apperr.New(apperr.Validation, "bypass", orderID.String(), "Invalid request body: "+err.Error()))
		return
	}
	if body.ItemCounts == nil {
		respondError(c, h.logger, apperr.New(apperr.Validation, "bypass", orderID.String(), "item_counts is required"))
		return
	}

	result, err := h.stationService.RequestBypass(c.Request.Context(), req.actor, req.station, orderID, body.Reason, body.ItemCounts)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
