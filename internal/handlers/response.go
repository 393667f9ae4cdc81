package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/middleware"
	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/internal/services"
	"github.com/cleanspin/laundry-ops/internal/utils"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// PaginatedResponse wraps list endpoints
type PaginatedResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// respondError writes err as {"error","message","code"}. Internal failures are
// logged with their cause and reported with a generic message.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
	}
	c.JSON(apperr.HTTPStatus(kind), middleware.ErrorBody(err))
}

// actorFromContext builds the service actor from the authenticated user
func actorFromContext(c *gin.Context) (services.Actor, error) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		return services.Actor{}, apperr.New(apperr.Unauthenticated, "", "", "User context not found")
	}
	return services.Actor{
		UserID:    userCtx.UserID,
		StaffID:   userCtx.OutletStaffID,
		OutletID:  userCtx.OutletID,
		Role:      userCtx.Role,
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}, nil
}

func pageFromQuery(c *gin.Context) services.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return services.NewPage(page, limit)
}

func stationParam(c *gin.Context) (models.StationType, error) {
	station, ok := models.ParseStationType(c.Param("station"))
	if !ok {
		return "", apperr.New(apperr.NotFound, "", c.Param("station"), "Unknown station")
	}
	return station, nil
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Validation, "", c.Param(name), "Invalid "+name+" format")
	}
	return id, nil
}

// optionalUUIDQuery parses ?name=; empty means absent
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "", raw, "Invalid "+name+" format")
	}
	return &id, nil
}
