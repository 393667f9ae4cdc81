package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/database"
	"github.com/cleanspin/laundry-ops/internal/utils"
)

// Audit actions
const (
	AuditClockIn       = "attendance_clock_in"
	AuditClockOut      = "attendance_clock_out"
	AuditClaim         = "station_order_claim"
	AuditClaimLost     = "station_order_claim_lost"
	AuditComplete      = "station_order_complete"
	AuditBypassRequest = "station_order_bypass_request"
	AuditBypassResolve = "bypass_request_resolve"
)

// AuditService writes security and workflow events to audit_logs.
// With a nil database (memory mode) events only go to the log.
type AuditService struct {
	db      database.DB
	logger  *logrus.Logger
	enabled bool
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB, logger *logrus.Logger, enabled bool) *AuditService {
	return &AuditService{db: db, logger: logger, enabled: enabled}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string // attendance, station_order, bypass_request
	EntityID   *uuid.UUID
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// Record logs an action performed by actor on an entity. Failures are logged, never returned:
// the workflow transition has already been committed.
func (s *AuditService) Record(ctx context.Context, actor Actor, action, entityType string, entityID uuid.UUID, details map[string]interface{}) {
	if s == nil || !s.enabled {
		return
	}
	if details == nil {
		details = make(map[string]interface{})
	}
	details["role"] = actor.Role
	details["device_info"] = utils.ParseUserAgent(actor.UserAgent)
	if actor.StaffID != nil {
		details["outlet_staff_id"] = actor.StaffID.String()
	}

	userID := actor.UserID
	event := AuditEvent{
		UserID:     &userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		Details:    details,
	}

	if err := s.logEvent(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":    action,
			"entity_id": entityID,
		}).Warn("Failed to write audit event")
	}
}

func (s *AuditService) logEvent(ctx context.Context, event AuditEvent) error {
	if s.db == nil {
		s.logger.WithFields(logrus.Fields{
			"audit":       true,
			"user_id":     event.UserID,
			"action":      event.Action,
			"entity_type": event.EntityType,
			"entity_id":   event.EntityID,
			"ip_address":  event.IPAddress,
		}).Info("Audit event")
		return nil
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		event.UserID,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		details,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}
