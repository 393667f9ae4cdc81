package laundryapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/cleanspin/laundry-ops/internal/models"
)

// BypassListQuery filters the admin bypass queue
type BypassListQuery struct {
	Status   *models.BypassStatus
	Station  *models.StationType
	OutletID *uuid.UUID
	PageQuery
}

// ListBypassRequests returns one page of the admin queue
func (c *Client) ListBypassRequests(ctx context.Context, query BypassListQuery) (*Page[models.BypassRequest], error) {
	q := query.values()
	if query.Status != nil {
		q.Set("status", string(*query.Status))
	}
	if query.Station != nil {
		q.Set("station", string(*query.Station))
	}
	if query.OutletID != nil {
		q.Set("outlet_id", query.OutletID.String())
	}
	var out Page[models.BypassRequest]
	if err := c.do(ctx, "list_bypass_requests", "", http.MethodGet, "/bypass-requests", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveBypass approves or rejects a request. A request someone else already
// decided returns an ALREADY_RESOLVED error.
func (c *Client) ResolveBypass(ctx context.Context, id uuid.UUID, action models.BypassAction, note *string) (*models.ResolveBypassResult, error) {
	body := map[string]interface{}{"action": action}
	if note != nil {
		body["admin_note"] = *note
	}
	var result models.ResolveBypassResult
	if err := c.do(ctx, "resolve_bypass", id.String(), http.MethodPatch, "/bypass-requests/"+id.String(), nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
