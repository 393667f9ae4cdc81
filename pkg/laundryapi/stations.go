package laundryapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/cleanspin/laundry-ops/internal/models"
)

func stationPath(station models.StationType, rest string) string {
	return "/stations/" + strings.ToLower(string(station)) + rest
}

func orderPath(station models.StationType, id uuid.UUID, action string) string {
	p := stationPath(station, "/orders/"+id.String())
	if action != "" {
		p += "/" + action
	}
	return p
}

// OrderListQuery selects a station dashboard list. OutletID is only needed by super admins.
type OrderListQuery struct {
	Scope    models.OrderScope
	OutletID *uuid.UUID
	PageQuery
}

// ListStationOrders returns one page of a station dashboard list
func (c *Client) ListStationOrders(ctx context.Context, station models.StationType, query OrderListQuery) (*Page[models.StationOrder], error) {
	q := query.values()
	if query.Scope != "" {
		q.Set("scope", string(query.Scope))
	}
	if query.OutletID != nil {
		q.Set("outlet_id", query.OutletID.String())
	}
	var out Page[models.StationOrder]
	if err := c.do(ctx, "list_station_orders", string(station), http.MethodGet, stationPath(station, "/orders"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StationStats returns a station's dashboard counters
func (c *Client) StationStats(ctx context.Context, station models.StationType, outletID *uuid.UUID) (*models.StationStats, error) {
	q := url.Values{}
	if outletID != nil {
		q.Set("outlet_id", outletID.String())
	}
	var stats models.StationStats
	if err := c.do(ctx, "station_stats", string(station), http.MethodGet, stationPath(station, "/stats"), q, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetStationOrder returns an order with its open bypass request, if any
func (c *Client) GetStationOrder(ctx context.Context, station models.StationType, id uuid.UUID) (*models.StationOrderDetail, error) {
	var detail models.StationOrderDetail
	if err := c.do(ctx, "get_station_order", id.String(), http.MethodGet, orderPath(station, id, ""), nil, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Claim takes a pending order. Losing a race returns an ALREADY_CLAIMED error.
func (c *Client) Claim(ctx context.Context, station models.StationType, id uuid.UUID) (*models.StationOrder, error) {
	var order models.StationOrder
	if err := c.do(ctx, "claim", id.String(), http.MethodPost, orderPath(station, id, "claim"), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Complete submits item counts for a claimed order
func (c *Client) Complete(ctx context.Context, station models.StationType, id uuid.UUID, counts models.ItemCounts) (*models.CompletionResult, error) {
	body := map[string]interface{}{"item_counts": counts}
	var result models.CompletionResult
	if err := c.do(ctx, "complete", id.String(), http.MethodPost, orderPath(station, id, "complete"), nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestBypass submits a discrepancy report with a reason
func (c *Client) RequestBypass(ctx context.Context, station models.StationType, id uuid.UUID, reason string, counts models.ItemCounts) (*models.CompletionResult, error) {
	body := map[string]interface{}{"reason": reason, "item_counts": counts}
	var result models.CompletionResult
	if err := c.do(ctx, "bypass", id.String(), http.MethodPost, orderPath(station, id, "bypass"), nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
