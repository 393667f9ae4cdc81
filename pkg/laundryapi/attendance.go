package laundryapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cleanspin/laundry-ops/internal/models"
)

// Page is one page of a list endpoint
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PageQuery is the paging part of a list request; zero values use the server defaults
type PageQuery struct {
	Page  int
	Limit int
}

func (p PageQuery) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

// Today returns today's attendance of the signed-in staff member
func (c *Client) Today(ctx context.Context) (*models.AttendanceView, error) {
	var view models.AttendanceView
	if err := c.do(ctx, "attendance_today", "", http.MethodGet, "/attendance/today", nil, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ClockIn starts today's shift
func (c *Client) ClockIn(ctx context.Context) (*models.AttendanceView, error) {
	var view models.AttendanceView
	if err := c.do(ctx, "clock_in", "", http.MethodPost, "/attendance/clock-in", nil, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ClockOut ends today's shift
func (c *Client) ClockOut(ctx context.Context) (*models.AttendanceView, error) {
	var view models.AttendanceView
	if err := c.do(ctx, "clock_out", "", http.MethodPost, "/attendance/clock-out", nil, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// AttendanceHistory lists past attendance; from and to are optional YYYY-MM-DD bounds
func (c *Client) AttendanceHistory(ctx context.Context, from, to string, page PageQuery) (*Page[models.AttendanceRecord], error) {
	q := page.values()
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	var out Page[models.AttendanceRecord]
	if err := c.do(ctx, "attendance_history", "", http.MethodGet, "/attendance/history", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
