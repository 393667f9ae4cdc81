// Package laundryapi is the HTTP client for the laundry operations API.
// Every failure is returned as an *apperr.Error so callers can branch on the
// kind (AlreadyClaimed, AttendanceRequired, ...) instead of status codes.
package laundryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// Client talks to /api/v1 of a laundry-ops server
type Client struct {
	baseURL string
	client  *http.Client

	tokenMutex sync.RWMutex
	token      string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL, e.g. "https://ops.example.com/api/v1"
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after the user signed in again
func (c *Client) SetToken(token string) {
	c.tokenMutex.Lock()
	c.token = token
	c.tokenMutex.Unlock()
}

func (c *Client) bearer() string {
	c.tokenMutex.RLock()
	defer c.tokenMutex.RUnlock()
	return c.token
}

// errorBody is the JSON error shape of the API
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// RedirectError is returned for ATTENDANCE_REQUIRED responses that name the check-in target
type RedirectError struct {
	Err    *apperr.Error
	Target string
}

func (e *RedirectError) Error() string {
	return e.Err.Error() + " (check in at " + e.Target + ")"
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// do sends a request and decodes a 2xx JSON body into out (when non-nil).
// op and ref are recorded on any returned error.
func (c *Client) do(ctx context.Context, op, ref, method, path string, query url.Values, in, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apperr.Wrap(apperr.Validation, op, ref, fmt.Errorf("failed to marshal request: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return apperr.Wrap(apperr.Internal, op, ref, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := contextError(op, ref, ctx); ctxErr != nil {
			return ctxErr
		}
		return apperr.Wrap(apperr.Transient, op, ref, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := contextError(op, ref, ctx); ctxErr != nil {
			return ctxErr
		}
		return apperr.Wrap(apperr.Transient, op, ref, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, ref, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.Internal, op, ref, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

// contextError reports why ctx ended. A cancellation means the caller superseded
// the request and is returned as is; an expired deadline is a timeout and
// classifies as Transient.
func contextError(op, ref string, ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.Transient, op, ref, err)
	}
	return err
}

func decodeError(op, ref string, status int, raw []byte) error {
	var body errorBody
	// a non-JSON body (proxy error page) still classifies by status
	_ = json.Unmarshal(raw, &body)

	e := apperr.FromHTTP(status, body.Code, body.Message)
	e.Op, e.Ref = op, ref
	if e.Kind == apperr.AttendanceRequired && body.RedirectTo != "" {
		return &RedirectError{Err: e, Target: body.RedirectTo}
	}
	return e
}

// RedirectTarget returns the check-in target carried by an ATTENDANCE_REQUIRED error
func RedirectTarget(err error) (string, bool) {
	var re *RedirectError
	if errors.As(err, &re) {
		return re.Target, true
	}
	return "", false
}
