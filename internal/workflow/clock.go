package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/cleanspin/laundry-ops/internal/models"
)

// Clock supplies the current instant and the operator's calendar day
type Clock interface {
	Now() time.Time
	Today() string
}

// SystemClock reads wall time in a fixed location
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock loads the IANA time zone used to decide "today"
func NewSystemClock(timezone string) (*SystemClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &SystemClock{loc: loc}, nil
}

func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *SystemClock) Today() string {
	return c.Now().Format(models.DateLayout)
}

// Location returns the operator time zone
func (c *SystemClock) Location() *time.Location {
	return c.loc
}

// FixedClock is a settable clock for tests and replay tooling
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Today() string {
	return c.Now().Format(models.DateLayout)
}

// Set moves the clock to t
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
