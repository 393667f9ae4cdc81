// Package fetch guards per-key query state against out-of-order responses.
//
// Each fetch for a key gets a strictly increasing generation. Starting a new
// fetch cancels the context of the one it supersedes, and a result is only
// applied when its generation is still the latest for the key, so a fetcher
// that ignores cancellation still cannot overwrite newer state.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStale is returned by Run when a newer fetch for the same key was started
// before this one finished. The result was discarded, not applied.
var ErrStale = errors.New("fetch: superseded by a newer request")

// State is what a screen renders for one query key
type State[T any] struct {
	Data       T
	Err        error
	HasData    bool
	Loading    bool // only ever reflects the latest generation
	Generation uint64
	UpdatedAt  time.Time
}

type entry[T any] struct {
	latest uint64
	cancel context.CancelFunc
	state  State[T]
}

// Coordinator tracks generations and state per query key. The zero value is not usable; use NewCoordinator.
type Coordinator[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	now     func() time.Time
}

// NewCoordinator creates an empty Coordinator
func NewCoordinator[T any]() *Coordinator[T] {
	return &Coordinator[T]{
		entries: make(map[string]*entry[T]),
		now:     time.Now,
	}
}

func (c *Coordinator[T]) entry(key string) *entry[T] {
	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{}
		c.entries[key] = e
	}
	return e
}

// Begin issues the next generation for key and cancels the superseded fetch.
// The returned context is derived from ctx and is cancelled when a newer
// generation begins; callers must pass gen to Complete.
func (c *Coordinator[T]) Begin(ctx context.Context, key string) (context.Context, uint64) {
	fetchCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	if e.cancel != nil {
		e.cancel()
	}
	e.latest++
	e.cancel = cancel
	e.state.Loading = true
	return fetchCtx, e.latest
}

// Complete applies a result if gen is still the latest generation for key and
// reports whether it did. A superseded result leaves the state untouched.
func (c *Coordinator[T]) Complete(key string, gen uint64, data T, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || gen != e.latest {
		return false
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.state.Loading = false
	e.state.Generation = gen
	e.state.UpdatedAt = c.now()
	e.state.Err = err
	if err == nil {
		e.state.Data = data
		e.state.HasData = true
	}
	return true
}

// Run fetches key through fn and applies the result if it is still the latest.
// A superseded run returns ErrStale and the zero value.
func (c *Coordinator[T]) Run(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	fetchCtx, gen := c.Begin(ctx, key)
	data, err := fn(fetchCtx)
	if !c.Complete(key, gen, data, err) {
		var zero T
		return zero, ErrStale
	}
	return data, err
}

// State returns a snapshot of the state for key
func (c *Coordinator[T]) State(key string) State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.state
	}
	return State[T]{}
}

// Latest returns the latest generation issued for key, 0 if none
func (c *Coordinator[T]) Latest(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.latest
	}
	return 0
}

// Cancel aborts the in-flight fetch for key, if any. Its result will be discarded.
func (c *Coordinator[T]) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.latest++
	e.state.Loading = false
}
