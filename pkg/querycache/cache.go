// Package querycache keeps client-side query results tagged by scope and
// refetches exactly the scopes a mutation made stale.
package querycache

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cleanspin/laundry-ops/pkg/fetch"
)

// maxConcurrentRefetch bounds the refetches one invalidation starts
const maxConcurrentRefetch = 4

// Fetcher loads the value of one query
type Fetcher func(ctx context.Context) (interface{}, error)

type query struct {
	tags  map[Tag]struct{}
	fetch Fetcher
	stale bool
}

// Cache holds registered queries and their last results. Results go through a
// fetch.Coordinator so a slow refetch never overwrites a newer one.
type Cache struct {
	mu      sync.Mutex
	queries map[string]*query
	coord   *fetch.Coordinator[interface{}]
	logger  *logrus.Logger
}

// NewCache creates an empty cache; a nil logger uses the logrus standard logger
func NewCache(logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{
		queries: make(map[string]*query),
		coord:   fetch.NewCoordinator[interface{}](),
		logger:  logger,
	}
}

// Register adds or replaces the query under key with its scope tags.
// It is not fetched until Load or a matching Invalidate.
func (c *Cache) Register(key string, fn Fetcher, tags ...Tag) {
	set := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries[key] = &query{tags: set, fetch: fn, stale: true}
}

// Unregister drops key and aborts its in-flight fetch
func (c *Cache) Unregister(key string) {
	c.mu.Lock()
	delete(c.queries, key)
	c.mu.Unlock()
	c.coord.Cancel(key)
}

// Load fetches key now. fetch.ErrStale means a newer load for key superseded this one.
func (c *Cache) Load(ctx context.Context, key string) (interface{}, error) {
	c.mu.Lock()
	q, ok := c.queries[key]
	c.mu.Unlock()
	if !ok {
		return nil, errors.New("querycache: unknown query " + key)
	}

	data, err := c.coord.Run(ctx, key, q.fetch)
	if err == nil {
		c.mu.Lock()
		if cur, ok := c.queries[key]; ok && cur == q {
			cur.stale = false
		}
		c.mu.Unlock()
	}
	return data, err
}

// State returns the last applied result of key and whether it is stale
func (c *Cache) State(key string) (fetch.State[interface{}], bool) {
	c.mu.Lock()
	q, ok := c.queries[key]
	stale := !ok || q.stale
	c.mu.Unlock()
	return c.coord.State(key), stale
}

// Keys returns the registered query keys carrying any of tags, sorted
func (c *Cache) Keys(tags ...Tag) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matching(tags)
}

func (c *Cache) matching(tags []Tag) []string {
	var keys []string
	for key, q := range c.queries {
		for _, t := range tags {
			if _, ok := q.tags[t]; ok {
				keys = append(keys, key)
				break
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Invalidate marks every query carrying one of tags stale and refetches them
// concurrently. Unrelated queries are untouched. It returns the refetched keys
// and the first refetch error; superseded refetches are not errors.
func (c *Cache) Invalidate(ctx context.Context, tags ...Tag) ([]string, error) {
	c.mu.Lock()
	keys := c.matching(tags)
	for _, key := range keys {
		c.queries[key].stale = true
	}
	c.mu.Unlock()

	if len(keys) == 0 {
		return nil, nil
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentRefetch)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			_, err := c.Load(ctx, key)
			if errors.Is(err, fetch.ErrStale) {
				c.logger.WithField("query", key).Debug("Discarded superseded refetch")
				return nil
			}
			return err
		})
	}
	err := g.Wait()
	if err != nil {
		c.logger.WithError(err).WithField("tags", tags).Warn("Refetch after invalidation failed")
	}
	return keys, err
}
