package tool

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache deduplicates identical tool calls within one pipeline run.
// Concurrent identical calls share a single invocation and successful
// responses are replayed for later identical calls. Failures are never
// cached, so a later identical call gets a fresh attempt.
type Cache struct {
	next  Invoker
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]Response
	hits    int
}

// NewCache wraps next. A Cache is meant to live for a single run.
func NewCache(next Invoker) *Cache {
	return &Cache{
		next:    next,
		entries: make(map[string]Response),
	}
}

// Invoke returns a cached response or forwards req.
func (c *Cache) Invoke(ctx context.Context, req Request) Response {
	key, err := EncodeRequest(req)
	if err != nil {
		return c.next.Invoke(ctx, req)
	}

	c.mu.Lock()
	if resp, ok := c.entries[string(key)]; ok {
		c.hits++
		c.mu.Unlock()
		return resp
	}
	c.mu.Unlock()

	v, _, shared := c.group.Do(string(key), func() (any, error) {
		resp := c.next.Invoke(ctx, req)
		if resp.OK {
			c.mu.Lock()
			c.entries[string(key)] = resp
			c.mu.Unlock()
		}
		return resp, nil
	})
	if shared {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	}
	return v.(Response)
}

// Hits reports how many calls were answered without a fresh invocation.
// Concurrent callers that share one invocation all count as hits, the
// original caller included.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}
