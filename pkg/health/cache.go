package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LookoutProject/lookout/pkg/clock"
)

// allKey caches RunAll separately from the per-level reports.
const allKey = "all"

// Cache wraps a Runner and serves recent reports for a short TTL, so
// check cost stays bounded when probes arrive faster than checks are
// worth re-running. Concurrent cache misses for the same level share a
// single underlying execution.
//
// A TTL of zero disables caching and passes every call through.
type Cache struct {
	runner Runner
	ttl    time.Duration
	clock  clock.Clock

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	report Report
	at     time.Time
}

// NewCache creates a caching wrapper around runner. If clk is nil the
// real clock is used.
func NewCache(runner Runner, ttl time.Duration, clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.Real()
	}
	return &Cache{
		runner:  runner,
		ttl:     ttl,
		clock:   clk,
		entries: make(map[string]cacheEntry),
	}
}

// RunLevel returns a cached report for the level when one is fresh,
// otherwise runs the checks and caches the outcome.
func (c *Cache) RunLevel(ctx context.Context, level Level) Report {
	return c.run(string(level), func() Report {
		return c.runner.RunLevel(ctx, level)
	})
}

// RunAll returns a cached full report when one is fresh, otherwise runs
// all levels and caches the outcome.
func (c *Cache) RunAll(ctx context.Context) Report {
	return c.run(allKey, func() Report {
		return c.runner.RunAll(ctx)
	})
}

func (c *Cache) run(key string, fn func() Report) Report {
	if c.ttl <= 0 {
		return fn()
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	fresh := ok && c.clock.Since(entry.at) < c.ttl
	c.mu.Unlock()
	if fresh {
		return entry.report
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		report := fn()
		c.mu.Lock()
		c.entries[key] = cacheEntry{report: report, at: c.clock.Now()}
		c.mu.Unlock()
		return report, nil
	})
	return v.(Report)
}
