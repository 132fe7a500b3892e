package termindex

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/takaryo1010/termlink/internal/ports"
)

// DefaultTTL is how long a snapshot stays fresh without an explicit
// invalidation.
const DefaultTTL = 5 * time.Minute

// Cache holds the current snapshot and rebuilds it when stale.
//
// Readers load the published pointer and never observe a snapshot under
// construction: a rebuild compiles a new snapshot off to the side and swaps
// it in. Concurrent misses share one rebuild.
type Cache struct {
	source ports.WhitelistSource
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the freshness window. Zero disables expiry, leaving
// Invalidate as the only trigger.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLogger sets the logger used for rebuild events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache returns a cache over source. Nothing is loaded until the first Get.
func NewCache(source ports.WhitelistSource, opts ...Option) *Cache {
	c := &Cache{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.version.Store(1)
	return c
}

// Get returns the current snapshot, rebuilding it first if it was
// invalidated or has expired. A build failure is returned as is; the
// previous snapshot stays published but is not returned.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if snap := c.current.Load(); c.fresh(snap) {
		cacheRequests.WithLabelValues("hit").Inc()
		return snap, nil
	}
	cacheRequests.WithLabelValues("miss").Inc()

	res, err, _ := c.group.Do("build", func() (any, error) {
		if snap := c.current.Load(); c.fresh(snap) {
			return snap, nil
		}
		return c.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Snapshot), nil
}

// Invalidate marks the current snapshot stale. The next Get rebuilds.
func (c *Cache) Invalidate() {
	v := c.version.Add(1)
	c.logger.Debug("term index invalidated", "version", v)
}

// Version returns the invalidation counter a fresh snapshot must carry.
func (c *Cache) Version() uint64 {
	return c.version.Load()
}

func (c *Cache) fresh(snap *Snapshot) bool {
	if snap == nil || snap.Version != c.version.Load() {
		return false
	}
	return c.ttl <= 0 || c.now().Sub(snap.BuiltAt) < c.ttl
}

func (c *Cache) rebuild(ctx context.Context) (*Snapshot, error) {
	version := c.version.Load()
	start := time.Now()

	entries, aliases, err := c.source.LoadWhitelist(ctx)
	if err != nil {
		buildTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load whitelist: %w", err)
	}

	snap, err := Build(entries, aliases)
	if err != nil {
		buildTotal.WithLabelValues("error").Inc()
		c.logger.Error("term index build rejected", "version", version, "error", err)
		return nil, fmt.Errorf("build term index: %w", err)
	}
	snap.Version = version
	snap.BuiltAt = c.now()

	c.current.Store(snap)

	elapsed := time.Since(start)
	buildTotal.WithLabelValues("ok").Inc()
	buildDuration.Observe(elapsed.Seconds())
	indexedPatterns.Set(float64(snap.Len()))
	c.logger.Info("term index rebuilt",
		slog.Uint64("version", version),
		slog.Int("patterns", snap.Len()),
		slog.Duration("duration", elapsed),
	)
	return snap, nil
}

// StaticSource serves a fixed whitelist. Useful for embedding hosts that
// already hold the rows, and for tests.
type StaticSource struct {
	Entries []ports.Entry
	Aliases []ports.Alias
}

// LoadWhitelist implements ports.WhitelistSource.
func (s StaticSource) LoadWhitelist(_ context.Context) ([]ports.Entry, []ports.Alias, error) {
	return s.Entries, s.Aliases, nil
}
