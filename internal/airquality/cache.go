package airquality

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/airquality-forecast/internal/metrics"
)

const (
	// DefaultTTL is how long a snapshot is served before the next caller
	// triggers a refresh.
	DefaultTTL = 600 * time.Second

	// DefaultFetchTimeout bounds each per-country provider query.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultMaxConcurrentFetches bounds the refresh fan-out.
	DefaultMaxConcurrentFetches = 8

	refreshKey = "global-aqi"
)

// Cache serves the global AQI snapshot and refreshes it lazily once it is
// older than the TTL. At most one refresh runs at a time; stale callers that
// arrive during a refresh wait for it and share its result.
type Cache struct {
	provider  Provider
	store     SnapshotStore
	locations []Location

	ttl           time.Duration
	fetchTimeout  time.Duration
	maxConcurrent int
	clock         Clock

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) { c.fetchTimeout = d }
}

// WithMaxConcurrentFetches overrides DefaultMaxConcurrentFetches. n <= 0 means unbounded.
func WithMaxConcurrentFetches(n int) Option {
	return func(c *Cache) { c.maxConcurrent = n }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// NewCache creates a Cache for the given tracked locations. The location
// list is copied and fixed for the life of the cache.
func NewCache(provider Provider, store SnapshotStore, locations []Location, opts ...Option) *Cache {
	c := &Cache{
		provider:      provider,
		store:         store,
		locations:     append([]Location(nil), locations...),
		ttl:           DefaultTTL,
		fetchTimeout:  DefaultFetchTimeout,
		maxConcurrent: DefaultMaxConcurrentFetches,
		clock:         systemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current snapshot, refreshing it first if it is stale.
// A caller whose ctx ends while waiting gets ctx.Err(); the shared refresh
// keeps running for everyone else.
func (c *Cache) Snapshot(ctx context.Context) (Snapshot, error) {
	if snap, ok := c.fresh(); ok {
		return snap, nil
	}

	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		// Another flight may have finished between our check and this one.
		if snap, ok := c.fresh(); ok {
			return snap, nil
		}
		return c.refresh(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot).Clone(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (c *Cache) fresh() (Snapshot, bool) {
	snap, ok := c.store.Current()
	if !ok || snap.RefreshedAt.IsZero() {
		return Snapshot{}, false
	}
	if c.clock.Now().Sub(snap.RefreshedAt) >= c.ttl {
		return Snapshot{}, false
	}
	return snap, true
}

// refresh queries every tracked location once and publishes the result as a
// new snapshot. Failed countries are simply absent.
func (c *Cache) refresh(ctx context.Context) Snapshot {
	log.Printf("INFO: refreshing global AQI snapshot for %d locations", len(c.locations))
	metrics.CacheRefreshesTotal.Inc()

	var (
		mu        sync.Mutex
		countries = make(map[string]Entry, len(c.locations))
		g         errgroup.Group
	)
	if c.maxConcurrent > 0 {
		g.SetLimit(c.maxConcurrent)
	}

	for _, loc := range c.locations {
		loc := loc
		g.Go(func() error {
			reading, err := c.fetch(ctx, loc)
			if err != nil {
				// One country failing must not affect the others.
				log.Printf("WARN: %v", err)
				return nil
			}

			mu.Lock()
			countries[loc.Country] = Entry{AQI: reading.AQI}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	snap := Snapshot{Countries: countries, RefreshedAt: c.clock.Now()}
	c.store.Replace(snap)
	metrics.SnapshotCountries.Set(float64(len(countries)))

	log.Printf("INFO: global AQI snapshot refreshed: %d/%d countries", len(countries), len(c.locations))
	return snap
}

type fetchResult struct {
	reading Reading
	err     error
}

// fetch runs a single provider query under the per-country timeout. The
// timeout is enforced here even if the provider ignores ctx.
func (c *Cache) fetch(ctx context.Context, loc Location) (Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	name := c.provider.Name()
	start := time.Now()

	done := make(chan fetchResult, 1)
	go func() {
		r, err := c.provider.Fetch(ctx, loc)
		done <- fetchResult{reading: r, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = fetchResult{err: ctx.Err()}
	}
	metrics.ProviderFetchLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if res.err != nil {
		metrics.ProviderFetchesTotal.WithLabelValues(name, loc.Country, "error").Inc()
		return Reading{}, &ProviderFetchError{Country: loc.Country, Err: res.err}
	}
	metrics.ProviderFetchesTotal.WithLabelValues(name, loc.Country, "ok").Inc()
	return res.reading, nil
}
