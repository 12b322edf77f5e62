package airquality_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/airquality-forecast/internal/airquality"
	"github.com/i474232898/airquality-forecast/internal/store"
)

// --- Fake clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Fake provider ---

type fakeProvider struct {
	mu      sync.Mutex
	aqi     map[string]int
	fail    map[string]error
	calls   map[string]int
	total   atomic.Int32
	release chan struct{} // if set, Fetch blocks until closed
	started chan struct{} // receives once per Fetch call, if set
	hang    map[string]bool
}

func newFakeProvider(aqi map[string]int) *fakeProvider {
	return &fakeProvider{
		aqi:   aqi,
		fail:  map[string]error{},
		calls: map[string]int{},
		hang:  map[string]bool{},
	}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(ctx context.Context, loc airquality.Location) (airquality.Reading, error) {
	p.total.Add(1)
	p.mu.Lock()
	p.calls[loc.Country]++
	err := p.fail[loc.Country]
	aqi := p.aqi[loc.Country]
	hang := p.hang[loc.Country]
	p.mu.Unlock()

	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	if hang {
		<-ctx.Done()
		return airquality.Reading{}, ctx.Err()
	}
	if err != nil {
		return airquality.Reading{}, err
	}
	return airquality.Reading{ProviderName: "fake", Country: loc.Country, AQI: aqi}, nil
}

func (p *fakeProvider) setAQI(country string, aqi int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aqi[country] = aqi
}

func (p *fakeProvider) setFail(country string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.fail, country)
		return
	}
	p.fail[country] = err
}

func (p *fakeProvider) callsFor(country string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[country]
}

var testLocations = []airquality.Location{
	{Country: "EC", Latitude: -0.18, Longitude: -78.47},
	{Country: "PE", Latitude: -12.05, Longitude: -77.04},
	{Country: "CO", Latitude: 4.71, Longitude: -74.07},
}

func newTestCache(p airquality.Provider, clock *fakeClock, opts ...airquality.Option) *airquality.Cache {
	opts = append([]airquality.Option{
		airquality.WithClock(clock),
		airquality.WithFetchTimeout(200 * time.Millisecond),
	}, opts...)
	return airquality.NewCache(p, store.NewMemoryStore(10), testLocations, opts...)
}

func TestCacheServesFreshSnapshotWithoutFetching(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	p := newFakeProvider(map[string]int{"EC": 40, "PE": 60, "CO": 80})
	cache := newTestCache(p, clock)
	ctx := context.Background()

	first, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(3), p.total.Load())
	assert.Equal(t, map[string]airquality.Entry{"EC": {AQI: 40}, "PE": {AQI: 60}, "CO": {AQI: 80}}, first.Countries)
	assert.Equal(t, clock.Now(), first.RefreshedAt)

	p.setAQI("EC", 99)
	clock.Advance(airquality.DefaultTTL - time.Second)

	second, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(3), p.total.Load(), "no outbound calls within the TTL")
}

func TestCacheRefreshesOnceAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	p := newFakeProvider(map[string]int{"EC": 40, "PE": 60, "CO": 80})
	cache := newTestCache(p, clock)
	ctx := context.Background()

	_, err := cache.Snapshot(ctx)
	require.NoError(t, err)

	p.setAQI("EC", 99)
	clock.Advance(airquality.DefaultTTL)

	snap, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 99, snap.Countries["EC"].AQI)
	assert.Equal(t, int32(6), p.total.Load())
	for _, loc := range testLocations {
		assert.Equal(t, 2, p.callsFor(loc.Country), loc.Country)
	}

	// Fresh again: no more calls.
	_, err = cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(6), p.total.Load())
}

func TestCacheDropsFailedCountryOnly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	p := newFakeProvider(map[string]int{"EC": 40, "PE": 60, "CO": 80})
	cache := newTestCache(p, clock)
	ctx := context.Background()

	_, err := cache.Snapshot(ctx)
	require.NoError(t, err)

	p.setFail("PE", errors.New("upstream 503"))
	clock.Advance(airquality.DefaultTTL)

	snap, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]airquality.Entry{"EC": {AQI: 40}, "CO": {AQI: 80}}, snap.Countries,
		"failed country is omitted, not carried forward, and others are untouched")
	assert.Equal(t, 2, p.callsFor("PE"), "no retry within a cycle")

	p.setFail("PE", nil)
	clock.Advance(airquality.DefaultTTL)
	snap, err = cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, snap.Countries["PE"].AQI)
}

func TestCacheTimesOutSlowCountry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	p := newFakeProvider(map[string]int{"EC": 40, "PE": 60, "CO": 80})
	p.hang["CO"] = true
	cache := newTestCache(p, clock, airquality.WithFetchTimeout(50*time.Millisecond))

	start := time.Now()
	snap, err := cache.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, map[string]airquality.Entry{"EC": {AQI: 40}, "PE": {AQI: 60}}, snap.Countries)
	assert.Equal(t, 1, p.callsFor("CO"))
}

func TestCacheSingleFlight(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	p := newFakeProvider(map[string]int{"EC": 40, "PE": 60, "CO": 80})
	p.release = make(chan struct{})
	p.started = make(chan struct{}, 100)
	cache := newTestCache(p, clock, airquality.WithFetchTimeout(5*time.Second))

	const callers = 20
	var wg sync.WaitGroup
	results := make([]airquality.Snapshot, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Snapshot(context.Background())
		}(i)
	}

	// Wait until the refresh is in flight, then let it finish.
	<-p.started
	time.Sleep(50 * time.Millisecond)
	close(p.release)
	wg.Wait()

	assert.Equal(t, int32(len(testLocations)), p.total.Load(), "exactly one refresh cycle")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Len(t, results[i].Countries, 3)
	}
}

func TestCacheWaiterCancellationDoesNotAbortRefresh(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	p := newFakeProvider(map[string]int{"EC": 40, "PE": 60, "CO": 80})
	p.release = make(chan struct{})
	p.started = make(chan struct{}, 100)
	cache := newTestCache(p, clock, airquality.WithFetchTimeout(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := cache.Snapshot(ctx)
		errCh <- err
	}()

	<-p.started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(p.release)
	require.Eventually(t, func() bool {
		snap, err := cache.Snapshot(context.Background())
		return err == nil && len(snap.Countries) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(len(testLocations)), p.total.Load())
}
