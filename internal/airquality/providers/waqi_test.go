package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/airquality-forecast/internal/airquality"
)

var quito = airquality.Location{Country: "EC", Latitude: -0.18, Longitude: -78.47}

func newWAQIServer(t *testing.T, status int, body string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		assert.True(t, strings.HasPrefix(r.URL.Path, "/feed/geo:-0.180000;-78.470000"), r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWAQIProviderFetch(t *testing.T) {
	body := `{"status":"ok","data":{"aqi":57,"city":{"name":"Quito, Ecuador"},"time":{"iso":"2026-10-15T10:00:00-05:00"}}}`
	srv := newWAQIServer(t, http.StatusOK, body, nil)

	p := NewWAQIProvider(srv.Client(), "secret", srv.URL+"/feed/")
	r, err := p.Fetch(context.Background(), quito)
	require.NoError(t, err)

	assert.Equal(t, "waqi", r.ProviderName)
	assert.Equal(t, "EC", r.Country)
	assert.Equal(t, 57, r.AQI)
	assert.Equal(t, "Quito, Ecuador", r.Station)
	assert.Equal(t, time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC), r.ObservedAt)
}

func TestWAQIProviderErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"error status", http.StatusOK, `{"status":"error","data":"Invalid key"}`},
		{"no reading", http.StatusOK, `{"status":"ok","data":{"aqi":"-"}}`},
		{"malformed", http.StatusOK, `{"status":`},
		{"server error", http.StatusInternalServerError, ``},
		{"rate limited", http.StatusTooManyRequests, ``},
		{"not found", http.StatusNotFound, ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := newWAQIServer(t, tc.status, tc.body, &calls)

			p := NewWAQIProvider(srv.Client(), "secret", srv.URL+"/feed")
			_, err := p.Fetch(context.Background(), quito)
			assert.Error(t, err)
			assert.Equal(t, int32(1), calls.Load(), "queries are not retried")
		})
	}
}

func TestWAQIProviderRequiresKey(t *testing.T) {
	p := NewWAQIProvider(http.DefaultClient, "", "")
	_, err := p.Fetch(context.Background(), quito)
	assert.ErrorIs(t, err, errNoAPIKey)
}

func TestWAQIProviderHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := NewWAQIProvider(srv.Client(), "secret", srv.URL+"/feed")
	start := time.Now()
	_, err := p.Fetch(ctx, quito)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDoRequestDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = doRequest(context.Background(), srv.Client(), newCircuitBreaker("test"), req)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoRequestStatusErrors(t *testing.T) {
	cases := map[int]error{
		http.StatusTooManyRequests: errRateLimited,
		http.StatusBadGateway:      errServerError,
		http.StatusNotFound:        errUnexpected,
	}
	for status, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		_, err = doRequest(context.Background(), srv.Client(), newCircuitBreaker("test"), req)
		assert.ErrorIs(t, err, want, "status %d", status)
		srv.Close()
	}
}

func TestDoRequestCircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	// Default gobreaker settings trip after more than 5 consecutive failures.
	cb := newCircuitBreaker("test")
	var err error
	for i := 0; i < 7; i++ {
		req, rerr := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, rerr)
		_, err = doRequest(context.Background(), srv.Client(), cb, req)
	}
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(6), calls.Load())
}

func TestDoRequestNeedsClient(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)

	_, err = doRequest(context.Background(), nil, newCircuitBreaker("test"), req)
	assert.ErrorIs(t, err, errNoHTTPClient)
}
