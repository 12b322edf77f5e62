package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/airquality-forecast/internal/airquality"
)

// DefaultWAQIBaseURL is the World Air Quality Index feed endpoint.
const DefaultWAQIBaseURL = "https://api.waqi.info/feed"

var (
	errNoAPIKey    = errors.New("waqi api token is not configured")
	errNoReading   = errors.New("station reports no aqi value")
	errStatusNotOK = errors.New("waqi returned an error status")
)

// WAQIProvider implements airquality.Provider for the WAQI geo feed.
type WAQIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewWAQIProvider builds a provider against baseURL (DefaultWAQIBaseURL when
// empty). Queries are never retried: a failed country waits for the next
// refresh cycle.
func NewWAQIProvider(client *http.Client, apiKey, baseURL string) *WAQIProvider {
	if baseURL == "" {
		baseURL = DefaultWAQIBaseURL
	}
	return &WAQIProvider{
		name:    "waqi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuitBreaker("waqi"),
	}
}

func (p *WAQIProvider) Name() string {
	return p.name
}

func (p *WAQIProvider) Fetch(ctx context.Context, loc airquality.Location) (airquality.Reading, error) {
	if p.apiKey == "" {
		return airquality.Reading{}, errNoAPIKey
	}

	values := url.Values{}
	values.Set("token", p.apiKey)

	u := fmt.Sprintf("%s/geo:%f;%f/?%s", p.baseURL, loc.Latitude, loc.Longitude, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return airquality.Reading{}, err
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return airquality.Reading{}, err
	}
	defer resp.Body.Close()

	// data is an object on success and a message string on error.
	var payload struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.Reading{}, fmt.Errorf("decode waqi response: %w", err)
	}
	if payload.Status != "ok" {
		var msg string
		_ = json.Unmarshal(payload.Data, &msg)
		return airquality.Reading{}, fmt.Errorf("%w: %s %s", errStatusNotOK, payload.Status, msg)
	}

	var data struct {
		AQI  json.RawMessage `json:"aqi"`
		City struct {
			Name string `json:"name"`
		} `json:"city"`
		Time struct {
			ISO string `json:"iso"`
		} `json:"time"`
	}
	if err := json.Unmarshal(payload.Data, &data); err != nil {
		return airquality.Reading{}, fmt.Errorf("decode waqi data: %w", err)
	}

	// Stations without a current value report "-" instead of a number.
	var aqi int
	if err := json.Unmarshal(data.AQI, &aqi); err != nil {
		return airquality.Reading{}, fmt.Errorf("%w: %s", errNoReading, string(data.AQI))
	}

	ts, err := time.Parse(time.RFC3339, data.Time.ISO)
	if err != nil {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	return airquality.Reading{
		ProviderName: p.name,
		Country:      loc.Country,
		AQI:          aqi,
		Station:      data.City.Name,
		ObservedAt:   ts,
	}, nil
}
