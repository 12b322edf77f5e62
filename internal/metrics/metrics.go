package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqforecast_predictions_total",
			Help: "Total prediction requests by outcome",
		},
		[]string{"status"},
	)

	PredictionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aqforecast_prediction_latency_seconds",
			Help:    "Time spent resolving population and running the model chain",
			Buckets: prometheus.DefBuckets,
		},
	)

	ProviderFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqforecast_provider_fetches_total",
			Help: "Total air-quality provider queries by country and outcome",
		},
		[]string{"provider", "country", "status"},
	)

	ProviderFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aqforecast_provider_fetch_latency_seconds",
			Help:    "Air-quality provider query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CacheRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aqforecast_aqi_cache_refreshes_total",
			Help: "Total global AQI snapshot refresh cycles",
		},
	)

	SnapshotCountries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aqforecast_aqi_snapshot_countries",
			Help: "Countries present in the current global AQI snapshot",
		},
	)
)
