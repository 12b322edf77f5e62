package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/airquality-forecast/internal/metrics"
	"github.com/i474232898/airquality-forecast/internal/model"
)

// PopulationResolver maps coordinates to the population of the nearest
// reference city.
type PopulationResolver interface {
	NearestPopulation(lon, lat float64) (float64, error)
}

// Predictor runs the two-stage model for one location.
type Predictor interface {
	Predict(lat, lon, population float64) (model.Pollutants, error)
}

// Service composes population lookup and model inference into a single
// request. It holds no mutable state and is safe for concurrent use.
type Service struct {
	resolver PopulationResolver
	chain    Predictor
}

// NewService creates a new Service.
func NewService(resolver PopulationResolver, chain Predictor) *Service {
	return &Service{
		resolver: resolver,
		chain:    chain,
	}
}

// Predict returns the forecast-year prediction for (lat, lon). Bad input
// yields a *ValidationError; everything else is an inference failure.
func (s *Service) Predict(ctx context.Context, lat, lon float64) (Prediction, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		metrics.PredictionsTotal.WithLabelValues("invalid").Inc()
		return Prediction{}, err
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	start := time.Now()
	defer func() {
		metrics.PredictionLatency.Observe(time.Since(start).Seconds())
	}()

	pop, err := s.resolver.NearestPopulation(lon, lat)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues("error").Inc()
		return Prediction{}, &model.InferenceError{
			Latitude:  lat,
			Longitude: lon,
			Stage:     model.StageFeatures,
			Err:       fmt.Errorf("resolve population: %w", err),
		}
	}

	p, err := s.chain.Predict(lat, lon, pop)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues("error").Inc()
		return Prediction{}, err
	}

	metrics.PredictionsTotal.WithLabelValues("ok").Inc()
	return Prediction{
		Year:  model.ForecastYear,
		PM25:  p.PM25,
		PM10:  p.PM10,
		NO2:   p.NO2,
		Units: Units,
	}, nil
}
