package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/i474232898/airquality-forecast/internal/common"
)

// Years fed to the two stages: the seed stage synthesises the prior year so
// its output can act as lag features for the forecast year.
const (
	SeedYear     = 2025
	ForecastYear = 2026
)

// Base feature names as recorded in the bundle.
const (
	FeatureYear       = "year"
	FeatureLatitude   = "latitude"
	FeatureLongitude  = "longitude"
	FeaturePopulation = "population"
)

// Pollutant keys used for targets and lag feature names.
const (
	PollutantPM25 = "pm25"
	PollutantPM10 = "pm10"
	PollutantNO2  = "no2"
)

// DefaultTargets is the output order assumed when a bundle omits "targets".
var DefaultTargets = []string{PollutantPM25, PollutantPM10, PollutantNO2}

// ErrConfig marks a bundle that cannot be served. It is always fatal.
var ErrConfig = errors.New("invalid model bundle")

// Pollutants is one joint prediction in µg/m³.
type Pollutants struct {
	PM25 float64
	PM10 float64
	NO2  float64
}

// baseVector holds year, latitude, longitude, population in that order.
type baseVector [4]float64

// pollutantVector holds pm25, pm10, no2 in that order.
type pollutantVector [3]float64

func (p pollutantVector) pollutants() Pollutants {
	return Pollutants{PM25: p[0], PM10: p[1], NO2: p[2]}
}

var baseSlots = map[string]int{
	FeatureYear:       0,
	FeatureLatitude:   1,
	FeatureLongitude:  2,
	FeaturePopulation: 3,
}

var pollutantSlots = []string{PollutantPM25, PollutantPM10, PollutantNO2}

// pollutantSlot maps "pm25", "pm25_lag1" or "pm25_concentration_lag1" to
// its pollutantVector index.
func pollutantSlot(name string) (int, bool) {
	name = strings.ToLower(name)
	for i, key := range pollutantSlots {
		if name == key || strings.HasPrefix(name, key+"_") {
			return i, true
		}
	}
	return 0, false
}

// Chain runs the seed and main models in sequence. All index tables are
// resolved once in NewChain, so Predict never looks up names.
type Chain struct {
	seed    Regressor
	main    Regressor
	imputer Imputer

	baseOrder   []int // model input position -> baseVector slot
	lagOrder    []int // lag position -> pollutantVector slot
	targetOrder []int // model output position -> pollutantVector slot
}

// NewChain checks that the bundle's feature lists line up with both models
// and precomputes the input layout. Any mismatch wraps ErrConfig.
func NewChain(b *Bundle) (*Chain, error) {
	if b == nil || b.Seed == nil || b.Main == nil {
		return nil, fmt.Errorf("%w: seed and main models are required", ErrConfig)
	}

	for name, m := range map[string]Regressor{"seed": b.Seed, "main": b.Main} {
		if v, ok := m.(shapeValidator); ok {
			if err := v.validate(); err != nil {
				return nil, fmt.Errorf("%w: %s model: %v", ErrConfig, name, err)
			}
		}
	}

	baseOrder, err := resolveBase(b.BaseFeatures)
	if err != nil {
		return nil, err
	}
	lagOrder, err := resolvePollutants("lag feature", b.LagFeatures)
	if err != nil {
		return nil, err
	}
	targets := b.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	targetOrder, err := resolvePollutants("target", targets)
	if err != nil {
		return nil, err
	}

	if err := b.Imputer.validate(len(baseOrder)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if got, want := b.Seed.NumFeatures(), len(baseOrder); got != want {
		return nil, fmt.Errorf("%w: seed model takes %d features, bundle lists %d base features", ErrConfig, got, want)
	}
	if got, want := b.Main.NumFeatures(), len(baseOrder)+len(lagOrder); got != want {
		return nil, fmt.Errorf("%w: main model takes %d features, bundle lists %d base + %d lag features",
			ErrConfig, got, len(baseOrder), len(lagOrder))
	}
	for name, m := range map[string]Regressor{"seed": b.Seed, "main": b.Main} {
		if m.NumOutputs() != len(targetOrder) {
			return nil, fmt.Errorf("%w: %s model predicts %d outputs, want %d", ErrConfig, name, m.NumOutputs(), len(targetOrder))
		}
	}

	return &Chain{
		seed:        b.Seed,
		main:        b.Main,
		imputer:     b.Imputer,
		baseOrder:   baseOrder,
		lagOrder:    lagOrder,
		targetOrder: targetOrder,
	}, nil
}

// shapeValidator is implemented by the built-in regressors, whose internal
// shape can be inconsistent when a Bundle is assembled by hand.
type shapeValidator interface {
	validate() error
}

func resolveBase(names []string) ([]int, error) {
	if len(names) != len(baseSlots) {
		return nil, fmt.Errorf("%w: want %d base features, bundle lists %d", ErrConfig, len(baseSlots), len(names))
	}
	order := make([]int, len(names))
	seen := make(map[int]bool, len(names))
	for i, name := range names {
		slot, ok := baseSlots[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown base feature %q", ErrConfig, name)
		}
		if seen[slot] {
			return nil, fmt.Errorf("%w: duplicate base feature %q", ErrConfig, name)
		}
		seen[slot] = true
		order[i] = slot
	}
	return order, nil
}

// resolvePollutants requires names to be a permutation of pm25, pm10, no2.
func resolvePollutants(kind string, names []string) ([]int, error) {
	if len(names) != len(pollutantSlots) {
		return nil, fmt.Errorf("%w: want %d %ss, bundle lists %d", ErrConfig, len(pollutantSlots), kind, len(names))
	}
	order := make([]int, len(names))
	seen := make(map[int]bool, len(names))
	for i, name := range names {
		slot, ok := pollutantSlot(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q names no known pollutant", ErrConfig, kind, name)
		}
		if seen[slot] {
			return nil, fmt.Errorf("%w: %s %q duplicates pollutant %s", ErrConfig, kind, name, pollutantSlots[slot])
		}
		seen[slot] = true
		order[i] = slot
	}
	return order, nil
}

// Predict runs both stages for a single location and returns the forecast
// year's pollutant concentrations.
func (c *Chain) Predict(lat, lon, population float64) (Pollutants, error) {
	fail := func(stage string, err error) (Pollutants, error) {
		return Pollutants{}, &InferenceError{Latitude: lat, Longitude: lon, Stage: stage, Err: err}
	}

	if !common.AllFinite(lat, lon) {
		return fail(StageFeatures, errors.New("coordinates must be finite"))
	}

	seedIn, err := c.baseFeatures(baseVector{SeedYear, lat, lon, population}, 0)
	if err != nil {
		return fail(StageFeatures, err)
	}
	lags, err := c.evaluate(c.seed, seedIn)
	if err != nil {
		return fail(StageSeed, err)
	}

	mainIn, err := c.baseFeatures(baseVector{ForecastYear, lat, lon, population}, len(c.lagOrder))
	if err != nil {
		return fail(StageFeatures, err)
	}
	for _, slot := range c.lagOrder {
		mainIn = append(mainIn, lags[slot])
	}
	out, err := c.evaluate(c.main, mainIn)
	if err != nil {
		return fail(StageMain, err)
	}

	return out.pollutants(), nil
}

// baseFeatures lays out v in bundle order and applies the imputer. extra
// reserves capacity for the lag features appended by the caller.
func (c *Chain) baseFeatures(v baseVector, extra int) ([]float64, error) {
	x := make([]float64, len(c.baseOrder), len(c.baseOrder)+extra)
	for i, slot := range c.baseOrder {
		x[i] = v[slot]
	}
	if err := c.imputer.Transform(x); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *Chain) evaluate(m Regressor, x []float64) (pollutantVector, error) {
	var out pollutantVector
	y, err := m.Predict(x)
	if err != nil {
		return out, err
	}
	if len(y) != len(c.targetOrder) {
		return out, fmt.Errorf("model returned %d outputs, want %d", len(y), len(c.targetOrder))
	}
	if !common.AllFinite(y...) {
		return out, fmt.Errorf("model returned non-finite output %v", y)
	}
	for j, slot := range c.targetOrder {
		out[slot] = y[j]
	}
	return out, nil
}
