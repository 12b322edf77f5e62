package model

import (
	"fmt"
	"math"

	"github.com/i474232898/airquality-forecast/internal/common"
)

// Imputer replaces missing (NaN) base features with per-feature statistics
// learned at training time (mean, median, ...).
type Imputer struct {
	Strategy   string    `json:"strategy"`
	Statistics []float64 `json:"statistics"`
}

// Transform fills missing values in x in place.
func (imp Imputer) Transform(x []float64) error {
	if len(x) != len(imp.Statistics) {
		return fmt.Errorf("imputer expects %d features, got %d", len(imp.Statistics), len(x))
	}
	for i, v := range x {
		if math.IsNaN(v) {
			x[i] = imp.Statistics[i]
		}
	}
	return nil
}

func (imp Imputer) validate(width int) error {
	if len(imp.Statistics) != width {
		return fmt.Errorf("imputer has %d statistics for %d base features", len(imp.Statistics), width)
	}
	if !common.AllFinite(imp.Statistics...) {
		return fmt.Errorf("imputer statistics must be finite")
	}
	return nil
}
