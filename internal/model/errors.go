package model

import "fmt"

// Inference stages reported in InferenceError.
const (
	StageFeatures = "features"
	StageSeed     = "seed"
	StageMain     = "main"
)

// InferenceError is returned when a prediction cannot be produced for a
// location. No partial result accompanies it.
type InferenceError struct {
	Latitude  float64
	Longitude float64
	Stage     string
	Err       error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model inference failed at %s stage for lat=%g lon=%g: %v", e.Stage, e.Latitude, e.Longitude, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
