package forecast

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/airquality-forecast/internal/common"
)

var validate = validator.New()

// ValidationError reports unusable request coordinates. It maps to a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type coordinates struct {
	Lat float64 `validate:"latitude"`
	Lon float64 `validate:"longitude"`
}

// ValidateCoordinates checks that lat/lon are finite and on the globe.
func ValidateCoordinates(lat, lon float64) error {
	if !common.AllFinite(lat) {
		return &ValidationError{Field: "lat", Reason: "must be a finite number"}
	}
	if !common.AllFinite(lon) {
		return &ValidationError{Field: "lon", Reason: "must be a finite number"}
	}

	if err := validate.Struct(coordinates{Lat: lat, Lon: lon}); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Lat":
				return &ValidationError{Field: "lat", Reason: "must be between -90 and 90"}
			case "Lon":
				return &ValidationError{Field: "lon", Reason: "must be between -180 and 180"}
			}
		}
		return &ValidationError{Field: "coordinates", Reason: err.Error()}
	}
	return nil
}
