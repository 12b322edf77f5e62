package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/airquality-forecast/internal/airquality"
	"github.com/i474232898/airquality-forecast/internal/forecast"
	"github.com/i474232898/airquality-forecast/internal/store"
)

var validate = validator.New()

// Predictor produces a forecast for a coordinate pair.
type Predictor interface {
	Predict(ctx context.Context, lat, lon float64) (forecast.Prediction, error)
}

// SnapshotSource serves the global AQI snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (airquality.Snapshot, error)
}

// RefreshHistory lists past AQI refreshes.
type RefreshHistory interface {
	History() []store.RefreshRecord
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. history may be nil.
func RegisterRoutes(app *fiber.App, predictor Predictor, aqi SnapshotSource, history RefreshHistory) {
	app.Get("/predict", func(c *fiber.Ctx) error {
		q, err := parsePredictQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		p, err := predictor.Predict(c.UserContext(), q.lat, q.lon)
		if err != nil {
			var verr *forecast.ValidationError
			if errors.As(err, &verr) {
				return fiber.NewError(fiber.StatusBadRequest, verr.Error())
			}
			log.Printf("ERROR: prediction failed for lat=%s lon=%s: %v", q.Lat, q.Lon, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute prediction")
		}

		return c.JSON(p)
	})

	app.Get("/global-aqi", func(c *fiber.Ctx) error {
		snap, err := aqi.Snapshot(c.UserContext())
		if err != nil {
			log.Printf("ERROR: global AQI snapshot unavailable: %v", err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "global air quality is temporarily unavailable")
		}

		countries := snap.Countries
		if countries == nil {
			countries = map[string]airquality.Entry{}
		}
		return c.JSON(countries)
	})

	if history != nil {
		app.Get("/global-aqi/refreshes", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"refreshes": history.History(),
			})
		})
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
// Errors that are not *fiber.Error are reported as a generic 500 so internal
// details never reach the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("ERROR: unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// predictQuery holds the raw query parameters of /predict. Whether a value
// is numeric is left to strconv.ParseFloat, so forms like "1e-7" and ".5"
// are accepted.
type predictQuery struct {
	Lat string `validate:"required"`
	Lon string `validate:"required"`

	lat float64
	lon float64
}

func parsePredictQuery(c *fiber.Ctx) (predictQuery, error) {
	var q predictQuery

	q.Lat = strings.TrimSpace(c.Query("lat"))
	q.Lon = strings.TrimSpace(c.Query("lon"))

	if err := validate.Struct(q); err != nil {
		return q, errors.New("lat and lon query parameters are required")
	}

	var err error
	if q.lat, err = strconv.ParseFloat(q.Lat, 64); err != nil {
		return q, errors.New("lat must be a number")
	}
	if q.lon, err = strconv.ParseFloat(q.Lon, 64); err != nil {
		return q, errors.New("lon must be a number")
	}

	// NaN and Inf parse but are not coordinates.
	if err := forecast.ValidateCoordinates(q.lat, q.lon); err != nil {
		return q, err
	}
	return q, nil
}
