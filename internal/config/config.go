package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/airquality-forecast/internal/airquality"
)

var validate = validator.New()

// InputsConfig names the files a prediction needs. The offline CLI reads
// only this part, so it runs without an AQI key.
type InputsConfig struct {
	ModelBundlePath string `envconfig:"MODEL_BUNDLE_PATH" default:"data/modelo_aire_2026.json.gz" validate:"required"`
	CityIndexPath   string `envconfig:"CITY_INDEX_PATH" default:"data/city_index.csv" validate:"required"`
}

type AppConfig struct {
	// AQIAPIKey is the WAQI token. The process refuses to start without it.
	AQIAPIKey  string `envconfig:"AQI_API_KEY" validate:"required"`
	AQIBaseURL string `envconfig:"AQI_BASE_URL" default:"https://api.waqi.info/feed" validate:"required,url"`

	// Startup inputs.
	InputsConfig

	// Global AQI cache.
	AQICacheTTL        time.Duration `envconfig:"AQI_CACHE_TTL" default:"10m" validate:"gt=0"`
	AQIFetchTimeout    time.Duration `envconfig:"AQI_FETCH_TIMEOUT" default:"10s" validate:"gt=0"`
	AQIMaxConcurrency  int           `envconfig:"AQI_MAX_CONCURRENCY" default:"8" validate:"gte=1"`
	AQIPrewarmInterval time.Duration `envconfig:"AQI_PREWARM_INTERVAL" default:"0s" validate:"gte=0"` // 0 disables
	AQIHistorySize     int           `envconfig:"AQI_HISTORY_SIZE" default:"144" validate:"gte=0"`
	AQILocationsRaw    string        `envconfig:"AQI_LOCATIONS"`

	// Locations to track, one per country.
	Locations []airquality.Location `ignored:"true" validate:"required,min=1,dive"`

	Port string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
}

// Load reads configuration from the environment (and .env, if present),
// applies defaults and validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	locs := DefaultLocations
	if cfg.AQILocationsRaw != "" {
		parsed, err := ParseLocations(cfg.AQILocationsRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid AQI_LOCATIONS: %w", err)
		}
		locs = parsed
	}
	cfg.Locations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadInputs reads just the model bundle and city index paths.
func LoadInputs() (*InputsConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &InputsConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ParseLocations parses "CC:lat:lon" entries separated by commas, e.g.
// "EC:-0.18:-78.47,PE:-12.05:-77.04". Country codes must be unique.
func ParseLocations(s string) ([]airquality.Location, error) {
	var locs []airquality.Location
	seen := make(map[string]bool)

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("entry %q: want COUNTRY:LAT:LON", item)
		}

		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		if seen[code] {
			return nil, fmt.Errorf("entry %q: duplicate country %s", item, code)
		}
		seen[code] = true

		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: latitude: %w", item, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: longitude: %w", item, err)
		}

		loc := airquality.Location{Country: code, Latitude: lat, Longitude: lon}
		if err := validate.Struct(loc); err != nil {
			return nil, fmt.Errorf("entry %q: %w", item, err)
		}
		locs = append(locs, loc)
	}

	if len(locs) == 0 {
		return nil, fmt.Errorf("no locations given")
	}
	return locs, nil
}
