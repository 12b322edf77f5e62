package forecast

import (
	"fmt"
	"log"

	"github.com/i474232898/airquality-forecast/internal/geo"
	"github.com/i474232898/airquality-forecast/internal/model"
)

// Load reads the model bundle and reference city dataset and returns a ready
// Service. Any error here means the process must not serve predictions.
func Load(bundlePath, citiesPath string) (*Service, error) {
	bundle, err := model.LoadBundle(bundlePath)
	if err != nil {
		return nil, err
	}
	chain, err := model.NewChain(bundle)
	if err != nil {
		return nil, fmt.Errorf("model bundle %s: %w", bundlePath, err)
	}

	cities, err := geo.LoadCities(citiesPath)
	if err != nil {
		return nil, err
	}
	resolver, err := geo.NewResolver(cities)
	if err != nil {
		return nil, fmt.Errorf("city index %s: %w", citiesPath, err)
	}

	log.Printf("INFO: loaded model bundle %s and %d reference cities from %s", bundlePath, resolver.Len(), citiesPath)
	return NewService(resolver, chain), nil
}
