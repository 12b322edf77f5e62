package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/i474232898/airquality-forecast/internal/config"
	"github.com/i474232898/airquality-forecast/internal/forecast"
)

// Guayaquil, Ecuador.
const (
	defaultLat = -2.17
	defaultLon = -79.92
)

func main() {
	modelPath := flag.String("model", "", "path to model bundle (default MODEL_BUNDLE_PATH)")
	citiesPath := flag.String("cities", "", "path to city index CSV (default CITY_INDEX_PATH)")
	lat := flag.Float64("lat", defaultLat, "latitude")
	lon := flag.Float64("lon", defaultLon, "longitude")
	flag.Parse()

	cfg, err := config.LoadInputs()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *modelPath != "" {
		cfg.ModelBundlePath = *modelPath
	}
	if *citiesPath != "" {
		cfg.CityIndexPath = *citiesPath
	}

	svc, err := forecast.Load(cfg.ModelBundlePath, cfg.CityIndexPath)
	if err != nil {
		log.Fatalf("failed to load prediction inputs: %v", err)
	}

	p, err := svc.Predict(context.Background(), *lat, *lon)
	if err != nil {
		log.Fatalf("prediction failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		log.Fatalf("write result: %v", err)
	}
}
