package geo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// City is a single row of the reference dataset.
type City struct {
	Latitude   float64
	Longitude  float64
	Population float64 // NaN when the dataset has no value
}

// Column names recognised in the reference CSV header.
const (
	columnLatitude         = "latitude"
	columnLongitude        = "longitude"
	columnLatestPopulation = "latest_population"
	columnPopulation       = "population"
)

// LoadCities reads the reference dataset from a CSV file on disk.
func LoadCities(path string) ([]City, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open city index %s: %w", path, err)
	}
	defer f.Close()

	cities, err := ReadCities(f)
	if err != nil {
		return nil, fmt.Errorf("read city index %s: %w", path, err)
	}
	return cities, nil
}

// ReadCities parses a CSV stream with a header row. Columns are located by
// name so extra columns (city name, country, ...) are ignored. Rows keep the
// order in which they appear.
func ReadCities(r io.Reader) ([]City, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, err
	}

	latIdx, lonIdx, popIdx := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case columnLatitude:
			latIdx = i
		case columnLongitude:
			lonIdx = i
		case columnLatestPopulation:
			popIdx = i
		case columnPopulation:
			if popIdx == -1 {
				popIdx = i
			}
		}
	}
	if latIdx == -1 || lonIdx == -1 || popIdx == -1 {
		return nil, fmt.Errorf("header must contain %q, %q and %q (or %q) columns",
			columnLatitude, columnLongitude, columnLatestPopulation, columnPopulation)
	}

	var cities []City
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		lat, err := parseCoordinate(rec[latIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := parseCoordinate(rec[lonIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		pop, err := parsePopulation(rec[popIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: population: %w", line, err)
		}

		cities = append(cities, City{Latitude: lat, Longitude: lon, Population: pop})
	}

	return cities, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// parsePopulation treats an empty cell as missing so the model imputer can
// fill it later.
func parsePopulation(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
