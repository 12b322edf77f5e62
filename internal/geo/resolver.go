package geo

import "errors"

// ErrNotFound is returned when there is no reference city to resolve against.
var ErrNotFound = errors.New("reference city dataset is empty")

// Resolver answers nearest-city queries over an immutable reference dataset.
// It is safe for concurrent use.
type Resolver struct {
	cities []City
}

// NewResolver copies cities into a new Resolver. An empty dataset is rejected
// with ErrNotFound because no query could ever be answered.
func NewResolver(cities []City) (*Resolver, error) {
	if len(cities) == 0 {
		return nil, ErrNotFound
	}
	owned := make([]City, len(cities))
	copy(owned, cities)
	return &Resolver{cities: owned}, nil
}

// Len returns the number of reference cities.
func (r *Resolver) Len() int {
	return len(r.cities)
}

// Nearest returns the reference city closest to (lon, lat). When several
// cities are equidistant the one listed first in the dataset wins.
func (r *Resolver) Nearest(lon, lat float64) (City, error) {
	if r == nil || len(r.cities) == 0 {
		return City{}, ErrNotFound
	}

	best := 0
	bestDist := Haversine(lon, lat, r.cities[0].Longitude, r.cities[0].Latitude)
	for i := 1; i < len(r.cities); i++ {
		c := r.cities[i]
		if d := Haversine(lon, lat, c.Longitude, c.Latitude); d < bestDist {
			best, bestDist = i, d
		}
	}
	return r.cities[best], nil
}

// NearestPopulation returns the population of the closest reference city.
func (r *Resolver) NearestPopulation(lon, lat float64) (float64, error) {
	c, err := r.Nearest(lon, lat)
	if err != nil {
		return 0, err
	}
	return c.Population, nil
}
