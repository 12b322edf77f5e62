package airquality

import (
	"time"
)

// Location is the representative coordinate queried for one tracked country.
type Location struct {
	Country   string  `json:"country" validate:"required,len=2,alpha"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Entry is a country's air-quality index in a snapshot.
type Entry struct {
	AQI int `json:"aqi"`
}

// Snapshot is the aggregated view produced by one refresh cycle. A snapshot
// is never modified once published; a refresh builds a new one.
type Snapshot struct {
	Countries   map[string]Entry `json:"countries"`
	RefreshedAt time.Time        `json:"refreshedAt"` // zero until the first refresh
}

// Clone returns a deep copy so callers cannot mutate a published snapshot.
func (s Snapshot) Clone() Snapshot {
	countries := make(map[string]Entry, len(s.Countries))
	for code, e := range s.Countries {
		countries[code] = e
	}
	return Snapshot{Countries: countries, RefreshedAt: s.RefreshedAt}
}

// Reading is a single provider observation for a location.
type Reading struct {
	ProviderName string
	Country      string
	AQI          int
	Station      string
	ObservedAt   time.Time
}
