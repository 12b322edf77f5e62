package airquality

import (
	"context"
	"fmt"
	"time"
)

// Provider abstracts an external air-quality source (e.g. WAQI).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Reading, error)
}

// SnapshotStore publishes snapshots to readers. Replace must swap the whole
// snapshot at once.
type SnapshotStore interface {
	Current() (Snapshot, bool)
	Replace(snapshot Snapshot)
}

// Clock lets tests control time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ProviderFetchError reports that one country could not be refreshed. It is
// logged and the country is left out of the snapshot; callers never see it.
type ProviderFetchError struct {
	Country string
	Err     error
}

func (e *ProviderFetchError) Error() string {
	return fmt.Sprintf("fetch air quality for %s: %v", e.Country, e.Err)
}

func (e *ProviderFetchError) Unwrap() error {
	return e.Err
}
