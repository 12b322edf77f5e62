package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/airquality-forecast/internal/airquality"
)

// SnapshotSource is the part of the AQI cache the scheduler needs.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (airquality.Snapshot, error)
}

// Scheduler periodically touches the AQI cache so a request rarely has to
// wait for a refresh. It only ever goes through Snapshot, so the cache's TTL
// and single-flight rules still decide whether a refresh actually happens.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cache     SnapshotSource
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. timeout bounds how long one job waits for a
// refresh to complete.
func New(cache SnapshotSource, interval, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		cache:     cache,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the pre-warm job and starts the underlying scheduler.
// A non-positive interval disables pre-warming.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: AQI pre-warm disabled; snapshot refreshes on demand")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		snap, err := s.cache.Snapshot(ctx)
		if err != nil {
			log.Printf("scheduler: AQI pre-warm failed: %v", err)
			return
		}
		log.Printf("scheduler: AQI snapshot has %d countries (refreshed %s)", len(snap.Countries), snap.RefreshedAt.Format(time.RFC3339))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
