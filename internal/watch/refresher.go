// Package watch periodically refreshes the job collection for a live view.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/crystaldolphin/crondeck/internal/schema"
)

// DefaultInterval is used when NewRefresher gets a non-positive interval.
const DefaultInterval = 30 * time.Second

// ListFunc fetches the current jobs; typically cron.Controller.List.
type ListFunc func(ctx context.Context) ([]schema.Job, error)

// OnRefreshFunc receives each successful listing.
type OnRefreshFunc func(jobs []schema.Job)

// Refresher calls a ListFunc on a fixed period until its context ends.
type Refresher struct {
	list      ListFunc
	onRefresh OnRefreshFunc
	interval  time.Duration
}

// NewRefresher creates a Refresher.
// interval defaults to 30 seconds if zero.
func NewRefresher(list ListFunc, onRefresh OnRefreshFunc, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Refresher{
		list:      list,
		onRefresh: onRefresh,
		interval:  interval,
	}
}

// Interval returns the polling period.
func (r *Refresher) Interval() time.Duration { return r.interval }

// Start refreshes once immediately, then on every tick until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Debug("watch: started", "interval", r.interval)
	r.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			r.refresh(ctx)
		case <-ctx.Done():
			slog.Debug("watch: stopped")
			return ctx.Err()
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	jobs, err := r.list(ctx)
	if err != nil {
		// The list call has already told the user; keep polling.
		slog.Debug("watch: refresh failed", "err", err)
		return
	}
	if r.onRefresh != nil {
		r.onRefresh(jobs)
	}
}
