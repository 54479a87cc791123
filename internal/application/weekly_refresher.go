package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ScheduleResetter vacates the whole schedule.
type ScheduleResetter interface {
	ResetAll(ctx context.Context) int
}

// WeeklyRefresher clears the schedule once each time a new week starts
// (Monday 00:00 in its location).
type WeeklyRefresher struct {
	resetter ScheduleResetter
	now      func() time.Time
	location *time.Location
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	current  time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWeeklyRefresher constructs a refresher anchored at the week containing now().
func NewWeeklyRefresher(resetter ScheduleResetter, now func() time.Time, location *time.Location, interval time.Duration, logger *slog.Logger) *WeeklyRefresher {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.Local
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &WeeklyRefresher{
		resetter: resetter,
		now:      now,
		location: location,
		interval: interval,
		logger:   defaultLogger(logger),
		current:  WeekStart(now(), location),
		stopChan: make(chan struct{}),
	}
}

// WeekStart returns Monday 00:00 of the week containing t, in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	year, month, day := t.Date()
	return time.Date(year, month, day-offset, 0, 0, 0, 0, loc)
}

// Check resets the schedule if a week boundary has passed since the last
// check and reports whether it did.
func (r *WeeklyRefresher) Check(ctx context.Context) bool {
	week := WeekStart(r.now(), r.location)

	r.mu.Lock()
	if !week.After(r.current) {
		r.mu.Unlock()
		return false
	}
	r.current = week
	r.mu.Unlock()

	cleared := r.resetter.ResetAll(ctx)
	serviceLogger(ctx, r.logger, "WeeklyRefresher", "Check").InfoContext(ctx, "weekly refresh applied",
		"week_start", week.Format(time.DateOnly),
		"cleared", cleared,
	)
	return true
}

// Start runs the refresh loop in the background until ctx ends or Stop is called.
func (r *WeeklyRefresher) Start(ctx context.Context) {
	r.logger.InfoContext(ctx, "starting weekly refresher", "interval", r.interval.String(), "location", r.location.String())
	go r.run(ctx)
}

// Stop ends the refresh loop.
func (r *WeeklyRefresher) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
}

func (r *WeeklyRefresher) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Check(ctx)
		case <-r.stopChan:
			r.logger.Info("weekly refresher stopped")
			return
		case <-ctx.Done():
			r.logger.Info("weekly refresher cancelled")
			return
		}
	}
}
