package scheduler

import (
	"context"
	"time"

	"dailybrief/internal/ports"
)

// DailyScheduler fires the job once per day at a fixed local hour.
type DailyScheduler struct {
	hour     int
	location *time.Location
	stop     chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler builds a scheduler firing at hour o'clock in loc.
func NewDailyScheduler(hour int, loc *time.Location) *DailyScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyScheduler{hour: hour, location: loc}
}

// Start launches the timer goroutine. The first firing is the next
// occurrence of the configured hour; subsequent firings come every 24h.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		timer := time.NewTimer(time.Until(d.nextRun(time.Now())))
		defer timer.Stop()
		for {
			select {
			case t := <-timer.C:
				job(t.In(d.location))
				timer.Reset(time.Until(d.nextRun(time.Now())))
			case <-ctx.Done():
				return
			case <-d.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the timer goroutine.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

func (d *DailyScheduler) nextRun(now time.Time) time.Time {
	local := now.In(d.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, 0, 0, 0, d.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
