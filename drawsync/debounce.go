package drawsync

import "time"

var now = time.Now

// Scheduler runs fn after d and returns a function that cancels it.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// TimerScheduler schedules with time.AfterFunc. fn runs on the timer's
// goroutine.
func TimerScheduler(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Debouncer collapses bursts of triggers into one call made delay after the
// last trigger. It is not safe for concurrent use: Trigger and the fired
// callback must run on the same event loop.
type Debouncer struct {
	delay    time.Duration
	schedule Scheduler
	cancel   func()
	seq      uint64
}

// NewDebouncer creates a Debouncer. A nil schedule uses TimerScheduler.
func NewDebouncer(delay time.Duration, schedule Scheduler) *Debouncer {
	if schedule == nil {
		schedule = TimerScheduler
	}
	return &Debouncer{delay: delay, schedule: schedule}
}

// Trigger (re)arms the debouncer with fn. A previously armed callback that
// has not run yet is dropped.
func (d *Debouncer) Trigger(fn func()) {
	d.seq++
	seq := d.seq
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = d.schedule(d.delay, func() {
		if d.seq == seq {
			fn()
		}
	})
}

// Stop drops any pending callback.
func (d *Debouncer) Stop() {
	d.seq++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
