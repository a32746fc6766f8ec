// Package clock provides a small time abstraction so time-dependent
// behavior (report timestamps, check deadlines, cache TTLs, retry
// backoff) is deterministic under test.
//
// Production code uses Real(); tests use NewFake() and advance time
// manually.
package clock

import "time"

// Clock provides the time operations the engine depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)

	// After waits for the duration to elapse and then sends the
	// current time on the returned channel.
	After(d time.Duration) <-chan time.Time
}

// realClock implements Clock using the standard time package.
type realClock struct{}

// Real returns the Clock backed by the standard time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
