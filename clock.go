package textreel

import (
	"context"
	"math"
	"time"
)

// Clock provides the current time and suspends the caller.
type Clock interface {
	Now() time.Time
	// Sleep blocks for at least d, or until ctx is done in which case it
	// returns ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock is the wall clock. Sleeping parks the goroutine on a timer.
var SystemClock Clock = systemClock{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PlaybackClock derives the target emission time of every frame from a fixed
// start time, so lateness of one frame never shifts the following ones.
type PlaybackClock struct {
	Start    time.Time
	Interval time.Duration
	// Speed scales playback: 2 plays twice as fast, 0.5 at half speed.
	Speed float64
}

// NewPlaybackClock returns a clock for the given source frame rate and speed
// factor. The start time is set when playback begins.
func NewPlaybackClock(fps, speed float64) PlaybackClock {
	if !validRate(fps) {
		fps = DefaultFPS
	}
	if !validRate(speed) {
		speed = 1
	}

	return PlaybackClock{
		Interval: time.Duration(math.Ceil(float64(time.Second) / fps)),
		Speed:    speed,
	}
}

// Offset returns the time frame i is due after the start, rounded up to the
// next nanosecond.
func (c PlaybackClock) Offset(i int) time.Duration {
	speed := c.Speed
	if !validRate(speed) {
		speed = 1
	}

	offset := math.Ceil(float64(i) * float64(c.Interval) / speed)
	if offset >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(offset)
}

// validRate reports whether a frame rate or speed factor is positive and
// finite.
func validRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Deadline returns the earliest time frame i may be emitted.
func (c PlaybackClock) Deadline(i int) time.Time {
	return c.Start.Add(c.Offset(i))
}
