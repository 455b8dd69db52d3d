package textreel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// DefaultTickBudget is the time allotted to one live capture tick.
const DefaultTickBudget = time.Second / 60

// driftWarning is the lateness after which a warning is logged.
const driftWarning = time.Second

// State is the state of a Player.
type State uint32

// Possible player states.
const (
	StateIdle = State(iota)
	StateRunning
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, state := range []State{StateIdle, StateRunning, StateFinished, StateCancelled} {
		if string(text) == state.String() {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("textreel: unknown player state %q", text)
}

// CaptureRetry configures how a live player recovers from capture failures.
// Failed captures are retried with exponential backoff; once MaxRetries
// consecutive captures have failed, playback stops with the capture error.
type CaptureRetry struct {
	MaxRetries int
	Delay      time.Duration
	MaxDelay   time.Duration
}

// DefaultCaptureRetry returns the default capture retry configuration.
func DefaultCaptureRetry() CaptureRetry {
	return CaptureRetry{
		MaxRetries: 5,
		Delay:      50 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// Backoff returns the delay before retry number attempt, starting at 1.
func (c CaptureRetry) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := c.Delay
	for i := 1; i < attempt && delay < c.MaxDelay; i++ {
		delay *= 2
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// Stats summarises a playback run.
type Stats struct {
	Frames int
	// Late counts frames emitted more than one speed adjusted interval after
	// their deadline, or live ticks that overran their budget.
	Late            int
	MaxLateness     time.Duration
	CaptureFailures int
	Elapsed         time.Duration
}

// Player emits glyph grids to a sink at a steady cadence.
type Player struct {
	Clock      Clock
	TickBudget time.Duration
	Retry      CaptureRetry
	Logger     *log.Logger

	state    atomic.Uint32
	position atomic.Int64
}

// NewPlayer returns a player using the system clock and default settings.
func NewPlayer() *Player {
	return &Player{
		Clock:      SystemClock,
		TickBudget: DefaultTickBudget,
		Retry:      DefaultCaptureRetry(),
	}
}

// State returns the current state of the player.
func (p *Player) State() State {
	return State(p.state.Load())
}

// Position returns the number of frames emitted in the current or last run.
func (p *Player) Position() int {
	return int(p.position.Load())
}

func (p *Player) begin() error {
	for {
		current := p.state.Load()
		if State(current) == StateRunning {
			return errors.New("textreel: player is already running")
		}
		if p.state.CompareAndSwap(current, uint32(StateRunning)) {
			p.position.Store(0)
			return nil
		}
	}
}

func (p *Player) end(state State, stats Stats, err error) (Stats, error) {
	p.state.Store(uint32(state))
	return stats, err
}

func (p *Player) clock() Clock {
	if p.Clock == nil {
		return SystemClock
	}
	return p.Clock
}

func (p *Player) logger() *log.Logger {
	if p.Logger == nil {
		return log.Default()
	}
	return p.Logger
}

// PlayBuffer plays every frame of fb in order. Frame i is emitted no earlier
// than i*interval/speed after the first frame, where the interval derives
// from the buffer's frame rate. Playback stops early if ctx is done, in which
// case ctx.Err() is returned, or if the sink reports ErrSinkClosed.
func (p *Player) PlayBuffer(ctx context.Context, fb *FrameBuffer, speed float64, sink Sink) (Stats, error) {
	if fb == nil || fb.Len() == 0 {
		return Stats{}, ErrEmptyResult
	}
	if err := p.begin(); err != nil {
		return Stats{}, err
	}

	var stats Stats
	clock := p.clock()
	pc := NewPlaybackClock(fb.FPS(), speed)
	step := pc.Offset(1)
	warned := false

	if err := sink.Reset(); err != nil {
		return p.end(StateCancelled, stats, sinkError(err))
	}

	for i := 0; i < fb.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return p.end(StateCancelled, stats, err)
		}

		now := clock.Now()
		if i == 0 {
			pc.Start = now
		}

		deadline := pc.Deadline(i)
		if wait := deadline.Sub(now); wait > 0 {
			if err := clock.Sleep(ctx, wait); err != nil {
				return p.end(StateCancelled, stats, err)
			}
			now = clock.Now()
		}

		lateness := now.Sub(deadline)
		if lateness > stats.MaxLateness {
			stats.MaxLateness = lateness
		}
		if lateness > step {
			stats.Late++
		}
		if lateness > driftWarning && !warned {
			p.logger().Printf("textreel player: drift > 1 second detected at frame %d (%v late)",
				i, lateness)
			warned = true
		}

		if err := sink.WriteFrame(fb.Frame(i)); err != nil {
			return p.end(StateCancelled, stats, sinkError(err))
		}

		stats.Frames++
		p.position.Store(int64(stats.Frames))
	}

	stats.Elapsed = clock.Now().Sub(pc.Start)
	return p.end(StateFinished, stats, nil)
}

// PlayLive repeatedly captures, scales, transcodes and emits a frame, one tick
// at a time. Each tick is given TickBudget; when a tick finishes early the
// player sleeps for the remainder, when it overruns the next tick starts
// immediately. PlayLive only returns once ctx is done (returning ctx.Err()),
// the sink reports ErrSinkClosed, or captures keep failing beyond the retry
// limit. A zero Retry makes the first capture failure fatal. scaler may be
// nil if the capturer already produces frames of the working size.
func (p *Player) PlayLive(ctx context.Context, src Capturer, scaler *Scaler,
	transcoder *Transcoder, sink Sink) (stats Stats, err error) {
	if err := p.begin(); err != nil {
		return Stats{}, err
	}

	clock := p.clock()
	budget := p.TickBudget
	if budget <= 0 {
		budget = DefaultTickBudget
	}

	if err := sink.Reset(); err != nil {
		return p.end(StateCancelled, stats, sinkError(err))
	}

	start := clock.Now()
	failures := 0

	defer func() {
		stats.Elapsed = clock.Now().Sub(start)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return p.end(StateCancelled, stats, err)
		}

		tickStart := clock.Now()

		img, err := src.Capture(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return p.end(StateCancelled, stats, ctxErr)
			}

			failures++
			stats.CaptureFailures++
			if failures > p.Retry.MaxRetries {
				return p.end(StateCancelled, stats,
					fmt.Errorf("textreel: PlayLive: giving up after %d failed captures: %w",
						failures, err))
			}

			delay := p.Retry.Backoff(failures)
			p.logger().Printf("textreel player: capture failed (attempt %d/%d), retrying in %v: %v",
				failures, p.Retry.MaxRetries, delay, err)
			if err := clock.Sleep(ctx, delay); err != nil {
				return p.end(StateCancelled, stats, err)
			}
			continue
		}
		failures = 0

		if scaler != nil {
			img = scaler.Scale(img)
		}

		if err := sink.WriteFrame(transcoder.Transcode(img)); err != nil {
			return p.end(StateCancelled, stats, sinkError(err))
		}

		stats.Frames++
		p.position.Store(int64(stats.Frames))

		elapsed := clock.Now().Sub(tickStart)
		if overrun := elapsed - budget; overrun > 0 {
			stats.Late++
			if overrun > stats.MaxLateness {
				stats.MaxLateness = overrun
			}
			continue
		}

		if err := clock.Sleep(ctx, budget-elapsed); err != nil {
			return p.end(StateCancelled, stats, err)
		}
	}
}

func sinkError(err error) error {
	if errors.Is(err, ErrSinkClosed) {
		return ErrSinkClosed
	}
	return fmt.Errorf("textreel: sink: %w", err)
}
