package textreel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"
)

// GrabOptions configures a ScreenGrabber.
type GrabOptions struct {
	Width  int
	Height int
	// Framerate is the rate ffmpeg grabs the screen at.
	Framerate int
	// Display selects the screen to grab. It defaults to $DISPLAY on X11,
	// "Capture screen 0" on macOS and "desktop" on Windows.
	Display string
	Debug   bool
}

func (o *GrabOptions) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New("textreel: ScreenGrabber: width and height must be specified")
	}
	if o.Framerate <= 0 {
		return errors.New("textreel: ScreenGrabber: framerate must be specified")
	}
	return nil
}

func (o *GrabOptions) inputArgs() []string {
	rate := strconv.Itoa(o.Framerate)
	display := o.Display

	switch runtime.GOOS {
	case "darwin":
		if display == "" {
			display = "Capture screen 0"
		}
		return []string{"-f", "avfoundation", "-framerate", rate,
			"-capture_cursor", "1", "-i", display + ":none"}
	case "windows":
		if display == "" {
			display = "desktop"
		}
		return []string{"-f", "gdigrab", "-framerate", rate, "-i", display}
	default:
		if display == "" {
			display = os.Getenv("DISPLAY")
		}
		if display == "" {
			display = ":0.0"
		}
		return []string{"-f", "x11grab", "-framerate", rate, "-i", display}
	}
}

type grabProcess struct {
	ff    *ffmpegProcess
	ready chan struct{}
	done  chan struct{}
	err   error
}

// stop kills ffmpeg and returns why it stopped, preferring what ffmpeg
// itself reported.
func (p *grabProcess) stop() string {
	p.ff.close()
	<-p.done
	if msg := p.ff.errorOutput(); msg != "" {
		return msg
	}
	if p.err != nil {
		return p.err.Error()
	}
	return "ffmpeg stopped"
}

// ScreenGrabber captures the primary screen through ffmpeg. A background
// reader keeps only the latest grabbed frame, so a slow consumer always sees
// the current screen rather than a backlog.
type ScreenGrabber struct {
	opts GrabOptions
	box  *mailbox
	proc *grabProcess
}

// NewScreenGrabber returns a grabber. ffmpeg is started by Start or lazily
// by the first Capture.
func NewScreenGrabber(opts GrabOptions) (*ScreenGrabber, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &ScreenGrabber{
		opts: opts,
		box:  newMailbox(),
	}, nil
}

// Start launches ffmpeg and waits for the first grabbed frame, so a screen
// that cannot be captured is reported as ErrSourceUnavailable before any
// playback begins. The process lives until ctx is done or Close is called.
func (g *ScreenGrabber) Start(ctx context.Context) error {
	if g.proc != nil {
		return nil
	}

	ff, err := startFFmpeg(ctx, nil, g.opts.inputArgs(), g.opts.Width,
		g.opts.Height, 0, g.opts.Debug)
	if err != nil {
		return fmt.Errorf("%w: screen grabber: %v", ErrSourceUnavailable, err)
	}

	proc := &grabProcess{
		ff:    ff,
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}

	go func() {
		defer close(proc.done)
		first := true
		for {
			img, err := ff.next()
			if err == io.EOF {
				proc.err = errors.New("ffmpeg stopped")
				return
			} else if err != nil {
				proc.err = err
				return
			}

			g.box.publish(img)
			if first {
				close(proc.ready)
				first = false
			}
		}
	}()

	select {
	case <-proc.ready:
		g.proc = proc
		return nil
	case <-proc.done:
		// done may win the race against a frame published just before exit
		select {
		case <-proc.ready:
			g.proc = proc
			return nil
		default:
		}
		return fmt.Errorf("%w: screen grabber: %s", ErrSourceUnavailable, proc.stop())
	case <-ctx.Done():
		proc.stop()
		return ctx.Err()
	}
}

// Capture returns the most recently grabbed frame, waiting for one if none
// arrived since the last call. A grabber whose ffmpeg process died reports
// ErrCaptureFailure once and restarts it on the next call.
func (g *ScreenGrabber) Capture(ctx context.Context) (image.Image, error) {
	if g.proc == nil {
		if err := g.Start(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCaptureFailure, err)
		}
	}

	select {
	case img := <-g.box.slot:
		return img, nil
	case <-g.proc.done:
		proc := g.proc
		g.proc = nil
		reason := proc.stop()
		if g.opts.Debug {
			log.Println("textreel capture: ffmpeg exited:", reason)
		}
		return nil, fmt.Errorf("%w: %s", ErrCaptureFailure, reason)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dropped returns the number of grabbed frames that were never captured.
func (g *ScreenGrabber) Dropped() uint64 {
	return g.box.Drops()
}

// Close stops ffmpeg.
func (g *ScreenGrabber) Close() error {
	if g.proc == nil {
		return nil
	}

	proc := g.proc
	g.proc = nil
	proc.stop()
	return nil
}
