package textreel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultFPS is used for sources that do not report a frame rate.
const DefaultFPS = 30

// PreprocessOptions configures BuildFrameBuffer.
type PreprocessOptions struct {
	Scaler     *Scaler
	Transcoder *Transcoder
	// Workers is the number of frames scaled and transcoded concurrently.
	// It defaults to the number of CPUs.
	Workers int
	// FallbackFPS is used when the source reports no frame rate.
	FallbackFPS float64
	// Progress, if set, is called after every frame with the number of
	// frames done and the number declared by the source (zero if unknown).
	Progress func(done, total int)
	Logger   *log.Logger
}

func (o *PreprocessOptions) validate() error {
	if o.Scaler == nil {
		return errors.New("textreel: BuildFrameBuffer: scaler must be specified")
	}
	if o.Transcoder == nil {
		return errors.New("textreel: BuildFrameBuffer: transcoder must be specified")
	}
	if o.Workers < 0 {
		return errors.New("textreel: BuildFrameBuffer: workers cannot be negative")
	}
	if o.FallbackFPS < 0 {
		return errors.New("textreel: BuildFrameBuffer: fallback fps cannot be negative")
	}
	return nil
}

type frameJob struct {
	img    image.Image
	output chan<- *GlyphGrid
}

// BuildFrameBuffer decodes every frame of src, scales and transcodes it, and
// returns the completed buffer. Decoding stops at io.EOF; any other decode
// error ends the stream early but keeps the frames collected so far. If no
// frame was decoded ErrEmptyResult is returned. The caller keeps ownership of
// src and must close it.
func BuildFrameBuffer(ctx context.Context, src VideoSource, opts PreprocessOptions) (*FrameBuffer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	g, ctx := errgroup.WithContext(ctx)

	inbox := make(chan frameJob, workers*2)
	outputChan := make(chan chan *GlyphGrid, workers*4)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range inbox {
				job.output <- opts.Transcoder.Transcode(opts.Scaler.Scale(job.img))
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(inbox)
		defer close(outputChan)

		for index := 0; ; index++ {
			img, err := src.Next(ctx)
			if err == io.EOF {
				return nil
			} else if ctx.Err() != nil {
				return ctx.Err()
			} else if err != nil {
				logger.Printf("textreel preprocess: decode failed at frame %d, "+
					"treating as end of stream: %v", index, err)
				return nil
			}

			frameOutput := make(chan *GlyphGrid, 1)
			select {
			case outputChan <- frameOutput:
			case <-ctx.Done():
				return ctx.Err()
			}

			select {
			case inbox <- frameJob{img: img, output: frameOutput}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var frames []*GlyphGrid
	total := src.FrameCount()

	g.Go(func() error {
		for frameOutput := range outputChan {
			select {
			case frame := <-frameOutput:
				frames = append(frames, frame)
			case <-ctx.Done():
				go func() {
					for range outputChan {
					}
				}()
				return ctx.Err()
			}

			if opts.Progress != nil {
				opts.Progress(len(frames), total)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("textreel: BuildFrameBuffer: %w", err)
	}

	if len(frames) == 0 {
		return nil, ErrEmptyResult
	}

	fps := src.FPS()
	if !validRate(fps) {
		fps = opts.FallbackFPS
		if !validRate(fps) {
			fps = DefaultFPS
		}
		logger.Printf("textreel preprocess: source reports no frame rate, using %g fps", fps)
	}

	return NewFrameBuffer(frames, fps), nil
}
