package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tmpim/textreel"
	"github.com/tmpim/textreel/config"
	"github.com/tmpim/textreel/sink"
	"github.com/tmpim/textreel/stream"
	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context, cfg *config.Config, input string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mode, _ := cfg.ColorMode()
	policy, _ := cfg.BrightnessPolicy()
	resampling, _ := cfg.Resampling()

	scaler := textreel.NewScaler(cfg.Width, cfg.Height, resampling)
	transcoder := textreel.NewTranscoder(mode, policy)

	player := textreel.NewPlayer()
	player.TickBudget = cfg.Live.TickBudget
	player.Retry = cfg.CaptureRetry()

	var fb *textreel.FrameBuffer
	var grabber *textreel.ScreenGrabber

	if *live {
		var err error
		grabber, err = textreel.NewScreenGrabber(textreel.GrabOptions{
			Width:     cfg.Width,
			Height:    cfg.Height,
			Framerate: cfg.Live.Framerate,
			Display:   cfg.Live.Display,
			Debug:     *debug,
		})
		if err != nil {
			return err
		}

		if err := grabber.Start(ctx); err != nil {
			return err
		}
		defer grabber.Close()
	} else {
		var err error
		fb, err = loadFrames(ctx, cfg, input, scaler, transcoder)
		if err != nil {
			return err
		}

		if *savePath != "" {
			if err := saveReel(*savePath, fb); err != nil {
				return err
			}
			log.Printf("textreel: saved %d frames to %s", fb.Len(), *savePath)
		}
	}

	out, err := openSink(cfg, cancel)
	if err != nil {
		return fmt.Errorf("failed to open %s output: %w", cfg.Sink, err)
	}
	outputs := []textreel.Sink{out}

	defer func() {
		if err := sink.Close(outputs...); err != nil {
			log.Println("textreel: failed to close output:", err)
		}
	}()

	var viewer *textreel.Viewer
	if fb != nil && cfg.Viewer.Enabled && input != "-" && !isReel(input) {
		viewer = textreel.StartViewer(input)
		if err := textreel.SystemClock.Sleep(ctx, cfg.Viewer.Warmup); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Server.Listen != "" {
		broadcaster := stream.NewBroadcaster()
		broadcaster.SetStatus(func() stream.Status {
			status := stream.Status{
				State:    player.State(),
				Position: player.Position(),
			}
			if fb != nil {
				status.Frames = fb.Len()
			}
			return status
		})
		outputs = append(outputs, broadcaster)

		server := stream.NewServer(broadcaster, cancel)
		log.Println("textreel: serving stream on", cfg.Server.Listen)
		g.Go(func() error {
			return server.ListenAndServe(ctx, cfg.Server.Listen)
		})
	}

	g.Go(func() error {
		defer cancel()

		var stats textreel.Stats
		var err error
		if fb != nil {
			stats, err = player.PlayBuffer(ctx, fb, cfg.Speed, sink.Tee(outputs))
		} else {
			stats, err = player.PlayLive(ctx, grabber, scaler, transcoder, sink.Tee(outputs))
		}

		log.Printf("textreel: played %d frames in %v, %d late (max %v)",
			stats.Frames, stats.Elapsed.Round(time.Millisecond), stats.Late,
			stats.MaxLateness.Round(time.Millisecond))
		if stats.CaptureFailures > 0 {
			log.Printf("textreel: %d captures failed, %d grabbed frames dropped",
				stats.CaptureFailures, grabber.Dropped())
		}

		return err
	})

	err = g.Wait()

	if viewer != nil && !viewer.Wait(cfg.Viewer.Warmup) {
		log.Println("textreel: viewer launcher is still running")
	}

	return err
}

func isReel(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), textreel.ReelExtension)
}

func loadFrames(ctx context.Context, cfg *config.Config, input string,
	scaler *textreel.Scaler, transcoder *textreel.Transcoder) (*textreel.FrameBuffer, error) {
	if isReel(input) {
		f, err := os.Open(input)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", textreel.ErrNotFound, input)
		} else if err != nil {
			return nil, fmt.Errorf("%w: %v", textreel.ErrUnreadable, err)
		}
		defer f.Close()

		fb, err := textreel.ReadReel(bufio.NewReader(f))
		if err != nil {
			return nil, err
		}

		log.Printf("textreel: loaded %d frames at %g fps from %s", fb.Len(), fb.FPS(), input)
		return fb, nil
	}

	var src textreel.VideoSource
	if input == "-" {
		pipe, err := textreel.OpenPipe(ctx, os.Stdin, textreel.PipeOptions{
			Width:  cfg.Width,
			Height: cfg.Height,
			FPS:    cfg.FPSFallback,
			Debug:  *debug,
		})
		if err != nil {
			return nil, err
		}
		src = pipe
	} else {
		video, err := textreel.OpenVideo(input)
		if err != nil {
			return nil, err
		}
		src = video
	}
	defer src.Close()

	fb, err := textreel.BuildFrameBuffer(ctx, src, textreel.PreprocessOptions{
		Scaler:      scaler,
		Transcoder:  transcoder,
		Workers:     cfg.Workers,
		FallbackFPS: cfg.FPSFallback,
		Progress:    newProgress(),
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}

	return fb, nil
}

// newProgress returns a progress callback printing the percentage of frames
// converted, or the frame count when the total is unknown.
func newProgress() func(done, total int) {
	last := -1
	return func(done, total int) {
		if total <= 0 {
			if done%100 == 0 {
				fmt.Fprintf(os.Stderr, "\rConverting: %d frames", done)
			}
			return
		}

		percent := min(100, done*100/total)
		if percent != last {
			last = percent
			fmt.Fprintf(os.Stderr, "\rConverting: %d%%", percent)
		}
	}
}

func saveReel(path string, fb *textreel.FrameBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := textreel.WriteReel(f, fb); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
