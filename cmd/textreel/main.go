package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmpim/textreel"
	"github.com/tmpim/textreel/config"
)

var (
	configPath = flag.String("config", "", "load settings from a YAML file, flags override it")
	width      = flag.Int("w", 200, "set the grid width in cells")
	height     = flag.Int("h", 50, "set the grid height in cells")
	colorMode  = flag.String("color", "256", "set the color mode (256 or truecolor)")
	brightness = flag.String("brightness", "luma", "set the brightness policy (luma or average)")
	resample   = flag.String("resample", "box", "set the downscaling filter (box or nearest)")
	speed      = flag.Float64("speed", 1, "set the playback speed (0.5 = half speed)")
	workers    = flag.Int("workers", 0, "set the number of preprocessing workers (0 = one per CPU)")
	sinkName   = flag.String("sink", "ansi", "set the output (ansi, screen, png, html or none)")
	outputPath = flag.String("o", "", "set the output path of the png (directory) and html (file) sinks")
	savePath   = flag.String("save", "", "save the preprocessed frames as a reel file")
	window     = flag.Bool("window", false, "open the source video in the default player alongside playback")
	listen     = flag.String("listen", "", "serve the websocket stream and control API on this address")
	live       = flag.Bool("live", false, "render the screen live instead of a video")
	display    = flag.String("display", "", "set the screen to capture in live mode")
	debug      = flag.Bool("debug", false, "show ffmpeg's output")
	license    = flag.Bool("license", false, "show licensing information and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *license {
		log.Println("textreel is licensed under the MIT license.")
		log.Println("Video decoding and screen capture run the ffmpeg executable found in")
		log.Println("your PATH, which is licensed separately under the LGPL or GPL")
		log.Println("depending on how it was built.")
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Println("Failed to load configuration:", err)
		os.Exit(1)
	}

	if !*live && flag.Arg(0) == "" {
		log.Println("Usage: textreel [options] input")
		log.Println("       textreel -live [options]")
		log.Println("")
		log.Println("textreel plays a video as colored text art in the terminal. The input")
		log.Println("may be a video file, - to read a video from standard input, or a reel")
		log.Println("file (" + textreel.ReelExtension + ") saved with -save. Every frame is converted")
		log.Println("before playback starts. With -live the screen is captured and rendered")
		log.Println("continuously until interrupted.")
		log.Println("")
		log.Println("Options:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, cfg, flag.Arg(0))
	stop()

	if err != nil && !errors.Is(err, context.Canceled) &&
		!errors.Is(err, textreel.ErrSinkClosed) {
		log.Println("textreel:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, if any, and overlays the flags
// that were set explicitly.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w":
			cfg.Width = *width
		case "h":
			cfg.Height = *height
		case "color":
			cfg.Color = *colorMode
		case "brightness":
			cfg.Brightness = *brightness
		case "resample":
			cfg.Resample = *resample
		case "speed":
			cfg.Speed = *speed
		case "workers":
			cfg.Workers = *workers
		case "sink":
			cfg.Sink = *sinkName
		case "o":
			cfg.Output = *outputPath
		case "window":
			cfg.Viewer.Enabled = *window
		case "listen":
			cfg.Server.Listen = *listen
		case "display":
			cfg.Live.Display = *display
		}
	})

	return cfg, cfg.Validate()
}
