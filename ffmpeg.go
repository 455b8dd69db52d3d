package textreel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/image/bmp"
)

const stderrTail = 1024

// tailWriter keeps the last stderrTail bytes written to it.
type tailWriter struct {
	buf []byte
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - stderrTail; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

// ffmpegProcess is an ffmpeg subprocess writing bmp frames to its stdout.
type ffmpegProcess struct {
	cmd    *exec.Cmd
	frames *bufio.Reader
	stderr *tailWriter
}

func startFFmpeg(ctx context.Context, input io.Reader, inputArgs []string,
	width, height int, fps float64, debug bool) (*ffmpegProcess, error) {
	args := append([]string{"-loglevel", "error"}, inputArgs...)
	args = append(args, "-an", "-f", "image2pipe", "-vcodec", "bmp",
		"-vf", "scale="+strconv.Itoa(width)+":"+strconv.Itoa(height))
	if fps > 0 {
		args = append(args, "-r", strconv.FormatFloat(fps, 'f', -1, 64))
	}
	args = append(args, "pipe:1")

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdin = input
	stderr := &tailWriter{}
	cmd.Stderr = stderr
	if debug {
		cmd.Stderr = io.MultiWriter(os.Stderr, stderr)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &ffmpegProcess{
		cmd:    cmd,
		frames: bufio.NewReaderSize(stdout, 1<<20),
		stderr: stderr,
	}, nil
}

// next decodes the next frame, returning io.EOF once ffmpeg stops writing.
func (p *ffmpegProcess) next() (image.Image, error) {
	img, err := bmp.Decode(p.frames)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, err
	}

	return img, nil
}

func (p *ffmpegProcess) close() error {
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd.Wait()
	return nil
}

// errorOutput returns the last line ffmpeg wrote to stderr. It is only
// complete once close has returned.
func (p *ffmpegProcess) errorOutput() string {
	lines := strings.Split(strings.TrimSpace(string(p.stderr.buf)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// PipeOptions configures a video source read from a stream.
type PipeOptions struct {
	Width  int
	Height int
	// FPS is the rate frames are sampled at. Streams carry no reliable frame
	// count or rate, so the rate is imposed.
	FPS   float64
	Debug bool
}

func (o *PipeOptions) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New("textreel: OpenPipe: width and height must be specified")
	}
	if o.FPS <= 0 {
		return errors.New("textreel: OpenPipe: fps must be specified")
	}
	return nil
}

// PipeSource is a video source decoding any format ffmpeg supports from a
// reader, such as standard input. Frames are already scaled to the
// configured size.
type PipeSource struct {
	proc *ffmpegProcess
	fps  float64
}

// OpenPipe starts decoding rd.
func OpenPipe(ctx context.Context, rd io.Reader, opts PipeOptions) (*PipeSource, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	proc, err := startFFmpeg(ctx, rd, []string{"-i", "-"}, opts.Width,
		opts.Height, opts.FPS, opts.Debug)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %v", ErrSourceUnavailable, err)
	}

	return &PipeSource{proc: proc, fps: opts.FPS}, nil
}

// FrameCount is always zero, streams do not declare a length.
func (p *PipeSource) FrameCount() int {
	return 0
}

// FPS returns the imposed sampling rate.
func (p *PipeSource) FPS() float64 {
	return p.fps
}

// Next returns the next decoded frame.
func (p *PipeSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.proc.next()
}

// Close kills ffmpeg.
func (p *PipeSource) Close() error {
	return p.proc.close()
}
