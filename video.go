package textreel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"

	vidio "github.com/AlexEidt/Vidio"
)

// VideoFile is a video file decoded through ffmpeg.
type VideoFile struct {
	path  string
	video *vidio.Video
	done  bool
}

// OpenVideo opens a video file for decoding. ffmpeg and ffprobe must be
// available on the PATH. The returned error wraps ErrNotFound if the file
// does not exist, or ErrUnreadable if it cannot be probed.
func OpenVideo(path string) (*VideoFile, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	video, err := vidio.NewVideo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	return &VideoFile{
		path:  path,
		video: video,
	}, nil
}

// FrameCount returns the number of frames reported by the container.
func (v *VideoFile) FrameCount() int {
	return v.video.Frames()
}

// FPS returns the frame rate reported by the container.
func (v *VideoFile) FPS() float64 {
	return v.video.FPS()
}

// Next decodes the next frame into a newly allocated image.
func (v *VideoFile) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v.done {
		return nil, io.EOF
	}

	img := image.NewRGBA(image.Rect(0, 0, v.video.Width(), v.video.Height()))
	if err := v.video.SetFrameBuffer(img.Pix); err != nil {
		return nil, fmt.Errorf("textreel: VideoFile: %s: %w", v.path, err)
	}

	if !v.video.Read() {
		v.done = true
		return nil, io.EOF
	}

	return img, nil
}

// Close stops the decoder.
func (v *VideoFile) Close() error {
	v.done = true
	v.video.Close()
	return nil
}
