package textreel

import (
	"log"
	"os/exec"
	"runtime"
	"time"
)

// DefaultViewerWarmup is how long playback waits after launching a viewer.
const DefaultViewerWarmup = time.Second

// Viewer is an external application showing the source video alongside the
// text playback. It is best effort: failing to launch it is only logged.
type Viewer struct {
	done chan struct{}
}

// viewerCommand is replaced in tests.
var viewerCommand = func(path string) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		return exec.Command("open", path)
	default:
		return exec.Command("xdg-open", path)
	}
}

// StartViewer opens path with the platform's default application without
// waiting for it.
func StartViewer(path string) *Viewer {
	v := &Viewer{done: make(chan struct{})}
	cmd := viewerCommand(path)

	go func() {
		defer close(v.done)

		if err := cmd.Start(); err != nil {
			log.Println("textreel viewer: failed to open video:", err)
			return
		}

		if err := cmd.Wait(); err != nil {
			log.Println("textreel viewer: exited:", err)
		}
	}()

	return v
}

// Wait blocks until the launcher exits or the timeout elapses, and reports
// whether it exited.
func (v *Viewer) Wait(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-v.done:
		return true
	case <-t.C:
		return false
	}
}
