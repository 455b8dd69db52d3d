package textreel

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func stubViewer(t *testing.T, cmd func(path string) *exec.Cmd) {
	old := viewerCommand
	viewerCommand = cmd
	t.Cleanup(func() { viewerCommand = old })
}

func TestViewerJoins(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	opened := make(chan string, 1)
	stubViewer(t, func(path string) *exec.Cmd {
		opened <- path
		return exec.Command("sh", "-c", "exit 0")
	})

	v := StartViewer("clip.mp4")
	if !v.Wait(5 * time.Second) {
		t.Fatal("viewer did not finish")
	}
	if got := <-opened; got != "clip.mp4" {
		t.Errorf("opened %q", got)
	}
}

func TestViewerFailureIsNotFatal(t *testing.T) {
	stubViewer(t, func(path string) *exec.Cmd {
		return exec.Command("/nonexistent/textreel-viewer", path)
	})

	if !StartViewer("clip.mp4").Wait(5 * time.Second) {
		t.Fatal("failed launch did not finish")
	}
}

func TestViewerWaitTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	release := filepath.Join(t.TempDir(), "release")
	stubViewer(t, func(path string) *exec.Cmd {
		return exec.Command("sh", "-c", `while [ ! -e "$0" ]; do sleep 0.01; done`, release)
	})

	v := StartViewer("clip.mp4")
	if v.Wait(10 * time.Millisecond) {
		t.Fatal("expected the wait to time out")
	}

	if err := os.WriteFile(release, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !v.Wait(5 * time.Second) {
		t.Fatal("viewer did not exit once released")
	}
}
