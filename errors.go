package textreel

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when a frame source cannot be opened.
	ErrSourceUnavailable = errors.New("textreel: source unavailable")
	// ErrNotFound is returned when a video file does not exist.
	ErrNotFound = fmt.Errorf("%w: not found", ErrSourceUnavailable)
	// ErrUnreadable is returned when a video file exists but cannot be
	// decoded.
	ErrUnreadable = fmt.Errorf("%w: unreadable", ErrSourceUnavailable)

	// ErrEmptyResult is returned when preprocessing decoded no frames.
	ErrEmptyResult = errors.New("textreel: no frames decoded")

	// ErrCaptureFailure is returned when a screen capture fails.
	ErrCaptureFailure = errors.New("textreel: capture failed")

	// ErrSinkClosed is returned by sinks once the viewer has asked to quit.
	ErrSinkClosed = errors.New("textreel: sink closed")
)
