package tui

import "errors"

var (
	// ErrAborted signals the user aborted the session (e.g., Ctrl+C or the
	// abort action).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoForm is returned when a Runner is built without a form.
	ErrNoForm = errors.New("tui: form is required")
)
