package tui

import (
	"io"
	"log"
)

// Theme captures optional formatting hints applied to printed messages.
type Theme struct {
	StepPrefix  string
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme is used when no theme is supplied.
var DefaultTheme = Theme{
	StepPrefix:  "==",
	InfoPrefix:  "-",
	ErrorPrefix: "x",
}

// Option configures a Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where the default driver prints informational messages.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithLogger sets the logger used for session tracing.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
