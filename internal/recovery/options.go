package recovery

import (
	"log/slog"
	"time"
)

// Options configures temp file cleanup.
type Options struct {
	// MinAge is how old a temp file must be before it is treated as
	// abandoned. Younger files may belong to a write in progress.
	// Default: 1 minute.
	MinAge time.Duration

	// Logger for cleanup events. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MinAge: time.Minute,
	}
}
