package impl

import (
	"io"
	"log/slog"
)

// newDiscardLogger returns a logger that discards all output, for use in tests.
func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
