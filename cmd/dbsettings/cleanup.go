package main

import (
	"io"
	"log/slog"
)

// newCleanup builds the exit hook: close the engine first so no query can
// still be waiting on a credential lookup, then release the secret client.
// Either argument may be nil.
func newCleanup(secrets io.Closer, engine io.Closer) func() {
	return func() {
		if engine != nil {
			if err := engine.Close(); err != nil {
				slog.Error("failed to close database engine", "error", err)
			}
		}

		if secrets != nil {
			if err := secrets.Close(); err != nil {
				slog.Error("failed to close secret provider", "error", err)
			}
		}
	}
}
