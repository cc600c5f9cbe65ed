// Package logging configures the process-wide slog logger and persists
// error records to the system_logs table.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a JSON logger on stdout. Development builds log at debug
// level.
func Setup(appEnv string) *slog.Logger {
	return setup(os.Stdout, appEnv)
}

func setup(w io.Writer, appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "development" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// Attach routes records to the default handler and to extra, typically a
// PGHandler once the database is reachable.
func Attach(extra ...slog.Handler) {
	handlers := append([]slog.Handler{slog.Default().Handler()}, extra...)
	slog.SetDefault(slog.New(NewMultiHandler(handlers...)))
}
