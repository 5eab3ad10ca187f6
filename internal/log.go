package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

const logFileMode = 0o644

// LogParams contains the parameters for logging console output and errors.
// These vary depending on whether the tracker runs in ticker or tui mode.
// # Ticker mode
// - console output (reports, summaries) goes to stdout
// - structured logs go to stderr
// # TUI mode
// - console output is discarded, reports are shown in the TUI
// - structured logs go to the log file, `sondespottr.log` by default
// .
type LogParams struct {
	ConsoleOut io.Writer
	ErrorOut   io.Writer
	Verbose    bool
}

// NewLogger creates the structured logger. Verbose enables debug output.
func (p LogParams) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if p.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(p.ErrorOut, &slog.HandlerOptions{Level: level}))
}

// OpenLogFile opens path for appending structured logs.
func OpenLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFileMode)
	if err != nil {
		return nil, fmt.Errorf("openLogFile: %w", err)
	}

	return f, nil
}
