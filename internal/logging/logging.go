package logging

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// New creates a new zerolog logger with console and file output
func New() zerolog.Logger {
	return NewWithLevel("info")
}

// NewWithLevel is New with a minimum level given by name. Unknown names
// fall back to info.
func NewWithLevel(level string) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return newLogger(console, logPath(), level)
}

func newLogger(console io.Writer, path, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = console
	logFile, fileErr := openLogFile(path)
	if fileErr == nil {
		// Multi-writer: console + file
		out = zerolog.MultiLevelWriter(console, logFile)
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger()
	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("path", path).Msg("Logging to console only")
	}
	return logger
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// logPath returns platform-specific log file path
func logPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Logs"
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/state"
		}
	}

	return filepath.Join(base, "alsacap", "alsacap.log")
}
