// Package log constructs the zerolog logger used by the build driver and
// bridges it to logr for the library packages.
package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

// Format selects the log encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// New creates a logger writing to out. An empty level means info. Inside
// Kubernetes the console format falls back to JSON on stderr.
func New(out io.Writer, level string, format Format) (*zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	var output io.Writer
	switch {
	case format == FormatJSON:
		output = out
	case os.Getenv("KUBERNETES_SERVICE_HOST") != "":
		output = os.Stderr
	case format == FormatConsole || format == "":
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(output).Level(lvl).With().Timestamp().Logger()
	return &logger, nil
}

// Logr adapts a zerolog logger. logr V-levels map to zerolog debug and trace.
func Logr(z *zerolog.Logger) logr.Logger {
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
	return zerologr.New(z)
}
