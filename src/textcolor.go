package rigptt

// Console logging.  Everything an operator might want to see goes through
// one charmbracelet logger; components get a child with their own prefix.

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

func parseLogFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", s)
	}
}

func NewLogger(w io.Writer, cfg LogConfig) (*log.Logger, error) {
	var level, levelErr = log.ParseLevel(cfg.Level)
	if levelErr != nil {
		return nil, levelErr
	}

	var formatter, formatErr = parseLogFormat(cfg.Format)
	if formatErr != nil {
		return nil, formatErr
	}

	return log.NewWithOptions(w, log.Options{ //nolint:exhaustruct
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: cfg.Timestamps,
		TimeFormat:      time.DateTime,
	}), nil
}

// discardLogger is for components built without one.
func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func componentLogger(parent *log.Logger, prefix string) *log.Logger {
	if parent == nil {
		return discardLogger()
	}

	return parent.WithPrefix(prefix)
}
