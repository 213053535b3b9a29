package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	Keep an operator audit trail of PTT events.
 *
 * Description:	CSV so it can be pulled straight into a spreadsheet.
 *		There are two alternatives here, like the packet log:
 *
 *		file	Specify full file path.  Use logrotate to keep
 *			the size under control.
 *
 *		dir	Daily names will be created here, from a strftime
 *			pattern.  Dates are UTC.
 *
 *		The file is kept open.  We don't open/close for every
 *		new item, except when the daily name rolls over.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

const (
	EventPTT          = "ptt"
	EventTimeout      = "timeout"
	EventCutoffFailed = "cutoff_failed"
	EventIOError      = "io_error"
)

const (
	SourceController = "controller"
	SourceWatchdog   = "watchdog"
)

var eventHeader = []string{"utime", "isotime", "source", "event", "active", "detail"}

// EventLog is safe for concurrent use.  A nil *EventLog discards everything.
type EventLog struct {
	mu sync.Mutex

	path    string // single file, or ...
	dir     string // ... directory for daily files
	pattern *strftime.Strftime

	fp       *os.File
	w        *csv.Writer
	openName string
	now      func() time.Time
	logger   *log.Logger
	disabled bool
}

// OpenEventLog returns nil, nil when neither a file nor a directory is configured.
func OpenEventLog(cfg EventsConfig, logger *log.Logger) (*EventLog, error) {
	if cfg.File == "" && cfg.Dir == "" {
		return nil, nil //nolint:nilnil
	}

	var e = &EventLog{ //nolint:exhaustruct
		path:   cfg.File,
		dir:    cfg.Dir,
		now:    time.Now,
		logger: componentLogger(logger, "events"),
	}

	if cfg.Dir != "" {
		var pattern = cfg.Pattern
		if pattern == "" {
			pattern = DefaultEventPattern
		}

		var p, err = strftime.New(pattern)
		if err != nil {
			return nil, fmt.Errorf("event file pattern %q: %w", pattern, err)
		}

		e.pattern = p

		var stat, statErr = os.Stat(cfg.Dir)
		if statErr == nil && !stat.IsDir() {
			return nil, fmt.Errorf("event log location %q is not a directory", cfg.Dir)
		}

		if statErr != nil {
			// We don't create multiple levels like "mkdir -p".
			var mkdirErr = os.Mkdir(cfg.Dir, 0o755)
			if mkdirErr != nil {
				return nil, fmt.Errorf("create event log directory: %w", mkdirErr)
			}

			e.logger.Info("Event log directory created", "dir", cfg.Dir)
		}
	}

	return e, nil
}

// Record appends one event.  Failures are logged, never returned: the
// audit trail must not get in the way of driving the line.
func (e *EventLog) Record(source string, event string, active bool, detail string) {
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disabled {
		return
	}

	var now = e.now().UTC()

	var openErr = e.openFor(now)
	if openErr != nil {
		e.logger.Error("Can't open event log", "err", openErr)
		return
	}

	var flag = "0"
	if active {
		flag = "1"
	}

	var writeErr = e.w.Write([]string{
		strconv.FormatInt(now.Unix(), 10),
		now.Format("2006-01-02T15:04:05Z"),
		source,
		event,
		flag,
		detail,
	})
	if writeErr == nil {
		e.w.Flush()
		writeErr = e.w.Error()
	}

	if writeErr != nil {
		e.logger.Error("Can't write event log", "err", writeErr)
	}
}

func (e *EventLog) openFor(now time.Time) error {
	var fullPath = e.path

	if e.pattern != nil {
		var fname = e.pattern.FormatString(now)

		// Close current file if name has changed.
		if e.fp != nil && fname != e.openName {
			e.closeLocked()
		}

		fullPath = filepath.Join(e.dir, fname)
		e.openName = fname
	}

	if e.fp != nil {
		return nil
	}

	// A header only if this will be the first line.
	var _, statErr = os.Stat(fullPath)
	var alreadyThere = statErr == nil

	var f, err = os.OpenFile(fullPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}

	e.logger.Debug("Opened event log", "file", fullPath)

	e.fp = f
	e.w = csv.NewWriter(f)

	if !alreadyThere {
		var headerErr = e.w.Write(eventHeader)
		if headerErr != nil {
			return headerErr
		}
	}

	return nil
}

func (e *EventLog) closeLocked() {
	if e.fp == nil {
		return
	}

	e.w.Flush()
	e.fp.Close()
	e.fp = nil
	e.w = nil
}

func (e *EventLog) Close() error {
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.closeLocked()
	e.disabled = true

	return nil
}
