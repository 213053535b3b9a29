package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	Unkey a transmitter that has been keyed for too long.
 *
 * Description:	Poll the line at a fixed interval.  Remember when it was
 *		first seen on.  Once it has been on continuously for more
 *		than the timeout, force it off.
 *
 *		We read the line itself, not the controller, so this
 *		works the same in its own process.  The watchdog only
 *		ever writes OFF.
 *
 *		Nothing stops the loop except shutdown.  A failed read
 *		costs one tick.  A failed cutoff is logged loudly and
 *		retried on the next tick, since the window stays open.
 *
 *		A restart forgets when the current window began; timing
 *		starts over from the first tick after the restart.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

type Watchdog struct {
	line     Line
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger
	events   *EventLog
	now      func() time.Time

	// OnCutoff, if set, runs after every successful forced cutoff.
	// It must not call back into the watchdog.
	OnCutoff func()

	mu          sync.Mutex
	activeSince time.Time
	windowOpen  bool

	// A dead line would otherwise log every second forever.
	readErrorLog rate.Sometimes
}

func NewWatchdog(line Line, cfg WatchdogConfig, logger *log.Logger, events *EventLog) *Watchdog {
	var interval = cfg.Interval
	if interval <= 0 {
		interval = DefaultWatchdogInterval
	}

	var timeout = cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultWatchdogTimeout
	}

	return &Watchdog{ //nolint:exhaustruct
		line:         line,
		interval:     interval,
		timeout:      timeout,
		logger:       componentLogger(logger, "watchdog"),
		events:       events,
		now:          time.Now,
		readErrorLog: rate.Sometimes{First: 3, Interval: time.Minute}, //nolint:exhaustruct
	}
}

// Run polls until ctx is done.  The first poll happens immediately.
func (w *Watchdog) Run(ctx context.Context) error {
	w.logger.Info("Watchdog started", "interval", w.interval, "timeout", w.timeout)

	var ticker = time.NewTicker(w.interval)
	defer ticker.Stop()

	w.safeTick(w.now())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watchdog stopped")
			return nil
		case <-ticker.C:
			w.safeTick(w.now())
		}
	}
}

// safeTick keeps a misbehaving line from taking the loop down with it.
func (w *Watchdog) safeTick(now time.Time) {
	defer func() {
		var r = recover()
		if r != nil {
			w.logger.Error("Watchdog tick panicked", "panic", r)
			w.events.Record(SourceWatchdog, EventIOError, false, fmt.Sprint(r))
		}
	}()

	w.Tick(now)
}

// Tick is one poll of the line, as of now.
func (w *Watchdog) Tick(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var active, err = w.line.Read()
	if err != nil {
		w.readErrorLog.Do(func() {
			w.logger.Error("Can't read PTT line", "err", err)
		})
		w.events.Record(SourceWatchdog, EventIOError, false, err.Error())

		return
	}

	if !active {
		if w.windowOpen {
			w.logger.Debug("Transmit window closed", "held", now.Sub(w.activeSince))
		}

		w.windowOpen = false
		w.activeSince = time.Time{}

		return
	}

	if !w.windowOpen {
		w.windowOpen = true
		w.activeSince = now
		w.logger.Debug("Transmit window opened")

		return
	}

	var held = now.Sub(w.activeSince)
	if held <= w.timeout {
		return
	}

	var writeErr = w.line.Write(false)
	if writeErr != nil {
		// The transmitter may still be keyed.  Leave the window open so
		// the next tick tries again.
		w.logger.Error("WATCHDOG CUTOFF FAILED, transmitter may still be keyed", "held", held, "err", writeErr)
		w.events.Record(SourceWatchdog, EventCutoffFailed, true, writeErr.Error())

		return
	}

	w.logger.Warn("Watchdog timeout, PTT forced off", "held", held, "since", w.activeSince)
	w.events.Record(SourceWatchdog, EventTimeout, false, held.String())

	w.windowOpen = false
	w.activeSince = time.Time{}

	if w.OnCutoff != nil {
		w.OnCutoff()
	}
}

// ActiveSince reports when the current transmit window began.
func (w *Watchdog) ActiveSince() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.activeSince, w.windowOpen
}
