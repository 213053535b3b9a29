package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	Wire the pieces together for the two programs.
 *
 *		RunServer	rigctl server, optionally with the watchdog
 *				running alongside in the same process.
 *
 *		RunWatchdog	the watchdog on its own, with its own handle
 *				on the line.  Keeps working if the server
 *				hangs or dies.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// OpenServerLine exports the GPIO first if asked to.
func OpenServerLine(cfg LineConfig) (Line, error) {
	if cfg.Method == LineMethodGPIO && cfg.Export >= 0 {
		var path, err = ExportGPIO(cfg.Sysfs, cfg.Export, cfg.Invert)
		if err != nil {
			return nil, err
		}

		cfg.Path = path
	}

	return OpenLine(cfg)
}

// RunServer serves until ctx is done.  On the way out the line is
// driven OFF.  ready, if not nil, gets the listening address once
// clients can connect.
func RunServer(ctx context.Context, cfg Config, logger *log.Logger, ready func(net.Addr)) error {
	if logger == nil {
		logger = discardLogger()
	}

	var validateErr = cfg.Validate()
	if validateErr != nil {
		return validateErr
	}

	var events, eventsErr = OpenEventLog(cfg.Events, logger)
	if eventsErr != nil {
		return eventsErr
	}
	defer events.Close()

	var line, lineErr = OpenServerLine(cfg.Line)
	if lineErr != nil {
		return lineErr
	}

	var ctl, ctlErr = NewController(line, logger, events)
	if ctlErr != nil {
		line.Close()
		return ctlErr
	}

	defer func() {
		var closeErr = ctl.Close()
		if closeErr != nil {
			logger.Error("Failed to turn PTT off on exit", "err", closeErr)
		}
	}()

	var srv, srvErr = NewServer(cfg.Rigctl, ctl, logger)
	if srvErr != nil {
		return srvErr
	}

	var listenErr = srv.Listen()
	if listenErr != nil {
		return listenErr
	}

	var ctx2, cancel = context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	if cfg.Watchdog.Enabled {
		var wd = NewWatchdog(line, cfg.Watchdog, logger, events)
		wd.OnCutoff = func() {
			logger.Warn("rigctl clients will see the old PTT state until the next T command")
		}

		wg.Go(func() {
			wd.Run(ctx2) //nolint:errcheck
		})
	}

	if cfg.DNSSD.Enabled {
		var announceErr = announceAddr(ctx2, cfg.DNSSD, srv.Addr(), logger)
		if announceErr != nil {
			logger.Error("DNS-SD announcement failed", "err", announceErr)
		}
	}

	if ready != nil {
		ready(srv.Addr())
	}

	var serveErr = srv.Serve(ctx2)

	cancel()
	wg.Wait()

	return serveErr
}

func announceAddr(ctx context.Context, cfg DNSSDConfig, addr net.Addr, logger *log.Logger) error {
	var tcpAddr, ok = addr.(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("can't announce non-TCP address %v", addr)
	}

	return AnnounceRigctl(ctx, cfg, tcpAddr.Port, logger)
}

var errWatchdogDisabled = errors.New("the watchdog needs a line it can share with the server")

// RunWatchdog polls until ctx is done.  It does not touch the line at
// startup or on exit.
func RunWatchdog(ctx context.Context, cfg Config, logger *log.Logger) error {
	if logger == nil {
		logger = discardLogger()
	}

	var validateErr = cfg.Validate()
	if validateErr != nil {
		return validateErr
	}

	// The server holds gpiod and serial lines exclusively.
	if !cfg.Line.SharesAcrossProcesses() {
		return fmt.Errorf("%w: line method %q; enable the watchdog in the server instead", errWatchdogDisabled, cfg.Line.Method)
	}

	var events, eventsErr = OpenEventLog(cfg.Events, logger)
	if eventsErr != nil {
		return eventsErr
	}
	defer events.Close()

	// The server does the exporting.  We only need to find the node.
	if cfg.Line.Method == LineMethodGPIO && cfg.Line.Export >= 0 {
		var name, findErr = findGPIOName(cfg.Line.Sysfs, cfg.Line.Export)
		if findErr != nil {
			return findErr
		}

		cfg.Line.Path = filepath.Join(cfg.Line.Sysfs, name, "value")
	}

	var line, lineErr = OpenLine(cfg.Line)
	if lineErr != nil {
		return lineErr
	}
	defer line.Close()

	return NewWatchdog(line, cfg.Watchdog, logger, events).Run(ctx)
}
