package main

// Standalone transmit timeout watchdog.  Polls the PTT line and turns it
// off once it has been on for longer than the timeout.  Runs apart from
// the rigctl server so that it keeps working if the server does not.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	rigptt "github.com/doismellburning/rigptt/src"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	var flags = rigptt.NewFlags("rigptt-watchdog", false)
	flags.SetOutput(stderr)

	var cfg, err = flags.Parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	if err != nil {
		fmt.Fprintf(stderr, "rigptt-watchdog: %s\n", err)
		return 2
	}

	if flags.ShowVersion() {
		fmt.Fprintln(stderr, rigptt.Version("rigptt-watchdog"))
		return 0
	}

	var logger, logErr = rigptt.NewLogger(stderr, cfg.Log)
	if logErr != nil {
		fmt.Fprintf(stderr, "rigptt-watchdog: %s\n", logErr)
		return 2
	}

	// Only a signal stops the watchdog.
	var ctx, stop = signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()

	var runErr = rigptt.RunWatchdog(ctx, cfg, logger)
	if runErr != nil {
		logger.Error("rigptt-watchdog failed", "err", runErr)
		return 1
	}

	return 0
}
