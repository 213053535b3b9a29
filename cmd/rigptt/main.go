package main

/*-------------------------------------------------------------------
 *
 * Name:        main
 *
 * Purpose:     rigctl-compatible PTT server.
 *
 * Description:	Emulates just enough of rigctld for a client to key the
 *		transmitter through one GPIO, RTS/DTR or gpiod line.
 *		Optionally runs the transmit timeout watchdog in the
 *		same process.  The line is turned off on exit.
 *
 *--------------------------------------------------------------------*/

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
	var flags = rigptt.NewFlags("rigptt", true)
	flags.SetOutput(stderr)

	var cfg, err = flags.Parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	if err != nil {
		fmt.Fprintf(stderr, "rigptt: %s\n", err)
		return 2
	}

	if flags.ShowVersion() {
		fmt.Fprintln(stderr, rigptt.Version("rigptt"))
		return 0
	}

	var logger, logErr = rigptt.NewLogger(stderr, cfg.Log)
	if logErr != nil {
		fmt.Fprintf(stderr, "rigptt: %s\n", logErr)
		return 2
	}

	var ctx, stop = signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()

	var runErr = rigptt.RunServer(ctx, cfg, logger, nil)
	if runErr != nil {
		logger.Error("rigptt failed", "err", runErr)
		return 1
	}

	return 0
}
