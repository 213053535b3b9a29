package rigptt

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEndToEnd_WatchdogCutoffLeavesCacheStale runs the whole story: a
// client keys up, the watchdog (with its own handle, as if in another
// process) cuts it off, and the client still reads the old cached state
// until it sends another T.
func TestEndToEnd_WatchdogCutoffLeavesCacheStale(t *testing.T) {
	var path = newValueFile(t, "0\n")
	var logger, _ = newTestLogger(t)

	var ctl, err = NewController(NewGPIOLine(path, false), logger, nil)
	require.NoError(t, err)

	var addr = startTestServer(t, ctl, AckFireAndForget)
	var c = dialTestServer(t, addr)

	var timeout = 15 * time.Minute
	var wd = NewWatchdog(NewGPIOLine(path, false), WatchdogConfig{Interval: time.Second, Timeout: timeout}, logger, nil) //nolint:exhaustruct

	c.roundTrip("T 1\n", "RPRT 0\n")
	assert.Equal(t, "1\n", readValueFile(t, path))

	wd.Tick(epoch)
	wd.Tick(epoch.Add(timeout))
	assert.Equal(t, "1\n", readValueFile(t, path), "not yet")

	wd.Tick(epoch.Add(timeout + time.Second))
	assert.Equal(t, "0\n", readValueFile(t, path), "watchdog should have cut PTT")

	c.roundTrip("t\n", "1\n")

	c.roundTrip("T 1\n", "RPRT 0\n")
	assert.Equal(t, "1\n", readValueFile(t, path))
	c.roundTrip("T 0\n", "RPRT 0\n")
	c.roundTrip("t\n", "0\n")
}

func testConfig(t *testing.T) (Config, string) {
	t.Helper()

	var dir = t.TempDir()
	var path = filepath.Join(dir, "value")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644))

	var cfg = DefaultConfig()
	cfg.Rigctl.Listen = "127.0.0.1:0"
	cfg.Line.Path = path
	cfg.Watchdog.Interval = 5 * time.Millisecond
	cfg.Watchdog.Timeout = 50 * time.Millisecond
	cfg.Events.File = filepath.Join(dir, "events.csv")

	return cfg, path
}

func TestRunServer(t *testing.T) {
	var cfg, path = testConfig(t)
	cfg.Watchdog.Enabled = true

	var logger, buf = newTestLogger(t)

	var ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	var addrs = make(chan net.Addr, 1)
	var done = make(chan error, 1)

	go func() {
		done <- RunServer(ctx, cfg, logger, func(a net.Addr) { addrs <- a })
	}()

	var addr net.Addr
	select {
	case addr = <-addrs:
	case err := <-done:
		t.Fatalf("RunServer returned early: %v", err)
	}

	assert.Equal(t, "0\n", readValueFile(t, path), "server starts with PTT off")

	var c = dialTestServer(t, addr.String())
	c.roundTrip("T 1\n", "RPRT 0\n")

	assert.Eventually(t, func() bool {
		var data, _ = os.ReadFile(path)
		return string(data) == "0\n"
	}, 5*time.Second, 5*time.Millisecond, "in-process watchdog should cut PTT")

	c.roundTrip("t\n", "1\n")

	c.roundTrip("T 1\n", "RPRT 0\n")

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunServer did not stop")
	}

	assert.Equal(t, "0\n", readValueFile(t, path), "PTT off on exit")
	AssertLogContains(t, buf, "old PTT state")

	var events = readValueFile(t, cfg.Events.File)
	assert.Contains(t, events, "utime,isotime,source,event,active,detail\n")
	assert.Contains(t, events, ",controller,ptt,1,")
	assert.Contains(t, events, ",watchdog,timeout,0,")
}

func TestRunServer_InvalidConfig(t *testing.T) {
	var cfg, _ = testConfig(t)
	cfg.Rigctl.Listen = "nowhere"

	var err = RunServer(context.Background(), cfg, nil, nil)

	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunServer_LineMissing(t *testing.T) {
	var cfg, _ = testConfig(t)
	cfg.Line.Path = filepath.Join(t.TempDir(), "missing")

	var err = RunServer(context.Background(), cfg, nil, nil)

	assert.Error(t, err)
}

func TestRunWatchdog(t *testing.T) {
	var cfg, path = testConfig(t)
	var logger, _ = newTestLogger(t)

	var ctx, cancel = context.WithCancel(context.Background())
	var done = make(chan error, 1)

	go func() {
		done <- RunWatchdog(ctx, cfg, logger)
	}()

	assert.Eventually(t, func() bool {
		var data, _ = os.ReadFile(path)
		return string(data) == "0\n"
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, readValueFile(t, cfg.Events.File), ",watchdog,timeout,0,")
}

func TestRunWatchdog_ExclusiveLine(t *testing.T) {
	var cfg, _ = testConfig(t)
	cfg.Line.Method = LineMethodGPIOD

	var err = RunWatchdog(context.Background(), cfg, nil)

	assert.ErrorIs(t, err, errWatchdogDisabled)
}

func TestOpenServerLine_Export(t *testing.T) {
	exportSettle = 0
	var root = fakeSysfs(t, "gpio116")

	var line, err = OpenServerLine(LineConfig{ //nolint:exhaustruct
		Method: LineMethodGPIO,
		Export: 116,
		Sysfs:  root,
	})
	require.NoError(t, err)

	require.NoError(t, line.Write(true))
	assert.Equal(t, "1\n", readValueFile(t, filepath.Join(root, "gpio116", "value")))
}
