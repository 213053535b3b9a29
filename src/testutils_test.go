package rigptt

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

// memLine is an in-memory Line.  It records every write and notices if
// two writes ever overlap.
type memLine struct {
	mu       sync.Mutex
	active   bool
	writes   []bool
	writeErr error
	readErr  error
	closed   bool

	delay    time.Duration
	inWrite  atomic.Int32
	overlaps atomic.Int32
}

func (m *memLine) Write(active bool) error {
	if m.inWrite.Add(1) > 1 {
		m.overlaps.Add(1)
	}
	defer m.inWrite.Add(-1)

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}

	m.active = active
	m.writes = append(m.writes, active)

	return nil
}

func (m *memLine) Read() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return false, m.readErr
	}

	return m.active, nil
}

func (m *memLine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

// set changes the level behind everybody's back, like another process would.
func (m *memLine) set(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = active
}

func (m *memLine) failWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeErr = err
}

func (m *memLine) failReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readErr = err
}

func (m *memLine) level() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active
}

func (m *memLine) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.writes)
}

// syncBuffer lets the logger and the test touch the same buffer from
// different goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newTestLogger(t *testing.T) (*log.Logger, *syncBuffer) {
	t.Helper()

	var buf = new(syncBuffer)
	var logger = log.NewWithOptions(buf, log.Options{ //nolint:exhaustruct
		Level:     log.DebugLevel,
		Formatter: log.LogfmtFormatter,
	})

	return logger, buf
}

func AssertLogContains(t *testing.T, buf *syncBuffer, expected string) {
	t.Helper()

	assert.Contains(t, buf.String(), expected)
}
