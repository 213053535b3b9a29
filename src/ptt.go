package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	Own the in-process view of the PTT line.
 *
 * Description:	Writes are serialized: the hardware write and the cache
 *		update happen together under one lock, so the cache never
 *		shows a value that didn't reach the line.
 *
 *		The cache is only as good as the last successful write.
 *		The watchdog can turn the line off behind our back and
 *		nobody tells us.  GetPTT keeps reporting the old value
 *		until the next SetPTT.  That is deliberate; the two may
 *		live in different processes.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// PTT is what the rigctl protocol needs from a controller.
type PTT interface {
	SetPTT(active bool) error
	GetPTT() bool
}

type Controller struct {
	mu     sync.Mutex // held across line write + cache update
	line   Line
	active atomic.Bool
	logger *log.Logger
	events *EventLog
}

// NewController drives the line OFF before anything else.  We never
// start out transmitting.
func NewController(line Line, logger *log.Logger, events *EventLog) (*Controller, error) {
	var c = &Controller{ //nolint:exhaustruct
		line:   line,
		logger: componentLogger(logger, "ptt"),
		events: events,
	}

	var err = line.Write(false)
	if err != nil {
		c.events.Record(SourceController, EventIOError, false, err.Error())
		return nil, fmt.Errorf("initial PTT off: %w", err)
	}

	c.logger.Info("PTT initialised off")

	return c, nil
}

func (c *Controller) SetPTT(active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err = c.line.Write(active)
	if err != nil {
		c.logger.Error("Failed to set PTT", "active", active, "err", err)
		c.events.Record(SourceController, EventIOError, active, err.Error())

		return err
	}

	c.active.Store(active)

	c.logger.Info("PTT set", "active", active)
	c.events.Record(SourceController, EventPTT, active, "")

	return nil
}

// GetPTT returns the cached state.  It never touches the line.
func (c *Controller) GetPTT() bool {
	return c.active.Load()
}

// Close makes sure the transmitter is unkeyed on the way out, then
// releases the line.
func (c *Controller) Close() error {
	var offErr = c.SetPTT(false)
	var closeErr = c.line.Close()

	if offErr != nil {
		return offErr
	}

	return closeErr
}
