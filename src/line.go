package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	The one digital output that keys the transmitter.
 *
 * Description:	Both the rigctl server and the watchdog drive the same
 *		physical line.  Neither owns it.  The line itself is the
 *		only place they meet, so every backend must make a Write
 *		visible to the next Read without any buffering in between.
 *
 *		Logical true always means "transmitting".  Active-low
 *		hardware is handled by the backend's invert setting.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
)

// Line is a single push-to-talk output.
//
// Write must be idempotent.  Implementations return errors for I/O
// failures and never panic on them.
type Line interface {
	Write(active bool) error
	Read() (bool, error)
	Close() error
}

const (
	LineMethodGPIO   = "gpio"   // sysfs value file
	LineMethodGPIOD  = "gpiod"  // GPIO character device
	LineMethodSerial = "serial" // RTS or DTR of a serial port
)

var ErrUnknownLineMethod = errors.New("unknown line method")

// OpenLine opens the backend selected by cfg.Method.
//
// It never changes the line level except where the kernel insists on
// an initial value when the line is claimed (gpiod).  Callers that want
// a fail-safe OFF at startup write it themselves.
func OpenLine(cfg LineConfig) (Line, error) {
	switch cfg.Method {
	case LineMethodGPIO:
		return NewGPIOLine(cfg.Path, cfg.Invert), nil
	case LineMethodGPIOD:
		return OpenGPIODLine(cfg.Chip, cfg.Offset, cfg.Invert)
	case LineMethodSerial:
		return OpenSerialLine(cfg.Device, cfg.Signal, cfg.Invert)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLineMethod, cfg.Method)
	}
}

// SharesAcrossProcesses reports whether a second process can open the
// same line while the first still holds it.
func (cfg LineConfig) SharesAcrossProcesses() bool {
	return cfg.Method == LineMethodGPIO
}

func boolToLevel(active bool, invert bool) int {
	if active != invert {
		return 1
	}

	return 0
}

func levelToBool(level int, invert bool) bool {
	return (level != 0) != invert
}
