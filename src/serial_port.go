package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	PTT through the RTS or DTR line of a serial port.
 *
 * Description:	Traditionally this is how PTT was done.  A transistor
 *		on RTS (or DTR) keys the radio.
 *
 *		Like gpiod, the port is held open for the life of the
 *		process, so the watchdog has to run in the same process.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/term"
)

const (
	SerialSignalRTS = "RTS"
	SerialSignalDTR = "DTR"
)

var errLineClosed = errors.New("line closed")

// modemLines is the part of *term.Term we use.
type modemLines interface {
	SetRTS(v bool) error
	RTS() (bool, error)
	SetDTR(v bool) error
	DTR() (bool, error)
	Close() error
}

type SerialLine struct {
	mu     sync.Mutex
	port   modemLines
	useDTR bool
	invert bool
}

func OpenSerialLine(device string, signal string, invert bool) (*SerialLine, error) {
	var useDTR, sigErr = parseSerialSignal(signal)
	if sigErr != nil {
		return nil, sigErr
	}

	var fd, err = term.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}

	return &SerialLine{port: fd, useDTR: useDTR, invert: invert}, nil //nolint:exhaustruct
}

func parseSerialSignal(signal string) (bool, error) {
	switch strings.ToUpper(signal) {
	case "", SerialSignalRTS:
		return false, nil
	case SerialSignalDTR:
		return true, nil
	default:
		return false, fmt.Errorf("serial signal must be RTS or DTR, not %q", signal)
	}
}

func (l *SerialLine) Write(active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil {
		return fmt.Errorf("serial line: %w", errLineClosed)
	}

	var on = active != l.invert

	if l.useDTR {
		return l.port.SetDTR(on)
	}

	return l.port.SetRTS(on)
}

func (l *SerialLine) Read() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil {
		return false, fmt.Errorf("serial line: %w", errLineClosed)
	}

	var on bool
	var err error

	if l.useDTR {
		on, err = l.port.DTR()
	} else {
		on, err = l.port.RTS()
	}

	if err != nil {
		return false, err
	}

	return on != l.invert, nil
}

func (l *SerialLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil {
		return nil
	}

	var err = l.port.Close()
	l.port = nil

	return err
}
