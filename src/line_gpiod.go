package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	PTT through the GPIO character device (libgpiod style).
 *
 * Description:	The kernel hands a requested line to exactly one
 *		process, so a separate watchdog process cannot open it.
 *		Run the watchdog inside the server process instead; both
 *		then share this handle.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

const gpiodConsumer = "rigptt"

// gpiodOutputLine is the part of *gpiocdev.Line we use.
type gpiodOutputLine interface {
	SetValue(v int) error
	Value() (int, error)
	Close() error
}

type GPIODLine struct {
	mu     sync.Mutex
	line   gpiodOutputLine
	invert bool
}

// OpenGPIODLine requests offset on chip as an output.  The kernel
// needs an initial level, so the line starts unkeyed.
func OpenGPIODLine(chip string, offset int, invert bool) (*GPIODLine, error) {
	var l, err = gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(boolToLevel(false, invert)),
		gpiocdev.WithConsumer(gpiodConsumer))
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}

	return &GPIODLine{line: l, invert: invert}, nil //nolint:exhaustruct
}

func (l *GPIODLine) Write(active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.line == nil {
		return fmt.Errorf("gpiod line: %w", errLineClosed)
	}

	return l.line.SetValue(boolToLevel(active, l.invert))
}

func (l *GPIODLine) Read() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.line == nil {
		return false, fmt.Errorf("gpiod line: %w", errLineClosed)
	}

	var v, err = l.line.Value()
	if err != nil {
		return false, err
	}

	return levelToBool(v, l.invert), nil
}

func (l *GPIODLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.line == nil {
		return nil
	}

	var err = l.line.Close()
	l.line = nil

	return err
}
