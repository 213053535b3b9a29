package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	PTT through the sysfs GPIO interface.
 *
 * Description:	The value file is opened for every operation and closed
 *		again straight away.  Nothing is cached, so the server and
 *		a separate watchdog process always see each other's writes.
 *
 *		Any ordinary file works too, which is handy for testing
 *		and for dry runs without hardware.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const DefaultGPIOPath = "/sys/class/gpio/gpio116/value"

const DefaultSysfsGPIORoot = "/sys/class/gpio"

type GPIOLine struct {
	path   string
	invert bool
}

func NewGPIOLine(path string, invert bool) *GPIOLine {
	return &GPIOLine{path: path, invert: invert}
}

func (l *GPIOLine) Path() string {
	return l.path
}

func (l *GPIOLine) Write(active bool) error {
	var fd, err = os.OpenFile(l.path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}

	var stemp = strconv.Itoa(boolToLevel(active, l.invert)) + "\n"

	var _, writeErr = fd.WriteString(stemp)
	var closeErr = fd.Close()

	if writeErr != nil {
		return fmt.Errorf("write %s: %w", l.path, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", l.path, closeErr)
	}

	return nil
}

func (l *GPIOLine) Read() (bool, error) {
	var data, err = os.ReadFile(l.path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", l.path, err)
	}

	var v, convErr = strconv.Atoi(strings.TrimSpace(string(data)))
	if convErr != nil {
		return false, fmt.Errorf("unexpected value %q in %s: %w", data, l.path, convErr)
	}

	return levelToBool(v, l.invert), nil
}

// Close is a no-op; nothing is held open between operations.
func (l *GPIOLine) Close() error {
	return nil
}

// udev needs a moment to fix up permissions on a freshly exported pin.
var exportSettle = 250 * time.Millisecond

/*-------------------------------------------------------------------
 *
 * Name:	ExportGPIO
 *
 * Purpose:	Ask the kernel to export a GPIO number, make it an
 *		output and return the path of its value file.
 *
 * Inputs:	root	- Normally /sys/class/gpio.
 *		num	- GPIO number.
 *		invert	- Active low.  The initial level is chosen so
 *			  that the transmitter starts out unkeyed.
 *
 * Description:	Raspberry Pi was easy.  GPIO 24 has the name gpio24.
 *		Others, such as the Cubieboard, use names like
 *		gpio24_ph11, so look for an exact match first and then
 *		for the gpioNN_ prefix.
 *
 *--------------------------------------------------------------------*/

func ExportGPIO(root string, num int, invert bool) (string, error) {
	var exportPath = filepath.Join(root, "export")

	var fd, err = os.OpenFile(exportPath, os.O_WRONLY, 0)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", exportPath, err)
	}

	var _, writeErr = fd.WriteString(strconv.Itoa(num))
	fd.Close()

	// EBUSY means it was exported already.
	if writeErr != nil && !errors.Is(writeErr, syscall.EBUSY) {
		return "", fmt.Errorf("export gpio %d: %w", num, writeErr)
	}

	if writeErr == nil {
		time.Sleep(exportSettle)
	}

	var name, findErr = findGPIOName(root, num)
	if findErr != nil {
		return "", findErr
	}

	var directionPath = filepath.Join(root, name, "direction")

	// "low" and "high" set the direction and the initial level in one go.
	var direction = "low"
	if invert {
		direction = "high"
	}

	var dfd, dirErr = os.OpenFile(directionPath, os.O_WRONLY|os.O_TRUNC, 0)
	if dirErr == nil {
		_, dirErr = dfd.WriteString(direction)
		dfd.Close()
	}

	if dirErr != nil {
		return "", fmt.Errorf("set direction of gpio %d: %w", num, dirErr)
	}

	return filepath.Join(root, name, "value"), nil
}

func findGPIOName(root string, num int) (string, error) {
	var entries, err = os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", root, err)
	}

	var exact = fmt.Sprintf("gpio%d", num)
	var prefix = exact + "_"
	var found string

	for _, entry := range entries {
		if entry.Name() == exact {
			return exact, nil
		}

		if found == "" && strings.HasPrefix(entry.Name(), prefix) {
			found = entry.Name()
		}
	}

	if found == "" {
		return "", fmt.Errorf("no sysfs node for gpio %d under %s", num, root)
	}

	return found, nil
}
