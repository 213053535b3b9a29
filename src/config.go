package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	Configuration for the rigctl PTT server and watchdog.
 *
 * Description:	Start from DefaultConfig, overlay the YAML file if one
 *		is given, then overlay whatever was on the command line.
 *		Every component gets its section at construction time.
 *
 *		A minimal file:
 *
 *			line:
 *			  method: gpio
 *			  path: /sys/class/gpio/gpio116/value
 *			watchdog:
 *			  enabled: true
 *			  timeout: 15m
 *
 *---------------------------------------------------------------*/

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddress    = "0.0.0.0:4532"
	DefaultWatchdogInterval = time.Second
	DefaultWatchdogTimeout  = 15 * time.Minute
	DefaultEventPattern     = "%Y-%m-%d.csv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Rigctl   RigctlConfig   `yaml:"rigctl"`
	Line     LineConfig     `yaml:"line"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Log      LogConfig      `yaml:"log"`
	Events   EventsConfig   `yaml:"events"`
	DNSSD    DNSSDConfig    `yaml:"dns_sd"`
}

type RigctlConfig struct {
	Listen string `yaml:"listen"`
	// "fire-and-forget" or "report-errors".
	Ack string `yaml:"ack"`
}

type LineConfig struct {
	Method string `yaml:"method"`
	Invert bool   `yaml:"invert"`

	// gpio
	Path   string `yaml:"path"`
	Export int    `yaml:"export"` // GPIO number to export first, -1 for none
	Sysfs  string `yaml:"sysfs"`

	// gpiod
	Chip   string `yaml:"chip"`
	Offset int    `yaml:"offset"`

	// serial
	Device string `yaml:"device"`
	Signal string `yaml:"signal"`
}

type WatchdogConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text, json or logfmt
	Timestamps bool   `yaml:"timestamps"`
}

// EventsConfig selects the operator event log.  Use File or Dir, not both.
type EventsConfig struct {
	File    string `yaml:"file"`
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"` // strftime pattern for daily names in Dir
}

type DNSSDConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

func DefaultConfig() Config {
	return Config{
		Rigctl: RigctlConfig{
			Listen: DefaultListenAddress,
			Ack:    AckFireAndForget.String(),
		},
		Line: LineConfig{ //nolint:exhaustruct
			Method: LineMethodGPIO,
			Path:   DefaultGPIOPath,
			Export: -1,
			Sysfs:  DefaultSysfsGPIORoot,
			Chip:   "gpiochip0",
			Signal: SerialSignalRTS,
		},
		Watchdog: WatchdogConfig{
			Enabled:  false,
			Interval: DefaultWatchdogInterval,
			Timeout:  DefaultWatchdogTimeout,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Timestamps: true,
		},
		Events: EventsConfig{ //nolint:exhaustruct
			Pattern: DefaultEventPattern,
		},
		DNSSD: DNSSDConfig{}, //nolint:exhaustruct
	}
}

// LoadConfig reads a YAML file over the defaults.  Unknown keys are
// rejected so that typos don't silently fall back to a default.
func LoadConfig(path string) (Config, error) {
	var cfg = DefaultConfig()

	var data, err = os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var decodeErr = decodeConfig(data, &cfg)
	if decodeErr != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, decodeErr)
	}

	return cfg, nil
}

func decodeConfig(data []byte, cfg *Config) error {
	var dec = yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var err = dec.Decode(cfg)
	if errors.Is(err, io.EOF) {
		// Empty file.
		return nil
	}

	return err
}

func (c Config) Validate() error {
	var _, port, err = net.SplitHostPort(c.Rigctl.Listen)
	if err != nil {
		return fmt.Errorf("%w: rigctl.listen %q: %w", ErrInvalidConfig, c.Rigctl.Listen, err)
	}

	var n, portErr = strconv.Atoi(port)
	if portErr != nil || n < 0 || n > 65535 {
		return fmt.Errorf("%w: rigctl.listen port %q", ErrInvalidConfig, port)
	}

	var _, ackErr = ParseAckPolicy(c.Rigctl.Ack)
	if ackErr != nil {
		return fmt.Errorf("%w: rigctl.ack: %w", ErrInvalidConfig, ackErr)
	}

	var lineErr = c.Line.validate()
	if lineErr != nil {
		return lineErr
	}

	if c.Watchdog.Interval <= 0 {
		return fmt.Errorf("%w: watchdog.interval must be positive", ErrInvalidConfig)
	}

	if c.Watchdog.Timeout <= 0 {
		return fmt.Errorf("%w: watchdog.timeout must be positive", ErrInvalidConfig)
	}

	var _, levelErr = log.ParseLevel(c.Log.Level)
	if levelErr != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, levelErr)
	}

	var _, formatErr = parseLogFormat(c.Log.Format)
	if formatErr != nil {
		return fmt.Errorf("%w: log.format: %w", ErrInvalidConfig, formatErr)
	}

	if c.Events.File != "" && c.Events.Dir != "" {
		return fmt.Errorf("%w: events.file and events.dir are mutually exclusive", ErrInvalidConfig)
	}

	if c.Events.Dir != "" {
		var _, patternErr = strftime.New(c.Events.Pattern)
		if patternErr != nil {
			return fmt.Errorf("%w: events.pattern: %w", ErrInvalidConfig, patternErr)
		}
	}

	return nil
}

func (l LineConfig) validate() error {
	switch l.Method {
	case LineMethodGPIO:
		if l.Path == "" && l.Export < 0 {
			return fmt.Errorf("%w: line.path is required for gpio", ErrInvalidConfig)
		}
	case LineMethodGPIOD:
		if l.Chip == "" || l.Offset < 0 {
			return fmt.Errorf("%w: line.chip and a non-negative line.offset are required for gpiod", ErrInvalidConfig)
		}
	case LineMethodSerial:
		if l.Device == "" {
			return fmt.Errorf("%w: line.device is required for serial", ErrInvalidConfig)
		}

		var _, sigErr = parseSerialSignal(l.Signal)
		if sigErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, sigErr)
		}
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnknownLineMethod, l.Method)
	}

	return nil
}
