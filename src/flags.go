package rigptt

// Command line handling shared by the server and the standalone watchdog.
// Flags override the config file, which overrides the defaults.  Only
// flags actually given on the command line override anything.

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

type Flags struct {
	fs         *pflag.FlagSet
	configFile string
	version    bool
	set        Config
	apply      map[string]func(*Config)
}

// NewFlags defines the flags for a program.  server adds the ones only
// the rigctl server has.
func NewFlags(name string, server bool) *Flags {
	var f = &Flags{ //nolint:exhaustruct
		fs:    pflag.NewFlagSet(name, pflag.ContinueOnError),
		set:   DefaultConfig(),
		apply: make(map[string]func(*Config)),
	}

	var fs = f.fs

	fs.StringVarP(&f.configFile, "config-file", "c", "", "Configuration file name (YAML).")
	fs.BoolVarP(&f.version, "version", "v", false, "Print version and exit.")

	fs.StringVarP(&f.set.Line.Method, "line-method", "m", f.set.Line.Method, "PTT line type: gpio, gpiod or serial.")
	f.on("line-method", func(c *Config) { c.Line.Method = f.set.Line.Method })
	fs.StringVarP(&f.set.Line.Path, "gpio-path", "g", f.set.Line.Path, "Value file of a sysfs GPIO, for --line-method=gpio.")
	f.on("gpio-path", func(c *Config) { c.Line.Path = f.set.Line.Path })
	fs.StringVar(&f.set.Line.Chip, "gpiod-chip", f.set.Line.Chip, "GPIO chip, for --line-method=gpiod.")
	f.on("gpiod-chip", func(c *Config) { c.Line.Chip = f.set.Line.Chip })
	fs.IntVar(&f.set.Line.Offset, "gpiod-offset", f.set.Line.Offset, "Line offset on the GPIO chip, for --line-method=gpiod.")
	f.on("gpiod-offset", func(c *Config) { c.Line.Offset = f.set.Line.Offset })
	fs.StringVar(&f.set.Line.Device, "serial-device", f.set.Line.Device, "Serial port, for --line-method=serial.")
	f.on("serial-device", func(c *Config) { c.Line.Device = f.set.Line.Device })
	fs.StringVar(&f.set.Line.Signal, "serial-signal", f.set.Line.Signal, "RTS or DTR, for --line-method=serial.")
	f.on("serial-signal", func(c *Config) { c.Line.Signal = f.set.Line.Signal })
	fs.BoolVarP(&f.set.Line.Invert, "invert", "i", f.set.Line.Invert, "The line is active low.")
	f.on("invert", func(c *Config) { c.Line.Invert = f.set.Line.Invert })

	fs.DurationVar(&f.set.Watchdog.Interval, "watchdog-interval", f.set.Watchdog.Interval, "How often the watchdog polls the line.")
	f.on("watchdog-interval", func(c *Config) { c.Watchdog.Interval = f.set.Watchdog.Interval })
	fs.DurationVar(&f.set.Watchdog.Timeout, "watchdog-timeout", f.set.Watchdog.Timeout, "Longest continuous transmission before the watchdog cuts PTT.")
	f.on("watchdog-timeout", func(c *Config) { c.Watchdog.Timeout = f.set.Watchdog.Timeout })

	fs.StringVarP(&f.set.Log.Level, "log-level", "d", f.set.Log.Level, "Log level: debug, info, warn or error.")
	f.on("log-level", func(c *Config) { c.Log.Level = f.set.Log.Level })
	fs.StringVar(&f.set.Log.Format, "log-format", f.set.Log.Format, "Log format: text, json or logfmt.")
	f.on("log-format", func(c *Config) { c.Log.Format = f.set.Log.Format })
	fs.StringVarP(&f.set.Events.File, "event-file", "L", "", "File name for the PTT event log.")
	f.on("event-file", func(c *Config) { c.Events.File = f.set.Events.File })
	fs.StringVarP(&f.set.Events.Dir, "event-dir", "l", "", "Directory for daily PTT event log files.")
	f.on("event-dir", func(c *Config) { c.Events.Dir = f.set.Events.Dir })

	if server {
		fs.StringVar(&f.set.Rigctl.Listen, "listen", f.set.Rigctl.Listen, "Address and port for rigctl clients.")
		f.on("listen", func(c *Config) { c.Rigctl.Listen = f.set.Rigctl.Listen })
		fs.StringVar(&f.set.Rigctl.Ack, "ack", f.set.Rigctl.Ack, "Reply to T commands: fire-and-forget or report-errors.")
		f.on("ack", func(c *Config) { c.Rigctl.Ack = f.set.Rigctl.Ack })
		fs.IntVar(&f.set.Line.Export, "gpio-export", f.set.Line.Export, "Export this sysfs GPIO number and make it an output first.  -1 to skip.")
		f.on("gpio-export", func(c *Config) { c.Line.Export = f.set.Line.Export })
		fs.BoolVarP(&f.set.Watchdog.Enabled, "watchdog", "w", f.set.Watchdog.Enabled, "Run the watchdog inside the server process.")
		f.on("watchdog", func(c *Config) { c.Watchdog.Enabled = f.set.Watchdog.Enabled })
		fs.BoolVar(&f.set.DNSSD.Enabled, "dns-sd", f.set.DNSSD.Enabled, "Announce the service with DNS-SD.")
		f.on("dns-sd", func(c *Config) { c.DNSSD.Enabled = f.set.DNSSD.Enabled })
		fs.StringVar(&f.set.DNSSD.Name, "dns-sd-name", "", "DNS-SD service name.")
		f.on("dns-sd-name", func(c *Config) { c.DNSSD.Name = f.set.DNSSD.Name })
	}

	return f
}

func (f *Flags) on(name string, apply func(*Config)) {
	f.apply[name] = apply
}

// ShowVersion is true after Parse saw -v/--version.
func (f *Flags) ShowVersion() bool {
	return f.version
}

func (f *Flags) SetOutput(w io.Writer) {
	f.fs.SetOutput(w)
}

func (f *Flags) PrintDefaults() {
	f.fs.PrintDefaults()
}

// Parse returns pflag.ErrHelp for -h/--help.  The result is not yet
// validated.
func (f *Flags) Parse(args []string) (Config, error) {
	var err = f.fs.Parse(args)
	if err != nil {
		return Config{}, err //nolint:exhaustruct
	}

	if f.fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected argument %q", f.fs.Arg(0)) //nolint:exhaustruct
	}

	var cfg = DefaultConfig()

	if f.configFile != "" {
		cfg, err = LoadConfig(f.configFile)
		if err != nil {
			return cfg, err
		}
	}

	f.fs.Visit(func(fl *pflag.Flag) {
		var apply, ok = f.apply[fl.Name]
		if ok {
			apply(&cfg)
		}
	})

	return cfg, nil
}
