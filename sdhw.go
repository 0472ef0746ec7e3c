package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"lautenbacher.net/sdhw/boards"
	c "lautenbacher.net/sdhw/config"
	hw "lautenbacher.net/sdhw/hwconfig"
	"lautenbacher.net/sdhw/logging"
	"lautenbacher.net/sdhw/tui"
	"lautenbacher.net/sdhw/volume"
)

type options struct {
	configFile string
	board      string
	format     string
	route      string
	listen     string
	logLevel   string
	showTUI    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("sdhw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "YAML hardware description; the built-in board is used if empty")
	fs.StringVar(&opts.board, "board", boards.DefaultBoard, "built-in board to use without -config")
	fs.StringVar(&opts.format, "format", "text", "output format: text, yaml or json")
	fs.StringVar(&opts.route, "route", "", "resolve the bus of a slot (drive name or number) and exit")
	fs.StringVar(&opts.listen, "listen", "", "serve the tables read-only over HTTP on this address")
	fs.StringVar(&opts.logLevel, "loglevel", "", "log level, overrides the config file")
	fs.BoolVar(&opts.showTUI, "tui", false, "show the tables in a terminal viewer")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch opts.format {
	case "text", "yaml", "json":
	default:
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.showTUI && (opts.listen != "" || opts.route != "") {
		return nil, errors.New("-tui can't be combined with -listen or -route")
	}
	return opts, nil
}

// load returns the registry together with the logging section that came
// with it.
func load(opts *options) (*hw.Registry, c.LoggingConfig, error) {
	if opts.configFile == "" {
		b, err := boards.ByName(opts.board)
		if err != nil {
			return nil, c.LoggingConfig{}, err
		}
		reg, err := b.Registry()
		return reg, c.LoggingConfig{}, err
	}
	conf, err := c.ReadConfig(opts.configFile)
	if err != nil {
		return nil, c.LoggingConfig{}, err
	}
	reg, err := conf.Registry()
	return reg, conf.Logging, err
}

func writeTables(w io.Writer, reg *hw.Registry, format string) error {
	switch format {
	case "yaml":
		data, err := (&c.Config{Hardware: c.FromRegistry(reg)}).Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.FromRegistry(reg))
	}

	fmt.Fprintf(w, "SPI buses: %d\n", reg.CountSpiBuses())
	for i := 0; i < reg.CountSpiBuses(); i++ {
		b := reg.SpiBus(i)
		fmt.Fprintf(w, "  [%d] %s MISO=%d MOSI=%d SCK=%d mode=%d\n", i, b.Peripheral, b.MISO, b.MOSI, b.SCK, b.Mode)
	}
	fmt.Fprintf(w, "SD card slots: %d\n", reg.CountSdSlots())
	for i := 0; i < reg.CountSdSlots(); i++ {
		route, err := reg.Route(i)
		if err != nil {
			return err
		}
		cd := "no card detect"
		if cdt := route.Slot.CardDetect; cdt != nil {
			cd = fmt.Sprintf("card detect GPIO%d present=%s", cdt.GPIO, cdt.PresentLevel)
		}
		fmt.Fprintf(w, "  [%d] %s, %s\n", i, route, cd)
	}
	return nil
}

func resolve(w io.Writer, reg *hw.Registry, drive string) error {
	d, err := volume.NewMapper(reg).Drive(drive)
	if err != nil {
		return err
	}
	route, err := reg.Route(d.Number)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, route)
	return nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	// Log to a buffer until we know the configured logging settings.
	if err := logging.Init(logging.Options{Buffer: true}); err != nil {
		return err
	}
	reg, logConf, err := load(opts)
	if opts.logLevel != "" {
		logConf.Level = opts.logLevel
	}
	if lerr := logging.Init(logging.Options{
		Level:  logConf.Level,
		Format: logConf.Format,
		File:   logConf.File,
		Buffer: opts.showTUI,
	}); lerr != nil {
		return errors.Join(err, lerr)
	}
	defer logging.Close()
	if err != nil {
		return err
	}
	slog.Info("Hardware tables loaded", "spiBuses", reg.CountSpiBuses(), "sdSlots", reg.CountSdSlots())

	if opts.route != "" {
		return resolve(stdout, reg, opts.route)
	}

	if opts.listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/api/hardware", c.RegistryHandler(reg))
		mux.Handle("/api/route", c.RouteHandler(reg))
		slog.Info("Serving hardware tables", "address", opts.listen)
		return http.ListenAndServe(opts.listen, mux)
	}

	if opts.showTUI {
		err := tui.NewViewer(reg).Run()
		if serr := logging.SetOutput(stderr); serr != nil && err == nil {
			err = serr
		}
		return err
	}

	return writeTables(stdout, reg, opts.format)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "sdhw: %v\n", err)
		os.Exit(2)
	}
}

// Local Variables:
// compile-command: "go build"
// End:
