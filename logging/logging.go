package logging

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Options configures the default slog logger.
type Options struct {
	Level  string // DEBUG, INFO, WARN or ERROR; INFO if empty
	Format string // text or json; text if empty
	File   string // optional file every record is appended to
	// Hold back console output until SetOutput is called, e.g. while a
	// TUI owns the terminal.
	Buffer bool
}

// holdingWriter passes records to a console target, or holds them back
// while buffering. Records are always appended to the file, if any.
type holdingWriter struct {
	mu      sync.Mutex
	held    bytes.Buffer
	console io.Writer
	file    *os.File
	holding bool
}

func (w *holdingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	switch {
	case w.holding:
		w.held.Write(p)
	case w.console != nil:
		_, err = w.console.Write(p)
	}
	if w.file != nil {
		if _, ferr := w.file.Write(p); ferr != nil && err == nil {
			err = ferr
		}
	}
	return len(p), err
}

var writer *holdingWriter

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Init installs a new default slog logger. Without buffering, records go
// to stderr. Init may be called again once the wanted settings are known.
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	w := &holdingWriter{holding: opts.Buffer}
	if !opts.Buffer {
		w.console = os.Stderr
	}
	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("can't open log file %s: %w", opts.File, err)
		}
		w.file = file
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	// Records held by a previous Init go through the new writer, and the
	// previous log file is closed.
	if writer != nil {
		writer.mu.Lock()
		if writer.held.Len() > 0 {
			w.Write(writer.held.Bytes())
			writer.held.Reset()
		}
		if writer.file != nil {
			if err := writer.file.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "can't close log file %s: %v\n", writer.file.Name(), err)
			}
			writer.file = nil
		}
		writer.mu.Unlock()
	}
	writer = w
	slog.SetDefault(slog.New(handler))
	return nil
}

// SetOutput writes the held records to target and sends all further
// records there directly.
func SetOutput(target io.Writer) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.held.Len() > 0 {
		if _, err := target.Write(writer.held.Bytes()); err != nil {
			return err
		}
		writer.held.Reset()
	}
	writer.console = target
	writer.holding = false
	return nil
}

// BufferOutput holds back console output until the next SetOutput.
func BufferOutput() {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	writer.console = nil
	writer.holding = true
}

// Close closes the log file. Records still held back are written to
// stderr so they are not lost; they already are in the file.
func Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	var err error
	if writer.held.Len() > 0 {
		_, err = os.Stderr.Write(writer.held.Bytes())
		writer.held.Reset()
	}
	if writer.file != nil {
		if ferr := writer.file.Close(); ferr != nil && err == nil {
			err = ferr
		}
		writer.file = nil
	}
	return err
}
