package console

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Output duplicates everything written to it to the console and, when one
// could be opened, a log file.
type Output struct {
	io.Writer
	console io.Writer
	log     *os.File
}

// NewOutput creates an output writing to console. With a non-empty logPath
// it also writes to that file, truncating it. A log file that cannot be
// opened is reported on the console and otherwise ignored.
func NewOutput(console io.Writer, logPath string, logger *slog.Logger) *Output {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := &Output{Writer: console, console: console}
	if logPath == "" {
		return out
	}

	f, err := os.Create(logPath)
	if err != nil {
		logger.Warn("failed to open output log", "path", logPath, "error", err)
		_, _ = fmt.Fprintf(console, "Couldn't open log file for writing: %s\n", logPath)
		return out
	}
	_, _ = fmt.Fprintf(console, "Logging all output to %s\n", logPath)
	out.Writer = io.MultiWriter(console, f)
	out.log = f
	return out
}

// Logging reports whether output is being duplicated to a file.
func (o *Output) Logging() bool {
	return o.log != nil
}

// Close flushes and closes the log file. Later writes go to the console
// only.
func (o *Output) Close() error {
	if o.log == nil {
		return nil
	}
	err := errors.Join(o.log.Sync(), o.log.Close())
	o.log = nil
	o.Writer = o.console
	return err
}
