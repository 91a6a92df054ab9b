// Package logging builds the application logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Level string
	// Dir, if set, receives one log file per day.
	Dir      string
	Terminal bool
	// Stdout overrides os.Stdout for terminal output.
	Stdout io.Writer
}

// New returns a logger writing to the terminal and/or a daily file in
// opts.Dir. An unknown level falls back to info.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	var (
		outputs []io.Writer
		closer  io.Closer = nopCloser{}
	)
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("log dir: %w", err)
		}
		filename := filepath.Join(opts.Dir, time.Now().Format("2006-01-02.log"))
		file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		outputs = append(outputs, file)
		closer = file
	}
	if opts.Terminal {
		stdout := opts.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		outputs = append(outputs, stdout)
	}
	if len(outputs) == 0 {
		outputs = append(outputs, io.Discard)
	}
	log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(outputs...)))

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
