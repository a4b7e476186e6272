// SPDX-License-Identifier: Apache-2.0
// Package logging builds the hclog loggers every component receives.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Environment variables read when no explicit option is given.
const (
	EnvLogLevel = "CRAFTLAUNCH_LOG_LEVEL"
	EnvJSONLog  = "CRAFTLAUNCH_JSON_LOG"
)

// DefaultLevel keeps a launched game's console quiet.
const DefaultLevel = "warn"

// Options configure New.
type Options struct {
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
	// FilePath, when set, receives a copy of every line.
	FilePath string
}

// Prefix returns the line prefix used for text output.
func Prefix() string {
	if runtime.GOOS == "windows" {
		return "[CL] "
	}
	return "⛏️ "
}

// New builds a logger. The returned closer flushes a partial line and
// releases the log file, if any.
func New(opts Options) (hclog.Logger, io.Closer, error) {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	level, jsonFormat := parseLevel(opts.Level)
	jsonFormat = jsonFormat || opts.JSON || os.Getenv(EnvJSONLog) == "1"

	c := &closer{}
	if !jsonFormat {
		c.prefix = NewPrefixWriter(Prefix(), output)
		output = c.prefix
	}

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = io.MultiWriter(output, f)
		c.file = f
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
	return logger, c, nil
}

// GetLogLevel returns the level from the environment, then fallback, then
// DefaultLevel.
func GetLogLevel(fallback string) string {
	if level := os.Getenv(EnvLogLevel); level != "" {
		return level
	}
	if fallback != "" {
		return fallback
	}
	return DefaultLevel
}

// parseLevel accepts "json:<level>" as shorthand for JSON output.
func parseLevel(s string) (hclog.Level, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	jsonFormat := false
	if rest, ok := strings.CutPrefix(s, "json:"); ok {
		s, jsonFormat = rest, true
	}
	if s == "" {
		s = DefaultLevel
	}
	level := hclog.LevelFromString(s)
	if level == hclog.NoLevel {
		level = hclog.LevelFromString(DefaultLevel)
	}
	return level, jsonFormat
}

// closer flushes a buffered partial line before releasing the log file.
type closer struct {
	prefix *PrefixWriter
	file   *os.File
}

func (c *closer) Close() error {
	var errs []error
	if c.prefix != nil {
		errs = append(errs, c.prefix.Flush())
	}
	if c.file != nil {
		errs = append(errs, c.file.Close())
	}
	return errors.Join(errs...)
}
