// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps a slog.Logger so that packages can share a single logging setup.
type Logger struct {
	*slog.Logger
}

// New returns a Logger that writes text records at the given level to stderr.
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a Logger that writes text records at the given level to output.
func NewLogger(level slog.Level, output io.Writer) *Logger {
	return &Logger{slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))}
}

// Component returns a child Logger that tags every record with the given component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{l.With(slog.String("component", name))}
}

// Err returns an slog attribute for err under the "error" key.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
