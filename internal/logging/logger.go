// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// ParseLevel maps a configured level name onto a pterm log level.
// Unknown names fall back to info.
func ParseLevel(name string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "off", "disabled", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// New builds the structured logger shared by the session, poller and commands.
// Format "json" selects machine-readable output; anything else is colorful text.
func New(level, format string, w io.Writer) *pterm.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := pterm.DefaultLogger.
		WithLevel(ParseLevel(level)).
		WithWriter(w)
	if strings.EqualFold(format, "json") {
		l = l.WithFormatter(pterm.LogFormatterJSON)
	}
	return l
}

// Discard returns a logger that drops everything; used as the default in
// library packages so a nil logger never has to be checked.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}
