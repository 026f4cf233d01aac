package utils

import (
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// NewLogger returns a structured logger writing to w at the named level. Unknown levels fall back to warn.
func NewLogger(level string, w io.Writer) *pterm.Logger {
	return pterm.DefaultLogger.
		WithLevel(ParseLogLevel(level)).
		WithWriter(w).
		WithTime(false)
}

func ParseLogLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "info":
		return pterm.LogLevelInfo
	case "error":
		return pterm.LogLevelError
	case "fatal":
		return pterm.LogLevelFatal
	case "disabled", "off", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelWarn
	}
}
