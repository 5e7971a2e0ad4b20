// Package logger provides leveled, formatted logging for the whole process.
//
// It is a thin wrapper around charmbracelet/log exposing printf-style
// package-level functions so call sites stay terse:
//
//	logger.Info("mounted %s at %s", url, mountpoint)
//
// Level and format are configured once at startup from the loaded
// configuration.
package logger

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: true,
})

// SetLevel sets the minimum level that is emitted.
// Accepted values: DEBUG, INFO, WARN, ERROR (case-insensitive).
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		logger.SetLevel(charmlog.DebugLevel)
	case "INFO":
		logger.SetLevel(charmlog.InfoLevel)
	case "WARN":
		logger.SetLevel(charmlog.WarnLevel)
	case "ERROR":
		logger.SetLevel(charmlog.ErrorLevel)
	}
}

// SetFormat selects the output format: "text" (default) or "json".
func SetFormat(format string) {
	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(charmlog.JSONFormatter)
	default:
		logger.SetFormatter(charmlog.TextFormatter)
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Debug(format string, v ...any) {
	logger.Debugf(format, v...)
}

func Info(format string, v ...any) {
	logger.Infof(format, v...)
}

func Warn(format string, v ...any) {
	logger.Warnf(format, v...)
}

func Error(format string, v ...any) {
	logger.Errorf(format, v...)
}
