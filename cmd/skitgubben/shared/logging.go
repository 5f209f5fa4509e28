package shared

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures the process logger
func SetupLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}

// LevelFromString maps a config log level onto the logger, keeping the
// debug flag as an override.
func LevelFromString(logger *log.Logger, level string, debug bool) {
	if debug {
		logger.SetLevel(log.DebugLevel)
		return
	}
	if parsed, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}
}
