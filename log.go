package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/internal/config"
	gap "github.com/muesli/go-app-paths"
)

var logFile *os.File

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, config.AppName).CacheDir()
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Join(dir, "autocast.log"), nil
}

// setupLog logs warnings to stderr, or everything when AUTOCAST_DEBUG is
// set. The returned func closes the log file opened by logToFile.
func setupLog() func() error {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)
	log.SetLevel(log.WarnLevel)
	if debug, _ := strconv.ParseBool(os.Getenv(config.EnvPrefix + "_DEBUG")); debug {
		log.SetLevel(log.DebugLevel)
	}

	return func() error {
		if logFile == nil {
			return nil
		}
		return logFile.Close() //nolint:wrapcheck
	}
}

// logToFile moves logging off the terminal while the editor owns it.
func logToFile() error {
	path, err := getLogFilePath()
	if err != nil {
		return fmt.Errorf("unable to find log directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	logFile = f
	return nil
}
