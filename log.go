package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	return gap.NewScope(gap.User, "narrate").LogPath("narrate.log")
}

// setupLog sends log output to a file, since the terminal belongs to the
// TUI. The returned func closes the file.
func setupLog(path string, debug bool) (func() error, error) {
	log.SetOutput(io.Discard)

	if path == "" {
		p, err := getLogFilePath()
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, err //nolint:wrapcheck
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	log.SetOutput(f)
	log.SetReportTimestamp(true)
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return f.Close, nil
}
