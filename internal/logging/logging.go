// Package logging configures the process-wide standard logger.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
)

// Init sends log output to w with microsecond timestamps
func Init(w io.Writer) {
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("")
}

// Discard silences the standard logger
func Discard() {
	log.SetOutput(io.Discard)
}

// ToFile redirects logging to path so it does not draw over a full-screen
// UI. The caller closes the returned file.
func ToFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	f, err := tea.LogToFile(path, "perron")
	if err != nil {
		return nil, err
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return f, nil
}

// DefaultFile returns the log file used by the terminal UI
func DefaultFile() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "perron", "perron.log")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "perron.log")
	}
	return filepath.Join(home, ".local", "state", "perron", "perron.log")
}
