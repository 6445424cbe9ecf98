package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir picks the data directory for this host: $XDG_DATA_HOME/tsn,
// then the first existing system location (/var/lib, ~/Library/Application
// Support, ~/AppData/Local), then ~/.tsn. Without a home directory it
// returns ./data.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tsn")
	}
	candidates := []struct{ parent, name string }{
		{"/var/lib", "tsn"},
		{filepath.Join(home, "Library", "Application Support"), "TSN"},
		{filepath.Join(home, "AppData", "Local"), "TSN"},
	}
	for _, c := range candidates {
		if isDir(c.parent) {
			return filepath.Join(c.parent, c.name)
		}
	}
	return filepath.Join(home, ".tsn")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
