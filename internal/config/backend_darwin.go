//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

func appSupportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Library", "Application Support", "portal")
	}
	return ""
}

func defaultDataDir() string {
	if dir := appSupportDir(); dir != "" {
		return dir
	}
	return "portal-data"
}

// configDir shares the data directory; macOS keeps both under Application Support.
func configDir() string {
	if dir := appSupportDir(); dir != "" {
		return dir
	}
	return "."
}
