// Package fs locates diffmod's files on disk.
package fs

import (
	"os"
	"path/filepath"
)

// appName is the directory name used under the XDG base directories.
const appName = "diffmod"

// ConfigDir returns the configuration directory for diffmod.
// Uses XDG_CONFIG_HOME if set, otherwise falls back to ~/.config/diffmod.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// ConfigFile returns the path of the default configuration file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}
