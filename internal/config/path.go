// Package config loads application settings from viper, the environment and the OS keyring.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// Default locations, expanded with ExpandPath.
const (
	DefaultConfigDir = "$HOME/.config/ponto"
	DefaultDBPath    = "$HOME/.local/share/ponto/ponto.db"
	DefaultPhotoDir  = "$HOME/.local/share/ponto/photos"
	DefaultModelsDir = "$HOME/.local/share/ponto/models"
)
