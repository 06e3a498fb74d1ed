/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path
	EnvConfigPath = "ENTITYVIEW_CONFIG"
	// ConfigFileName is the config file looked up in the working directory
	ConfigFileName = "entityview.yaml"
	// ConfigDirName is the directory under ~/.config
	ConfigDirName = "entityview"
)

// FindConfigPath searches for a config file in priority order:
//  1. $ENTITYVIEW_CONFIG
//  2. ./entityview.yaml
//  3. $XDG_CONFIG_HOME/entityview/config.yaml
//  4. ~/.config/entityview/config.yaml
//
// It returns "" when there is none.
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" && fileExists(path) {
		return path
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
