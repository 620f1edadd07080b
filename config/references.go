// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	configDir string // Directory for configuration files
	outputDir string // Directory for sanitize output records
)

func init() {
	if os.Geteuid() == 0 {
		configDir = "/etc/rodent"
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(fmt.Sprintf("failed to get home directory: %v", err))
		}
		configDir = filepath.Join(homeDir, ".rodent")
	}

	outputDir = filepath.Join(configDir, "sanitize")

	if err := EnsureDirectories(); err != nil {
		panic(fmt.Sprintf("failed to ensure configuration directories: %v", err))
	}
}

// GetConfigDir returns the appropriate configuration directory.
// If running as root, it returns the system config directory,
// otherwise it returns the user config directory.
func GetConfigDir() string {
	return configDir
}

// GetOutputDir returns the default directory for sanitize output records,
// used when the config file and CLI both leave it unset.
func GetOutputDir() string {
	return outputDir
}

// EnsureDirectories creates necessary directories if they do not exist.
func EnsureDirectories() error {
	dirs := []string{configDir, outputDir}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
