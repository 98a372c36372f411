package main

import (
	"os"
	"path/filepath"
)

// defaultConfigPath mirrors the teacher's loader.go: ~/.config/matcherctl/config.yaml.
func defaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "matcherctl", "config.yaml"), nil
}

// defaultStatePath is where the Store persists remembered slots between
// daemon restarts.
func defaultStatePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "state", "matcherctl", "slots.json"), nil
}
