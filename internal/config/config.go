// Package config provides functions for loading and saving repo-tracker
// configuration files and label-rename maps.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alan/repo-tracker/cmd"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration from the specified file. A missing file
// is not an error: every setting has an environment or default fallback, so
// an absent config simply means "all defaults".
func LoadConfig(filename string) (*cmd.Config, error) {
	data, err := os.ReadFile(filename) //nolint:gosec // Config filename is from command-line flag
	if os.IsNotExist(err) {
		return &cmd.Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config cmd.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified file.
func SaveConfig(filename string, config *cmd.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadRenames loads a label-rename map: a JSON object of old label name to
// new label name. An empty path yields an empty map.
func LoadRenames(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // Renames filename is from command-line flag
	if err != nil {
		return nil, fmt.Errorf("failed to read renames file: %w", err)
	}

	renames := make(map[string]string)
	if err := json.Unmarshal(data, &renames); err != nil {
		return nil, fmt.Errorf("failed to parse renames file: %w", err)
	}
	return renames, nil
}
