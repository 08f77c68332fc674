// Package config loads and saves a collection's YAML configuration,
// grounded on the teacher's pkg/config/config.go almost field for field,
// with the security/bootstrap concerns (no network service here) swapped
// for the data/index file locations and import defaults this module
// actually needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents a libris collection's configuration.
type Config struct {
	DataPath  string  `yaml:"data_path"`
	IndexPath string  `yaml:"index_path"`
	Import    Import  `yaml:"import"`
	Logging   Logging `yaml:"logging"`
}

// Import holds defaults for the bulk-import command.
type Import struct {
	Delimiter    string `yaml:"delimiter"`
	DecimalComma bool   `yaml:"decimal_comma"`
	StopOnError  bool   `yaml:"stop_on_error"`
}

// Logging contains logging configuration.
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataPath:  "./data/books.dat",
		IndexPath: "./data/books.idx",
		Import: Import{
			Delimiter:    ";",
			DecimalComma: true,
			StopOnError:  false,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the
// current platform.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./libris.yaml"
	}
	configDir := filepath.Join(homeDir, ".config", "libris")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
