package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"gostation/entry"
	"gostation/fixture"
	"gostation/indicator"
	"gostation/metrics"
	"gostation/mqtt"
	"gostation/reader"
	"gostation/station"
)

// Config is the main configuration structure for gostation.
type Config struct {
	// MQTT connection settings
	MQTT mqtt.Config `yaml:"mqtt"`

	// Input device configuration
	Reader reader.Config `yaml:"reader"`

	// Status lamps
	Indicator indicator.Config `yaml:"indicator"`

	// DUT power/clamp relay
	Fixture fixture.Config `yaml:"fixture"`

	// Field names, lot rules and accepted labels
	Entry entry.Config `yaml:"entry"`

	// Station loop and command words
	Station station.Config `yaml:"station"`

	// Prometheus listener
	Metrics metrics.Config `yaml:"metrics"`

	// General settings
	ClientID        string   `yaml:"client_id"`
	LogLevel        string   `yaml:"log_level"`
	PartNumbersFile string   `yaml:"part_numbers_file"`
	HistoryFile     string   `yaml:"history_file"` // e.g. /dev/tty4
	RebootCommand   []string `yaml:"reboot_command"`
	ShutdownCommand []string `yaml:"shutdown_command"`
}

// LoadConfig reads the YAML config file and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if cfg.ClientID == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("client_id missing in config file and no hostname: %w", err)
		}
		cfg.ClientID = host
	}
	if cfg.RebootCommand == nil {
		cfg.RebootCommand = []string{"sudo", "shutdown", "-r", "now"}
	}
	if cfg.ShutdownCommand == nil {
		cfg.ShutdownCommand = []string{"sudo", "shutdown", "-h", "now"}
	}

	if cfg.PartNumbersFile != "" {
		parts, err := LoadPartNumbers(cfg.PartNumbersFile)
		if err != nil {
			return nil, err
		}
		cfg.Entry.AllowedPartNumbers = append(cfg.Entry.AllowedPartNumbers, parts...)
	}

	if err := cfg.Entry.Validate(); err != nil {
		return nil, fmt.Errorf("entry config: %w", err)
	}
	return &cfg, nil
}
