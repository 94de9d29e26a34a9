// Package daemon wires the core window-manager engine (internal/wm) to a
// live X display and a UNIX control socket: the process-level bootstrap
// that cmd/dkwm's thin main.go delegates to.
package daemon

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// Config holds the process-level bootstrap settings dkwm reads once at
// startup, before a single client has been mapped. Everything a running
// WM can be reconfigured through (layouts, rules, gaps, colors) travels
// over the control socket instead and is never part of this file.
type Config struct {
	// SocketPath overrides the DKSOCK default ("" means let the
	// screen-qualified /tmp default stand).
	SocketPath string `json:"socketPath"`
	// LogVerbose turns on log.Printf call sites that are silent by
	// default (event tracing, rule match tracing).
	LogVerbose bool `json:"logVerbose"`
	// NumWorkspaces seeds GlobalConfig.NumWorkspaces for every monitor
	// discovered at startup.
	NumWorkspaces int `json:"numWorkspaces"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		NumWorkspaces: 10,
	}
}

// Load loads configuration from $XDG_CONFIG_HOME/dkwm/config.json (or
// its platform equivalent via os.UserConfigDir). A missing file is not
// an error: Load returns the defaults.
func Load() (*Config, error) {
	cfg := Default()

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Printf("daemon: failed to get user config dir: %v", err)
		return cfg, nil
	}

	configPath := filepath.Join(configDir, "dkwm", "config.json")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("daemon: no config file at %s, using defaults", configPath)
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	log.Printf("daemon: loaded config from %s", configPath)
	return cfg, nil
}

// Save writes the configuration back to its standard path. Nothing in
// this module calls it, and no test exercises it.
func (c *Config) Save() error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return err
	}

	dkwmDir := filepath.Join(configDir, "dkwm")
	if err := os.MkdirAll(dkwmDir, 0755); err != nil {
		return err
	}

	configPath := filepath.Join(dkwmDir, "config.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return err
	}

	log.Printf("daemon: saved config to %s", configPath)
	return nil
}
