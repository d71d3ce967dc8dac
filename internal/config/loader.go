package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig overrides the default config location when set.
const EnvConfig = "CRONDECK_CONFIG"

// DataDir returns the crondeck data directory: ~/.crondeck.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crondeck"
	}
	return filepath.Join(home, ".crondeck")
}

// ConfigPath returns $CRONDECK_CONFIG, or ~/.crondeck/config.json.
func ConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p
	}
	return filepath.Join(DataDir(), "config.json")
}

// Load reads the config at path (ConfigPath() when empty). A missing file
// yields the defaults; so does a malformed one, after a warning. Fields absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("config: parse failed, using defaults", "path", path, "err", err)
		cfg = DefaultConfig()
		return &cfg, nil
	}
	cfg.normalize()
	return &cfg, nil
}

// normalize trims user input and restores defaults for emptied fields.
func (c *Config) normalize() {
	c.Locale = strings.TrimSpace(c.Locale)
	if c.Locale == "" {
		c.Locale = "en"
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	c.StorePath = strings.TrimSpace(c.StorePath)

	seen := make(map[string]bool, len(c.Timezones))
	zones := c.Timezones[:0]
	for _, z := range c.Timezones {
		z = strings.TrimSpace(z)
		if z == "" || seen[z] {
			continue
		}
		seen[z] = true
		zones = append(zones, z)
	}
	c.Timezones = zones
	if len(c.Timezones) == 0 {
		c.Timezones = append([]string(nil), DefaultTimezones...)
	}
}

// Save writes cfg to path (ConfigPath() when empty) with owner-only
// permissions. The file is replaced atomically so a crash never leaves a
// truncated config behind.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config %s: %w", path, err)
	}
	return nil
}
