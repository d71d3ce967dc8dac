// Package config defines the configuration schema for crondeck.
//
// JSON keys use camelCase, matching the jobs.json document the store keeps.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crystaldolphin/crondeck/internal/schema"
)

// DefaultRefreshInterval is how often `cron watch` re-lists jobs.
const DefaultRefreshInterval = 30 * time.Second

// DefaultTimezones are the zones offered when editing a job.
var DefaultTimezones = []string{
	"UTC",
	"Asia/Shanghai",
	"Asia/Tokyo",
	"Asia/Hong_Kong",
	"America/New_York",
	"Europe/London",
}

// Duration is a time.Duration that reads either a Go duration string ("30s")
// or a number of milliseconds from JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string or milliseconds: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the root configuration object, loaded from ~/.crondeck/config.json.
type Config struct {
	// Locale selects the message catalog ("en" or "zh").
	Locale string `json:"locale"`
	// Timezone renders times and interprets one-shot times that carry no zone.
	// Empty means the system zone.
	Timezone        string   `json:"timezone"`
	StorePath       string   `json:"storePath"`
	RefreshInterval Duration `json:"refreshInterval"`
	Timezones       []string `json:"timezones"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Locale:          "en",
		StorePath:       filepath.Join(DataDir(), "cron", "jobs.json"),
		RefreshInterval: Duration(DefaultRefreshInterval),
		Timezones:       append([]string(nil), DefaultTimezones...),
	}
}

// Location resolves Timezone, falling back to the system zone.
func (c *Config) Location() (*time.Location, error) {
	return schema.LoadZone(c.Timezone, time.Local)
}

// StoreFile returns the expanded absolute path to the jobs file.
func (c *Config) StoreFile() string {
	p := c.StorePath
	if p == "" {
		return filepath.Join(DataDir(), "cron", "jobs.json")
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

// Interval returns the watch refresh period, never less than one second.
func (c *Config) Interval() time.Duration {
	d := time.Duration(c.RefreshInterval)
	if d < time.Second {
		return DefaultRefreshInterval
	}
	return d
}
