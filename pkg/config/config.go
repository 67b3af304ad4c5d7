// Package config loads the TOML configuration file and supplies defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	API    API    `toml:"api"`
	Cache  Cache  `toml:"cache"`
	Render Render `toml:"render"`
	Push   Push   `toml:"push"`
	Filter Filter `toml:"filter"`
}

// API configures the Bangumi client.
type API struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Cache configures the response cache and the poster store.
type Cache struct {
	TTLMinutes       int    `toml:"ttl_minutes"`
	MaxItems         int    `toml:"max_items"`
	PosterDir        string `toml:"poster_dir"`
	MaxPosterAgeDays int    `toml:"max_poster_age_days"`
}

// Render configures templates and the browser viewport.
type Render struct {
	ViewportWidth  int    `toml:"viewport_width"`
	ViewportHeight int    `toml:"viewport_height"`
	Headless       bool   `toml:"headless"`
	TemplateDir    string `toml:"template_dir"`
}

// Push configures the daily pre-generation task.
type Push struct {
	Enabled bool   `toml:"enabled"`
	Time    string `toml:"time"`
}

// Filter points at the blacklist rules file.
type Filter struct {
	RulesFile string `toml:"rules_file"`
}

// TTL returns the cache TTL as a duration.
func (c Cache) TTL() time.Duration { return time.Duration(c.TTLMinutes) * time.Minute }

// Timeout returns the API timeout as a duration.
func (a API) Timeout() time.Duration { return time.Duration(a.TimeoutSeconds) * time.Second }

// Default returns the built-in configuration. Data lands under the XDG data
// directory.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        "https://api.bgm.tv",
			TimeoutSeconds: 30,
		},
		Cache: Cache{
			TTLMinutes:       30,
			MaxItems:         500,
			PosterDir:        filepath.Join(xdg.DataHome, "animeposter", "posters"),
			MaxPosterAgeDays: 7,
		},
		Render: Render{
			ViewportWidth:  1200,
			ViewportHeight: 1600,
			Headless:       true,
		},
		Push: Push{
			Enabled: false,
			Time:    "08:00",
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "animeposter", "config.toml")
}

// Load reads the configuration at path, merged over the defaults. An empty
// path tries DefaultPath; a missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
