// Package config loads trophyroom configuration from YAML with env overrides.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RarityThresholds holds the global-unlock-percentage boundaries between
// rarity tiers. An achievement is placed in the rarest tier whose threshold
// its percentage does not exceed; missing percentages belong to no tier.
type RarityThresholds struct {
	UltraRare float64 `yaml:"ultra_rare"`
	Rare      float64 `yaml:"rare"`
	Uncommon  float64 `yaml:"uncommon"`
}

// Logging holds the logging subsection.
type Logging struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Config holds application configuration.
type Config struct {
	DBPath       string `yaml:"db_path"`
	IconCacheDir string `yaml:"icon_cache_dir"`

	// LibraryManifest points at the JSON export of the host's game library.
	// LocalDataDir holds per-game achievement JSON dumps served by the
	// built-in local provider.
	LibraryManifest string `yaml:"library_manifest"`
	LocalDataDir    string `yaml:"local_data_dir"`

	// Refresh behaviour.
	PeriodicUpdates       bool `yaml:"periodic_updates"`
	PeriodicUpdateHours   int  `yaml:"periodic_update_hours"`
	QuickRefreshGameCount int  `yaml:"quick_refresh_game_count"`
	IncludeUnplayed       bool `yaml:"include_unplayed"`

	// Display behaviour.
	Rarity          RarityThresholds `yaml:"rarity"`
	UseScaledPoints bool             `yaml:"use_scaled_points"`

	// Provider name -> enabled. Providers absent from the map are enabled.
	Providers map[string]bool `yaml:"providers"`

	MemoryCacheSize int `yaml:"memory_cache_size"`

	Logging Logging `yaml:"logging"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DBPath:                "trophyroom.db",
		IconCacheDir:          "icons",
		PeriodicUpdates:       false,
		PeriodicUpdateHours:   24,
		QuickRefreshGameCount: 10,
		IncludeUnplayed:       false,
		Rarity: RarityThresholds{
			UltraRare: 2.5,
			Rare:      10,
			Uncommon:  30,
		},
		MemoryCacheSize: 256,
		Logging:         Logging{Format: "text", Level: "info"},
	}
}

// configPaths returns the list of paths to search for a config file.
func configPaths() []string {
	paths := []string{
		".trophyroom.yaml",
		".trophyroom.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "trophyroom", "config.yaml"),
			filepath.Join(home, ".config", "trophyroom", "config.yml"),
			filepath.Join(home, ".trophyroom.yaml"),
		)
	}

	return paths
}

// Load loads configuration from file or returns defaults.
// Priority: env TROPHYROOM_CONFIG > search paths > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if envPath := os.Getenv("TROPHYROOM_CONFIG"); envPath != "" {
		if err := cfg.loadFromFile(envPath); err != nil {
			return nil, err
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFromFile(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvOverrides() {
	if dbPath := os.Getenv("TROPHYROOM_DB"); dbPath != "" {
		c.DBPath = dbPath
	}
	if iconDir := os.Getenv("TROPHYROOM_ICON_DIR"); iconDir != "" {
		c.IconCacheDir = iconDir
	}
	if manifest := os.Getenv("TROPHYROOM_LIBRARY"); manifest != "" {
		c.LibraryManifest = manifest
	}
}

// GetDBPath returns the database path, applying defaults.
func (c *Config) GetDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return "trophyroom.db"
}

// GetPeriodicUpdateHours returns the background update interval, clamped to a
// minimum of one hour.
func (c *Config) GetPeriodicUpdateHours() int {
	if c.PeriodicUpdateHours < 1 {
		return 1
	}
	return c.PeriodicUpdateHours
}

// GetQuickRefreshGameCount returns the number of recently played games a
// quick refresh covers.
func (c *Config) GetQuickRefreshGameCount() int {
	if c.QuickRefreshGameCount <= 0 {
		return 10
	}
	return c.QuickRefreshGameCount
}

// GetMemoryCacheSize returns the LRU capacity for the in-process cache.
func (c *Config) GetMemoryCacheSize() int {
	if c.MemoryCacheSize <= 0 {
		return 256
	}
	return c.MemoryCacheSize
}

// ProviderEnabled reports whether a provider is enabled. Providers not
// mentioned in the config are enabled.
func (c *Config) ProviderEnabled(name string) bool {
	if c.Providers == nil {
		return true
	}
	enabled, ok := c.Providers[name]
	if !ok {
		return true
	}
	return enabled
}
