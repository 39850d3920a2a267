package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Polling interval bounds in seconds. The coordinator never ticks faster
// than the floor regardless of configuration.
const (
	MinPollInterval = 15
	MaxPollInterval = 120
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Station       StationConfig       `toml:"station"`
	Catalog       CatalogConfig       `toml:"catalog"`
	Database      DatabaseConfig      `toml:"database"`
	Polling       PollingConfig       `toml:"polling"`
	Notifications NotificationsConfig `toml:"notifications"`
	CoverArt      CoverArtConfig      `toml:"coverart"`
	Server        ServerConfig        `toml:"server"`
}

// StationConfig contains the upstream radio metadata sources.
type StationConfig struct {
	HomepageURL    string `toml:"homepage_url"`
	StreamURL      string `toml:"stream_url"`
	FallbackURL    string `toml:"fallback_url"`
	UserAgent      string `toml:"user_agent"`
	ConnectTimeout int    `toml:"connect_timeout_seconds"`
	ReadTimeout    int    `toml:"read_timeout_seconds"`
}

// CatalogConfig contains catalog import and edition settings.
type CatalogConfig struct {
	EditionYear int    `toml:"edition_year"`
	DatasetURL  string `toml:"dataset_url"`
	ImportYears []int  `toml:"import_years"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PollingConfig contains coordinator scheduling settings.
type PollingConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
	UpcomingCount   int `toml:"upcoming_count"`
}

// NotificationsConfig contains default notification settings applied when
// the settings store has no row yet.
type NotificationsConfig struct {
	Enabled         bool     `toml:"enabled"`
	Targets         []string `toml:"targets"`
	NotifyCurrent   bool     `toml:"notify_current"`
	NotifyUpcoming  bool     `toml:"notify_upcoming"`
	UpcomingOffsets []int    `toml:"upcoming_offsets"`
	WebhookBaseURL  string   `toml:"webhook_base_url"`
}

// CoverArtConfig contains MusicBrainz / Cover Art Archive settings.
type CoverArtConfig struct {
	AppName        string  `toml:"app_name"`
	AppVersion     string  `toml:"app_version"`
	Contact        string  `toml:"contact"`
	RequestsPerSec float64 `toml:"requests_per_second"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks boundary constraints and returns an error for values the
// core cannot fall back from. Out-of-range polling intervals are clamped
// rather than rejected.
func (c *Config) Validate() error {
	if c.Station.HomepageURL == "" && c.Station.StreamURL == "" && c.Station.FallbackURL == "" {
		return fmt.Errorf("%w: at least one station source URL must be set", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path must be set", ErrInvalidConfig)
	}
	if c.Polling.IntervalSeconds < MinPollInterval {
		c.Polling.IntervalSeconds = MinPollInterval
	}
	if c.Polling.IntervalSeconds > MaxPollInterval {
		c.Polling.IntervalSeconds = MaxPollInterval
	}
	if c.Polling.UpcomingCount <= 0 {
		c.Polling.UpcomingCount = 10
	}
	for _, offset := range c.Notifications.UpcomingOffsets {
		if offset <= 0 {
			return fmt.Errorf("%w: upcoming_offsets must be positive", ErrInvalidConfig)
		}
	}
	if c.CoverArt.RequestsPerSec <= 0 {
		c.CoverArt.RequestsPerSec = 1.0
	}
	return nil
}
