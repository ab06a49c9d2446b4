package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir holds the persisted events document. "~" is expanded.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// WeekStart controls which weekday starts a month grid row. Supported
	// values:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// ClockSchedule and ReminderSchedule are robfig/cron specs for the two
	// periodic ticks.
	ClockSchedule    string `yaml:"clock_schedule" json:"clock_schedule"`
	ReminderSchedule string `yaml:"reminder_schedule" json:"reminder_schedule"`

	// ReminderWindow is how long after its reminder moment an event is still
	// due. It should match the reminder tick.
	ReminderWindow time.Duration `yaml:"reminder_window" json:"reminder_window"`

	// UpcomingMinutes enables "starts soon" notices; 0 disables them.
	UpcomingMinutes int `yaml:"upcoming_minutes" json:"upcoming_minutes"`

	// NotificationDisplay is how many recent notifications are shown.
	NotificationDisplay int `yaml:"notification_display" json:"notification_display"`

	// FestivalsPath optionally replaces the built-in festival table.
	FestivalsPath string `yaml:"festivals_path,omitempty" json:"festivals_path,omitempty"`

	// Metrics exposes /metrics when true.
	Metrics bool `yaml:"metrics" json:"metrics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen           = "127.0.0.1:8080"
	defaultDataDir          = "~/.evcal"
	defaultClockSchedule    = "@every 1s"
	defaultReminderSchedule = "@every 1m"
	defaultReminderWindow   = time.Minute
	defaultDisplay          = 3
)

// DefaultPath is where the CLI looks for the config file.
func DefaultPath() string {
	return filepath.Join(defaultDataDir, "config.yaml")
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:              defaultListen,
		DataDir:             defaultDataDir,
		WeekStart:           "sunday",
		LogLevel:            "info",
		ClockSchedule:       defaultClockSchedule,
		ReminderSchedule:    defaultReminderSchedule,
		ReminderWindow:      defaultReminderWindow,
		NotificationDisplay: defaultDisplay,
		Metrics:             true,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		// Unknown value; fall back to sunday to avoid surprising layouts.
		c.WeekStart = "sunday"
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	if c.ClockSchedule == "" {
		c.ClockSchedule = defaultClockSchedule
	}
	if c.ReminderSchedule == "" {
		c.ReminderSchedule = defaultReminderSchedule
	}
	if c.ReminderWindow <= 0 {
		c.ReminderWindow = defaultReminderWindow
	}
	if c.UpcomingMinutes < 0 {
		c.UpcomingMinutes = 0
	}
	if c.NotificationDisplay <= 0 {
		c.NotificationDisplay = defaultDisplay
	}
}

// DataPath returns DataDir with "~" expanded.
func (c *Config) DataPath() (string, error) {
	return homedir.Expand(c.DataDir)
}

// FestivalsFile returns FestivalsPath with "~" expanded, or "".
func (c *Config) FestivalsFile() (string, error) {
	if c.FestivalsPath == "" {
		return "", nil
	}
	return homedir.Expand(c.FestivalsPath)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".evcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
