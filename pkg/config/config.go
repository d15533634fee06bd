package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harrisonrobin/daysleft/pkg/marker"
)

const (
	xdgAppName = "daysleft"
	configFile = "config.yaml"

	BackendTodoist     = "todoist"
	BackendGoogle      = "google"
	BackendTaskwarrior = "taskwarrior"

	DefaultSchedule   = "0 0 6-23 * * *"
	DefaultTodoistURL = "https://api.todoist.com/rest/v2"
)

var (
	// ErrMissing is returned when a required setting is absent.
	ErrMissing = errors.New("missing required setting")
	// ErrUnknownBackend is returned for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown backend")
)

// Config holds the settings for a pass. It is built once and passed down;
// nothing else reads the environment.
type Config struct {
	Projects          string  `mapstructure:"projects"`
	WorkWeek          string  `mapstructure:"workweek"`
	ForceWrite        bool    `mapstructure:"force_write"`
	CompletePastItems bool    `mapstructure:"complete_past_items"`
	Backend           string  `mapstructure:"backend"`
	TodoistAPIKey     string  `mapstructure:"todoist_api_key"`
	TodoistURL        string  `mapstructure:"todoist_url"`
	Timezone          string  `mapstructure:"timezone"`
	Schedule          string  `mapstructure:"schedule"`
	Workers           int     `mapstructure:"workers"`
	RatePerSec        float64 `mapstructure:"rate_per_sec"`
	LogLevel          string  `mapstructure:"log_level"`
	LogFormat         string  `mapstructure:"log_format"`
	DryRun            bool    `mapstructure:"dry_run"`

	Mode     marker.Mode    `mapstructure:"-"`
	Location *time.Location `mapstructure:"-"`
}

// envKeys maps settings to environment variables. The unprefixed names are
// the ones existing deployments already set.
var envKeys = map[string][]string{
	"projects":            {"DAYSLEFT_PROJECTS", "PROJECTS"},
	"workweek":            {"DAYSLEFT_WORKWEEK", "WORKWEEK"},
	"force_write":         {"DAYSLEFT_FORCE_WRITE", "FORCE_WRITE_ONCE"},
	"complete_past_items": {"DAYSLEFT_COMPLETE_PAST_ITEMS", "COMPLETE_PAST_ITEMS"},
	"backend":             {"DAYSLEFT_BACKEND"},
	"todoist_api_key":     {"DAYSLEFT_TODOIST_APIKEY", "TODOIST_APIKEY"},
	"todoist_url":         {"DAYSLEFT_TODOIST_URL"},
	"timezone":            {"DAYSLEFT_TIMEZONE"},
	"schedule":            {"DAYSLEFT_SCHEDULE"},
	"workers":             {"DAYSLEFT_WORKERS"},
	"rate_per_sec":        {"DAYSLEFT_RATE_PER_SEC"},
	"log_level":           {"DAYSLEFT_LOG_LEVEL"},
	"log_format":          {"DAYSLEFT_LOG_FORMAT"},
	"dry_run":             {"DAYSLEFT_DRY_RUN"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendTodoist)
	v.SetDefault("todoist_url", DefaultTodoistURL)
	v.SetDefault("schedule", DefaultSchedule)
	v.SetDefault("workers", 4)
	v.SetDefault("rate_per_sec", 2.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// GetConfigPath returns the default config file location.
func GetConfigPath() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName, configFile), nil
}

// Load reads settings from the environment and, if present, the YAML file at
// path. An empty path means the default location. Environment values win.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, envs := range envKeys {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	explicit := path != ""
	if !explicit {
		if p, err := GetConfigPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if explicit {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	mode, err := marker.ParseMode(c.WorkWeek)
	if err != nil {
		return err
	}
	c.Mode = mode

	c.Location = time.Local
	if tz := strings.TrimSpace(c.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		c.Location = loc
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	return nil
}

// ProjectNames returns the configured project names trimmed and lower-cased,
// with empty entries dropped.
func (c *Config) ProjectNames() []string {
	var names []string
	for _, p := range strings.Split(c.Projects, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Validate reports configuration errors that must stop a pass before any
// task is touched.
func (c *Config) Validate() error {
	if len(c.ProjectNames()) == 0 {
		return fmt.Errorf("%w: projects (PROJECTS)", ErrMissing)
	}
	switch c.Backend {
	case BackendTodoist:
		if strings.TrimSpace(c.TodoistAPIKey) == "" {
			return fmt.Errorf("%w: todoist api key (TODOIST_APIKEY)", ErrMissing)
		}
	case BackendGoogle, BackendTaskwarrior:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Save writes cfg as YAML to path, or the default location when path is
// empty. The Todoist API key is never written.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("projects", cfg.Projects)
	v.Set("workweek", cfg.Mode.String())
	v.Set("force_write", cfg.ForceWrite)
	v.Set("complete_past_items", cfg.CompletePastItems)
	v.Set("backend", cfg.Backend)
	v.Set("todoist_url", cfg.TodoistURL)
	v.Set("timezone", cfg.Timezone)
	v.Set("schedule", cfg.Schedule)
	v.Set("workers", cfg.Workers)
	v.Set("rate_per_sec", cfg.RatePerSec)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_format", cfg.LogFormat)
	v.Set("dry_run", cfg.DryRun)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(path, 0600)
}
