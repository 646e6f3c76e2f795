// Package config loads the server configuration from YAML, applies
// environment overrides and builds per-user time configurations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sadopc/timesetor/internal/logging"
	"github.com/sadopc/timesetor/internal/timeengine"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Database DatabaseConfig    `yaml:"database"`
	Time     timeengine.Config `yaml:"time"`
	Pomodoro PomodoroConfig    `yaml:"pomodoro"`
	Android  AndroidConfig     `yaml:"android"`
	Security SecurityConfig    `yaml:"security"`
	AI       AIConfig          `yaml:"ai"`
	Logging  LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	// Path of the SQLite file. Empty means the per-user config directory.
	Path string `yaml:"path"`
}

type PomodoroConfig struct {
	WorkMinutes             int `yaml:"work_minutes" json:"work_minutes"`
	ShortBreakMinutes       int `yaml:"short_break_minutes" json:"short_break_minutes"`
	LongBreakMinutes        int `yaml:"long_break_minutes" json:"long_break_minutes"`
	SessionsBeforeLongBreak int `yaml:"sessions_before_long_break" json:"sessions_before_long_break"`
}

// AndroidConfig lists the package names the phone client reports.
type AndroidConfig struct {
	EntertainmentApps []string `yaml:"entertainment_apps" json:"entertainment_apps"`
	StudyApps         []string `yaml:"study_apps" json:"study_apps"`
}

// Classify maps an app package to an activity. Apps on neither list, and
// an empty name, report fallback.
func (a AndroidConfig) Classify(app string, fallback timeengine.Activity) timeengine.Activity {
	switch {
	case app == "":
		return fallback
	case slices.Contains(a.StudyApps, app):
		return timeengine.ActivityStudy
	case slices.Contains(a.EntertainmentApps, app):
		return timeengine.ActivityEntertainment
	}
	return fallback
}

type SecurityConfig struct {
	TokenExpiryHours int `yaml:"token_expiry_hours"`
	BcryptCost       int `yaml:"bcrypt_cost"`
}

// TokenExpiry returns the bearer token lifetime.
func (s SecurityConfig) TokenExpiry() time.Duration {
	return time.Duration(s.TokenExpiryHours) * time.Hour
}

type AIConfig struct {
	Enabled             bool   `yaml:"enabled"`
	Model               string `yaml:"model"`
	MaxTokens           int    `yaml:"max_tokens"`
	MaxRetries          int    `yaml:"max_retries"`
	APIKey              string `yaml:"api_key"`
	DailySummaryPrompt  string `yaml:"daily_summary_prompt"`
	WeeklySummaryPrompt string `yaml:"weekly_summary_prompt"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a complete, valid configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   5000,
			ReadTimeoutSeconds:     15,
			WriteTimeoutSeconds:    15,
			ShutdownTimeoutSeconds: 10,
		},
		Time: timeengine.DefaultConfig(),
		Pomodoro: PomodoroConfig{
			WorkMinutes:             25,
			ShortBreakMinutes:       5,
			LongBreakMinutes:        15,
			SessionsBeforeLongBreak: 4,
		},
		Android: AndroidConfig{
			EntertainmentApps: []string{
				"com.ss.android.ugc.aweme",
				"com.tencent.mm",
				"com.bilibili.app.in",
				"com.google.android.youtube",
			},
			StudyApps: []string{
				"com.duolingo",
				"com.ankidroid",
				"com.google.android.apps.docs",
			},
		},
		Security: SecurityConfig{
			TokenExpiryHours: 24,
			BcryptCost:       10,
		},
		AI: AIConfig{
			Model:               "claude-3-haiku-20240307",
			MaxTokens:           500,
			MaxRetries:          3,
			DailySummaryPrompt:  "Write a short summary of this day and one suggestion for tomorrow:",
			WeeklySummaryPrompt: "Write a short summary of this week and point out any patterns:",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies TIMESETOR_* environment
// overrides and validates the result. A missing file yields the defaults
// and a sample file is written at path.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := WriteSample(path, cfg); err != nil {
			return nil, fmt.Errorf("write sample config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteSample writes cfg as YAML, creating parent directories.
func WriteSample(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultPath returns ~/.config/timesetor/config.yaml, or the value of
// TIMESETOR_CONFIG.
func DefaultPath() (string, error) {
	if p := os.Getenv("TIMESETOR_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "timesetor", "config.yaml"), nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.Server.Host, "TIMESETOR_HOST")
	overrideString(&c.Database.Path, "TIMESETOR_DB_PATH")
	overrideString(&c.Logging.Level, "TIMESETOR_LOG_LEVEL")
	overrideString(&c.AI.APIKey, "TIMESETOR_AI_API_KEY")
	if err := overrideInt(&c.Server.Port, "TIMESETOR_PORT"); err != nil {
		return err
	}
	return nil
}

func overrideString(dest *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dest = val
	}
}

func overrideInt(dest *int, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, val, err)
	}
	*dest = n
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Time.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("time: %w", err))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d: out of range", c.Server.Port))
	}
	if c.Security.TokenExpiryHours <= 0 {
		errs = append(errs, fmt.Errorf("security.token_expiry_hours %d: must be positive", c.Security.TokenExpiryHours))
	}
	if c.Pomodoro.WorkMinutes <= 0 {
		errs = append(errs, fmt.Errorf("pomodoro.work_minutes %d: must be positive", c.Pomodoro.WorkMinutes))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errors.Join(errs...)
}
