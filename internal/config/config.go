package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the searchagent configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Run      RunConfig      `yaml:"run"`
	Mail     MailConfig     `yaml:"mail"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Auth     AuthConfig     `yaml:"auth"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix      string `yaml:"key_prefix"`
	LastRunTTLDays int    `yaml:"last_run_ttl_days"` // 0 = keep forever
}

// RunConfig holds defaults for notification runs. CLI flags override them.
type RunConfig struct {
	Workers          int  `yaml:"workers"`
	SearchTimeoutSec int  `yaml:"search_timeout_sec"` // 0 = no per-search deadline
	SendMail         bool `yaml:"send_mail"`
	PageSize         int  `yaml:"page_size"`
}

// MailConfig holds notification channel settings.
type MailConfig struct {
	Driver        string  `yaml:"driver"` // smtp, log (default: log)
	Host          string  `yaml:"host"`
	Port          int     `yaml:"port"`
	Username      string  `yaml:"username"`
	Password      string  `yaml:"password"`
	From          string  `yaml:"from"`
	FromName      string  `yaml:"from_name"`
	TLSPolicy     string  `yaml:"tls_policy"` // mandatory, opportunistic, none
	TimeoutSec    int     `yaml:"timeout_sec"`
	RatePerSec    float64 `yaml:"rate_per_sec"` // 0 = unthrottled
	DefaultLocale string  `yaml:"default_locale"`
	BaseURL       string  `yaml:"base_url"`
	MaxListings   int     `yaml:"max_listings"` // 0 = all
}

// ScheduleConfig holds the daemon scheduler settings.
type ScheduleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Spec     string `yaml:"spec"` // cron expression, 5 fields or a descriptor like @hourly
	Timezone string `yaml:"timezone"`
	DryRun   bool   `yaml:"dry_run"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	PushURL string `yaml:"push_url"` // Pushgateway for one-shot runs; empty disables push
}

// SearchTimeout returns the per-search deadline as a duration.
func (r RunConfig) SearchTimeout() time.Duration {
	return time.Duration(r.SearchTimeoutSec) * time.Second
}

// Timeout returns the SMTP dial/send timeout as a duration.
func (m MailConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSec) * time.Second
}

// LastRunTTL returns how long the last run summary is kept.
func (s StorageConfig) LastRunTTL() time.Duration {
	return time.Duration(s.LastRunTTLDays) * 24 * time.Hour
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, expanding ${VAR} references first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.HTTP.applyDefaults()
	c.Database.applyDefaults()
	c.Storage.applyDefaults()
	c.Run.applyDefaults()
	c.Mail.applyDefaults()
	c.Schedule.applyDefaults()
}

func setDefault[T comparable](v *T, def T) {
	var zero T
	if *v == zero {
		*v = def
	}
}

func (h *HTTPConfig) applyDefaults() {
	setDefault(&h.Port, 8080)
	setDefault(&h.ReadTimeoutSec, 10)
	setDefault(&h.WriteTimeoutSec, 10)
	setDefault(&h.ShutdownSec, 10)
}

func (d *DatabaseConfig) applyDefaults() {
	setDefault(&d.Driver, "redis")
	setDefault(&d.ReadinessTimeout, 10)
}

func (s *StorageConfig) applyDefaults() {
	setDefault(&s.KeyPrefix, "searchagent:")
}

func (r *RunConfig) applyDefaults() {
	setDefault(&r.Workers, 1)
	setDefault(&r.PageSize, 100)
}

func (m *MailConfig) applyDefaults() {
	setDefault(&m.Driver, "log")
	setDefault(&m.Port, 587)
	setDefault(&m.TLSPolicy, "mandatory")
	setDefault(&m.TimeoutSec, 15)
	setDefault(&m.DefaultLocale, "da")
}

func (s *ScheduleConfig) applyDefaults() {
	setDefault(&s.Spec, "0 6 * * *")
	setDefault(&s.Timezone, "Europe/Copenhagen")
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	return errors.Join(
		c.HTTP.validate(),
		c.Database.validate(),
		c.Run.validate(),
		c.Mail.validate(),
		c.Schedule.validate(),
	)
}

func (h *HTTPConfig) validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("http.port %d is out of range 1-65535", h.Port)
	}
	for name, v := range map[string]int{
		"read_timeout_sec":     h.ReadTimeoutSec,
		"write_timeout_sec":    h.WriteTimeoutSec,
		"shutdown_timeout_sec": h.ShutdownSec,
	} {
		if v < 0 {
			return fmt.Errorf("http.%s must not be negative, got %d", name, v)
		}
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	var errs []error
	if d.Driver != "redis" {
		errs = append(errs, fmt.Errorf("database.driver %q is not supported (want redis)", d.Driver))
	}
	if len(d.Addrs) == 0 {
		errs = append(errs, errors.New("database.addrs is required"))
	}
	if d.ReadinessTimeout < 0 {
		errs = append(errs, fmt.Errorf("database.readiness_timeout_sec must not be negative, got %d", d.ReadinessTimeout))
	}
	return errors.Join(errs...)
}

func (r *RunConfig) validate() error {
	var errs []error
	if r.SearchTimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("run.search_timeout_sec must not be negative, got %d", r.SearchTimeoutSec))
	}
	if r.Workers < 0 {
		errs = append(errs, fmt.Errorf("run.workers must not be negative, got %d", r.Workers))
	}
	return errors.Join(errs...)
}

func (m *MailConfig) validate() error {
	var errs []error
	switch m.Driver {
	case "log":
	case "smtp":
		if m.Host == "" {
			errs = append(errs, errors.New("mail.host is required for the smtp driver"))
		}
		if m.From == "" {
			errs = append(errs, errors.New("mail.from is required for the smtp driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("mail.driver %q is not supported (want smtp or log)", m.Driver))
	}
	if !slices.Contains([]string{"mandatory", "opportunistic", "none"}, m.TLSPolicy) {
		errs = append(errs, fmt.Errorf("mail.tls_policy %q is not one of mandatory, opportunistic, none", m.TLSPolicy))
	}
	if m.RatePerSec < 0 {
		errs = append(errs, fmt.Errorf("mail.rate_per_sec must not be negative, got %g", m.RatePerSec))
	}
	if m.MaxListings < 0 {
		errs = append(errs, fmt.Errorf("mail.max_listings must not be negative, got %d", m.MaxListings))
	}
	return errors.Join(errs...)
}

func (s *ScheduleConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	return nil
}

// findConfigPath looks for <env>.yaml in ./config, then in the config directory
// of the source tree (tests run from package directories).
func findConfigPath(env string) string {
	name := filepath.Join("config", env+".yaml")
	_, self, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(self), "..", "..")

	for _, candidate := range []string{name, filepath.Join(root, name)} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return name
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${VAR} and ${VAR:-default}. An unset or empty VAR takes the default.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		name, def, hasDefault := strings.Cut(string(match[2:len(match)-1]), ":-")
		if v := os.Getenv(name); v != "" || !hasDefault {
			return []byte(v)
		}
		return []byte(def)
	})
}
