// Package config provides YAML-based configuration loading for bugboard.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "bugboard.yaml"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DigestOff disables the scheduled overdue digest.
const DigestOff = "off"

// DefaultCategories are offered by the report form when none are configured.
var DefaultCategories = []string{
	"Authentication", "Database", "UI/UX", "Performance", "Security",
	"API", "Email", "Search", "Dashboard", "Other",
}

// DefaultTeam lists the assignees offered when none are configured.
var DefaultTeam = []string{
	"Sarah Johnson", "Alex Rodriguez", "David Kim", "Sophie Turner", "Michael Zhang",
}

// Config is the top-level bugboard configuration, loaded from bugboard.yaml.
type Config struct {
	Storage    StorageConfig   `yaml:"storage"`
	Dashboard  DashboardConfig `yaml:"dashboard"`
	Digest     DigestConfig    `yaml:"digest"`
	Log        LogConfig       `yaml:"log"`
	Categories []string        `yaml:"categories"`
	Team       []string        `yaml:"team"`
}

// StorageConfig selects and configures the bug store.
type StorageConfig struct {
	Driver      string      `yaml:"driver"`
	Path        string      `yaml:"path"`
	MySQL       MySQLConfig `yaml:"mysql"`
	SeedSamples *bool       `yaml:"seed_samples"`
}

// Seed reports whether the sample bugs should be loaded into an empty store.
func (s StorageConfig) Seed() bool {
	return s.SeedSamples == nil || *s.SeedSamples
}

// MySQLConfig holds connection settings for a MySQL-compatible server.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
}

// DashboardConfig holds web dashboard settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// DigestConfig controls the overdue digest schedule.
type DigestConfig struct {
	Schedule string `yaml:"schedule"`
}

// Enabled reports whether the digest runs on a schedule.
func (d DigestConfig) Enabled() bool {
	return d.Schedule != DigestOff
}

// LogConfig sets the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// cronParser accepts standard 5-field cron expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.Path == "" {
		c.Storage.Path = "bugboard.db"
	}
	if c.Storage.MySQL.Host == "" {
		c.Storage.MySQL.Host = "127.0.0.1"
	}
	if c.Storage.MySQL.Port == 0 {
		c.Storage.MySQL.Port = 3306
	}
	if c.Storage.MySQL.Database == "" {
		c.Storage.MySQL.Database = "bugboard"
	}
	if c.Storage.MySQL.User == "" {
		c.Storage.MySQL.User = "root"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 9 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if len(c.Categories) == 0 {
		c.Categories = slices.Clone(DefaultCategories)
	}
	if len(c.Team) == 0 {
		c.Team = slices.Clone(DefaultTeam)
	}
}

// validate checks that all fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverMySQL:
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q must be one of memory, sqlite, mysql", c.Storage.Driver))
	}
	if c.Dashboard.Port < 1 || c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Sprintf("dashboard.port %d out of range", c.Dashboard.Port))
	}
	if c.Storage.MySQL.Port < 1 || c.Storage.MySQL.Port > 65535 {
		errs = append(errs, fmt.Sprintf("storage.mysql.port %d out of range", c.Storage.MySQL.Port))
	}
	if c.Digest.Enabled() {
		if _, err := cronParser.Parse(c.Digest.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("digest.schedule %q: %v", c.Digest.Schedule, err))
		}
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level: %v", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			errs = append(errs, fmt.Sprintf("categories[%d] is blank", i))
		}
	}
	for i, name := range c.Team {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Sprintf("team[%d] is blank", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
