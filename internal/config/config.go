package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// MetadataRateLimit caps metadata requests per client IP per minute. 0 disables it.
	MetadataRateLimit int `mapstructure:"metadata_rate_limit"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetadataConfig holds aggregation configuration.
type MetadataConfig struct {
	DefaultLocale    string `mapstructure:"default_locale"`
	DevMode          bool   `mapstructure:"dev_mode"`
	SeedProfilesPath string `mapstructure:"seed_profiles_path"`
	ProfileCacheTTL  string `mapstructure:"profile_cache_ttl"`
}

// SchedulerConfig holds background task configuration.
type SchedulerConfig struct {
	ProfileValidationCron string `mapstructure:"profile_validation_cron"`
	RunOnStart            bool   `mapstructure:"run_on_start"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8484,
			MetadataRateLimit: 120,
		},
		Database: DatabaseConfig{
			Path: "./data/metadex.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metadata: MetadataConfig{
			DefaultLocale:   "en",
			ProfileCacheTTL: "5m",
		},
		Scheduler: SchedulerConfig{
			ProfileValidationCron: "0 */6 * * *",
			RunOnStart:            true,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.metadex")
	}

	v.SetEnvPrefix("METADEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// setDefaults mirrors Default so every key is known to viper, which
// AutomaticEnv needs to pick up environment overrides during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.metadata_rate_limit", d.Server.MetadataRateLimit)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("metadata.default_locale", d.Metadata.DefaultLocale)
	v.SetDefault("metadata.dev_mode", d.Metadata.DevMode)
	v.SetDefault("metadata.seed_profiles_path", d.Metadata.SeedProfilesPath)
	v.SetDefault("metadata.profile_cache_ttl", d.Metadata.ProfileCacheTTL)

	v.SetDefault("scheduler.profile_validation_cron", d.Scheduler.ProfileValidationCron)
	v.SetDefault("scheduler.run_on_start", d.Scheduler.RunOnStart)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
