// Package config provides Viper-based configuration loading for the arena service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the character store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// OracleConfig holds settings for the external decision-generation service.
type OracleConfig struct {
	// Model is the generation model identifier.
	Model string `mapstructure:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `mapstructure:"api_key_env"`
	// MaxTokens bounds the generated reply; the oracle only needs one action name.
	MaxTokens int `mapstructure:"max_tokens"`
	// Temperature is the sampling temperature for action choices.
	Temperature float64 `mapstructure:"temperature"`
	// RequestTimeout bounds a single generation call.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// BattleConfig holds battle engine tuning values.
type BattleConfig struct {
	// BaseDamage is the basic-attack base damage constant.
	BaseDamage int `mapstructure:"base_damage"`
	// MaxLogLines caps the per-battle action log.
	MaxLogLines int `mapstructure:"max_log_lines"`
	// HistorySize caps the engine's ended-battle retention.
	HistorySize int `mapstructure:"history_size"`
	// MaxLevelDiff is the largest allowed level gap for player-vs-player fights.
	MaxLevelDiff int `mapstructure:"max_level_diff"`
	// IdleTimeout is the per-battle inactivity limit before the sweeper ends it.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// SweepInterval is how often the sweeper scans for idle battles.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Battle   BattleConfig   `mapstructure:"battle"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateOracle(c.Oracle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateOracle(o OracleConfig) error {
	var errs []string
	if o.Model == "" {
		errs = append(errs, "oracle.model must not be empty")
	}
	if o.APIKeyEnv == "" {
		errs = append(errs, "oracle.api_key_env must not be empty")
	}
	if o.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("oracle.max_tokens must be >= 1, got %d", o.MaxTokens))
	}
	if o.Temperature < 0 || o.Temperature > 1 {
		errs = append(errs, fmt.Sprintf("oracle.temperature must be in [0, 1], got %g", o.Temperature))
	}
	if o.RequestTimeout <= 0 {
		errs = append(errs, "oracle.request_timeout must be > 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.BaseDamage < 1 {
		errs = append(errs, fmt.Sprintf("battle.base_damage must be >= 1, got %d", b.BaseDamage))
	}
	if b.MaxLogLines < 1 {
		errs = append(errs, fmt.Sprintf("battle.max_log_lines must be >= 1, got %d", b.MaxLogLines))
	}
	if b.HistorySize < 1 {
		errs = append(errs, fmt.Sprintf("battle.history_size must be >= 1, got %d", b.HistorySize))
	}
	if b.MaxLevelDiff < 0 {
		errs = append(errs, fmt.Sprintf("battle.max_level_diff must be >= 0, got %d", b.MaxLevelDiff))
	}
	if b.IdleTimeout <= 0 {
		errs = append(errs, "battle.idle_timeout must be > 0")
	}
	if b.SweepInterval <= 0 {
		errs = append(errs, "battle.sweep_interval must be > 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ARENA_ prefix
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("viper instance must not be nil")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.password", "arena")
	v.SetDefault("database.name", "arena")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("oracle.model", "claude-3-5-haiku-latest")
	v.SetDefault("oracle.api_key_env", "ANTHROPIC_API_KEY")
	v.SetDefault("oracle.max_tokens", 64)
	v.SetDefault("oracle.temperature", 0.6)
	v.SetDefault("oracle.request_timeout", "15s")

	v.SetDefault("battle.base_damage", 10)
	v.SetDefault("battle.max_log_lines", 50)
	v.SetDefault("battle.history_size", 100)
	v.SetDefault("battle.max_level_diff", 5)
	v.SetDefault("battle.idle_timeout", "5m")
	v.SetDefault("battle.sweep_interval", "30s")
}
