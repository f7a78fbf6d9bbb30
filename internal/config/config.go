// Package config resolves reserv settings from defaults, an optional config
// file, RESERV_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"

	"github.com/roach88/reserv/internal/db"
)

// EnvPrefix is prepended to every environment variable, e.g. RESERV_DSN.
const EnvPrefix = "reserv"

// Keys understood by Load. They double as flag names.
const (
	KeyConfig    = "config"
	KeyDriver    = "driver"
	KeyDSN       = "dsn"
	KeyFixtures  = "fixtures"
	KeyScenarios = "scenarios"
	KeyReset     = "reset"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
)

// Config holds resolved settings.
type Config struct {
	Driver      string `mapstructure:"driver" default:"sqlite3"`
	DSN         string `mapstructure:"dsn" default:":memory:"`
	FixtureDir  string `mapstructure:"fixtures" default:"testdata/fixtures"`
	ScenarioDir string `mapstructure:"scenarios" default:"testdata/scenarios"`
	Reset       bool   `mapstructure:"reset" default:"true"`
	LogLevel    string `mapstructure:"log-level" default:"info"`
	LogFormat   string `mapstructure:"log-format" default:"text"`
}

// Default returns a Config populated from the struct tag defaults.
func Default() *Config {
	c := &Config{}
	defaults.MustSet(c)
	return c
}

// NewViper returns a viper instance reading RESERV_* variables.
// Dashes in keys become underscores: log-level is RESERV_LOG_LEVEL.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves a Config from v. When the config key is set, that file is
// read first; its format follows the file extension.
func Load(v *viper.Viper) (*Config, error) {
	def := Default()
	v.SetDefault(KeyDriver, def.Driver)
	v.SetDefault(KeyDSN, def.DSN)
	v.SetDefault(KeyFixtures, def.FixtureDir)
	v.SetDefault(KeyScenarios, def.ScenarioDir)
	v.SetDefault(KeyReset, def.Reset)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyLogFormat, def.LogFormat)

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalises the driver name and checks the remaining fields.
func (c *Config) Validate() error {
	driver, err := db.CanonicalDriver(c.Driver)
	if err != nil {
		return err
	}
	c.Driver = driver

	if c.FixtureDir == "" {
		return fmt.Errorf("fixtures directory must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !isValid(c.LogFormat, LogFormats) {
		return fmt.Errorf("invalid log format %q: must be one of %v", c.LogFormat, LogFormats)
	}
	return nil
}

// Session returns the database settings for db.Open. The in-memory
// default only applies to sqlite3.
func (c *Config) Session() db.Config {
	dsn := c.DSN
	if c.Driver != db.DriverSQLite && dsn == ":memory:" {
		dsn = ""
	}
	return db.Config{Driver: c.Driver, DSN: dsn}
}

func isValid(value string, allowed []string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}
