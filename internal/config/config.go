package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SKILLSWAP_API_URL
const EnvPrefix = "SKILLSWAP"

type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Rate    float64       `mapstructure:"rate"`
	Burst   int           `mapstructure:"burst"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	StrictRefresh bool `mapstructure:"strict_refresh"`
}

type MatchesConfig struct {
	Limit int `mapstructure:"limit"`
}

type DashboardConfig struct {
	UpcomingWindow int `mapstructure:"upcoming_window"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the client configuration
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Store     StoreConfig     `mapstructure:"store"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Matches   MatchesConfig   `mapstructure:"matches"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Log       LogConfig       `mapstructure:"log"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// Options controls where configuration comes from
type Options struct {
	// File is an explicit config file; missing it is an error
	File string
	// Dir is searched for config.yaml when File is empty
	Dir string
	// EnvFile is loaded into the environment first; missing it is ignored
	EnvFile string
	// Overrides win over every other source, e.g. changed CLI flags
	Overrides map[string]any
	// DefaultStorePath is used when store.path is unset
	DefaultStorePath string
}

// Load reads .env, the config file, SKILLSWAP_* variables and overrides, in
// increasing order of precedence
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, opts.DefaultStorePath)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		if opts.Dir != "" {
			v.AddConfigPath(opts.Dir)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, storePath string) {
	v.SetDefault("api.url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.rate", 10)
	v.SetDefault("api.burst", 5)

	v.SetDefault("store.path", storePath)

	v.SetDefault("auth.strict_refresh", false)

	v.SetDefault("matches.limit", 10)
	v.SetDefault("dashboard.upcoming_window", 3)

	v.SetDefault("log.level", "info")
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return errors.New("config: api.url is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("config: api.timeout must not be negative, got %s", c.API.Timeout)
	}
	if c.API.Rate < 0 {
		return fmt.Errorf("config: api.rate must not be negative, got %v", c.API.Rate)
	}
	if c.Store.Path == "" {
		return errors.New("config: store.path is required")
	}
	if c.Matches.Limit < 1 {
		return fmt.Errorf("config: matches.limit must be at least 1, got %d", c.Matches.Limit)
	}
	if c.Dashboard.UpcomingWindow < 1 {
		return fmt.Errorf("config: dashboard.upcoming_window must be at least 1, got %d", c.Dashboard.UpcomingWindow)
	}
	return nil
}

// StoreDir returns the directory of the session store
func (c *Config) StoreDir() string {
	return filepath.Dir(c.Store.Path)
}
