// Package config loads nodeflux settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is used for the config file name and search directories.
	AppName = "nodeflux"

	// EnvPrefix prefixes every environment override, e.g. NODEFLUX_HTTP_ADDR.
	EnvPrefix = "NODEFLUX"
)

// Config is the full process configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // text or json
	} `mapstructure:"log"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	Store StoreConfig `mapstructure:"store"`

	Gemini struct {
		APIKey            string  `mapstructure:"api_key"`
		Model             string  `mapstructure:"model"`
		BaseURL           string  `mapstructure:"base_url"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		// MaxAttempts bounds how often one model call is sent on transient failures.
		MaxAttempts int `mapstructure:"max_attempts"`
	} `mapstructure:"gemini"`

	Scrape struct {
		Driver  string        `mapstructure:"driver"` // http or chrome
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"scrape"`

	Stocks struct {
		MasterDir string `mapstructure:"master_dir"`
	} `mapstructure:"stocks"`

	Broker struct {
		Driver    string `mapstructure:"driver"` // kis or paper
		AppKey    string `mapstructure:"app_key"`
		AppSecret string `mapstructure:"app_secret"`
		BaseURL   string `mapstructure:"base_url"`
		Account   string `mapstructure:"account"`
		Product   string `mapstructure:"product"`
	} `mapstructure:"broker"`
}

// StoreConfig selects the workflow store backend.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"` // memory, sqlite, postgres, redis, mongo
	DSN      string `mapstructure:"dsn"`
	Prefix   string `mapstructure:"prefix"`
	Database string `mapstructure:"database"`
}

var knownDrivers = []string{"memory", "sqlite", "postgres", "redis", "mongo"}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.addr", ":8000")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.prefix", "nodeflux:")
	v.SetDefault("store.database", "nodeflux")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "models/gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.requests_per_second", 0)
	v.SetDefault("gemini.max_attempts", 3)

	v.SetDefault("scrape.driver", "http")
	v.SetDefault("scrape.timeout", 10*time.Second)

	v.SetDefault("stocks.master_dir", filepath.Join("data", "stocks"))

	v.SetDefault("broker.driver", "kis")
	v.SetDefault("broker.app_key", "")
	v.SetDefault("broker.app_secret", "")
	v.SetDefault("broker.base_url", "https://openapivts.koreainvestment.com:29443")
	v.SetDefault("broker.account", "")
	v.SetDefault("broker.product", "01")
}

// Load reads configuration into a Config. An explicit cfgFile must exist;
// otherwise nodeflux.yaml is looked up in the working directory,
// $HOME/.config/nodeflux and /etc/nodeflux and may be absent.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
		v.AddConfigPath(filepath.Join("/etc", AppName))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// The conventional variable name of the Gemini SDKs.
	if err := v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("broker.app_key", EnvPrefix+"_BROKER_APP_KEY", "KIS_APP_KEY"); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("broker.app_secret", EnvPrefix+"_BROKER_APP_SECRET", "KIS_APP_SECRET"); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if !contains(knownDrivers, c.Store.Driver) {
		return fmt.Errorf("store.driver must be one of %s, got %q", strings.Join(knownDrivers, ", "), c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
	}
	if c.Scrape.Driver != "http" && c.Scrape.Driver != "chrome" {
		return fmt.Errorf("scrape.driver must be http or chrome, got %q", c.Scrape.Driver)
	}
	if c.Broker.Driver != "kis" && c.Broker.Driver != "paper" {
		return fmt.Errorf("broker.driver must be kis or paper, got %q", c.Broker.Driver)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
