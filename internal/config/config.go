// Package config loads application configuration from an optional
// config.yaml plus DPC_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Frontier FrontierConfig `yaml:"frontier" mapstructure:"frontier"`
	Alliance AllianceConfig `yaml:"alliance" mapstructure:"alliance"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// FrontierConfig configures the map-application source.
type FrontierConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	DelayMS   int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutMS int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// AllianceConfig configures the directory source.
type AllianceConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	DelayMS int    `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// GeocodeConfig configures the Census geocoder client.
type GeocodeConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// RenderConfig configures the reader-proxy used for JS-rendered pages and
// web search.
type RenderConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
	DelayMS       int    `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// PipelineConfig holds the run-loop tunables shared by every pass.
type PipelineConfig struct {
	CheckpointEvery int `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml (optional) and the environment into a Config.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "dpc.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("frontier.base_url", "https://mapper.dpcfrontier.com")
	v.SetDefault("frontier.delay_ms", 1200)
	v.SetDefault("frontier.timeout_ms", 20000)
	v.SetDefault("alliance.base_url", "https://www.dpcalliance.org")
	v.SetDefault("alliance.delay_ms", 3000)
	v.SetDefault("geocode.base_url", "https://geocoding.geo.census.gov")
	v.SetDefault("geocode.rate_per_second", 1.0)
	v.SetDefault("render.base_url", "https://r.jina.ai")
	v.SetDefault("render.search_base_url", "https://s.jina.ai")
	v.SetDefault("render.delay_ms", 1500)
	v.SetDefault("pipeline.checkpoint_every", 50)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// InitLogger builds the global zap logger from the log config.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
