package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service" mapstructure:"service"`
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Trending TrendingConfig `yaml:"trending" mapstructure:"trending"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ServiceConfig points the client at the verification service.
type ServiceConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	Language       string        `yaml:"language" mapstructure:"language"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// VerifyConfig holds orchestration timings.
type VerifyConfig struct {
	StageInterval     time.Duration `yaml:"stage_interval" mapstructure:"stage_interval"`
	TickInterval      time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	PresetTimeout     time.Duration `yaml:"preset_timeout" mapstructure:"preset_timeout"`
	SimulatedMinDelay time.Duration `yaml:"simulated_min_delay" mapstructure:"simulated_min_delay"`
	SimulatedMaxDelay time.Duration `yaml:"simulated_max_delay" mapstructure:"simulated_max_delay"`
	HistoryMax        int           `yaml:"history_max" mapstructure:"history_max"`
}

// StoreConfig configures the key-value backend for history and badges.
type StoreConfig struct {
	Driver    string `yaml:"driver" mapstructure:"driver"`
	DSN       string `yaml:"dsn" mapstructure:"dsn"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
	MaxConns  int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns  int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// TrendingConfig configures the trending listing.
type TrendingConfig struct {
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	CacheTTL  time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheSize int           `yaml:"cache_size" mapstructure:"cache_size"`
	Retries   int           `yaml:"retries" mapstructure:"retries"`
}

// ServerConfig configures the gateway server.
type ServerConfig struct {
	Port             int           `yaml:"port" mapstructure:"port"`
	BackendURL       string        `yaml:"backend_url" mapstructure:"backend_url"`
	AllowedOrigins   []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit        float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst        int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	RequestTimeout   time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	BreakerThreshold int           `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breaker_reset" mapstructure:"breaker_reset"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CAPCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("service.base_url", "http://localhost:3000")
	v.SetDefault("service.language", "en")
	v.SetDefault("service.request_timeout", 90*time.Second)
	v.SetDefault("service.probe_timeout", 5*time.Second)
	v.SetDefault("verify.stage_interval", 6*time.Second)
	v.SetDefault("verify.tick_interval", time.Second)
	v.SetDefault("verify.preset_timeout", 20*time.Second)
	v.SetDefault("verify.simulated_min_delay", 2*time.Second)
	v.SetDefault("verify.simulated_max_delay", 3*time.Second)
	v.SetDefault("verify.history_max", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "capcheck.db")
	v.SetDefault("store.key_prefix", "capcheck:")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("trending.cache_ttl", 60*time.Second)
	v.SetDefault("trending.cache_size", 32)
	v.SetDefault("trending.retries", 3)
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.backend_url", "http://localhost:8000")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.request_timeout", 90*time.Second)
	v.SetDefault("server.breaker_threshold", 3)
	v.SetDefault("server.breaker_reset", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "client":
		if c.Service.BaseURL == "" {
			errs = append(errs, "service.base_url is required")
		}
		if c.Verify.HistoryMax < 1 {
			errs = append(errs, "verify.history_max must be >= 1")
		}
		if c.Verify.SimulatedMaxDelay < c.Verify.SimulatedMinDelay {
			errs = append(errs, "verify.simulated_max_delay must be >= verify.simulated_min_delay")
		}
		switch c.Store.Driver {
		case "sqlite", "postgres", "redis", "memory":
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
		}
		if c.Store.Driver == "postgres" && c.Store.DSN == "" {
			errs = append(errs, "store.dsn is required for postgres")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.BackendURL == "" {
			errs = append(errs, "server.backend_url is required")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
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
