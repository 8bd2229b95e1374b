package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	PubChem  PubChemConfig  `yaml:"pubchem" mapstructure:"pubchem"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Breaker  BreakerConfig  `yaml:"breaker" mapstructure:"breaker"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Anomaly  AnomalyConfig  `yaml:"anomaly" mapstructure:"anomaly"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// PubChemConfig configures the external compound database client.
type PubChemConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// Timeout returns the per-call timeout as a duration.
func (c PubChemConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryConfig configures the backoff policy for compound lookups.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// BreakerConfig configures the circuit breaker guarding PubChem.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// EnrichConfig configures the orchestrator.
type EnrichConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnomalyConfig configures the durable anomaly sink.
type AnomalyConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// RegistryConfig points at an optional descriptor property registry
// override; empty means the embedded default.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from config.yaml (optional) and FORMULANT_*
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FORMULANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pubchem.base_url", "https://pubchem.ncbi.nlm.nih.gov/rest/pug")
	v.SetDefault("pubchem.timeout_secs", 10)
	v.SetDefault("pubchem.rate_per_sec", 5)
	v.SetDefault("pubchem.burst", 5)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 250)
	v.SetDefault("retry.max_backoff_ms", 5000)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout_secs", 30)
	v.SetDefault("enrich.max_concurrent", 8)
	v.SetDefault("enrich.timeout_secs", 30)
	v.SetDefault("anomaly.driver", "jsonl")
	v.SetDefault("anomaly.path", "anomalies.jsonl")

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
