package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Assess  AssessConfig  `yaml:"assess" mapstructure:"assess"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Portal  PortalConfig  `yaml:"portal" mapstructure:"portal"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// BatchConfig configures batch assessment.
type BatchConfig struct {
	MaxConcurrentPartners int `yaml:"max_concurrent_partners" mapstructure:"max_concurrent_partners"`
}

// AssessConfig tunes the compliance evaluation and report.
type AssessConfig struct {
	MismatchToleranceHours float64 `yaml:"mismatch_tolerance_hours" mapstructure:"mismatch_tolerance_hours"`
	ReportSheet            string  `yaml:"report_sheet" mapstructure:"report_sheet"`
}

// MismatchTolerance returns the tolerance as a duration.
func (a AssessConfig) MismatchTolerance() time.Duration {
	return time.Duration(a.MismatchToleranceHours * float64(time.Hour))
}

// ExtractConfig configures the certificate extraction service.
type ExtractConfig struct {
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	APIKey           string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	TempDir          string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// PortalConfig holds the supplier portal API settings.
type PortalConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Token             string  `yaml:"token" mapstructure:"token"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	DocumentURL       string  `yaml:"document_url" mapstructure:"document_url"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "coi.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.max_concurrent_partners", 5)
	v.SetDefault("assess.mismatch_tolerance_hours", 12)
	v.SetDefault("assess.report_sheet", "COI Review")
	v.SetDefault("extract.timeout_secs", 60)
	v.SetDefault("extract.max_attempts", 3)
	v.SetDefault("extract.initial_backoff_ms", 2000)
	v.SetDefault("extract.temp_dir", "/tmp/coi-extract")
	v.SetDefault("portal.requests_per_second", 2)

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

// Validate checks the settings every command relies on. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not sqlite or postgres", c.Store.Driver))
	}
	if c.Batch.MaxConcurrentPartners < 1 {
		errs = append(errs, "batch.max_concurrent_partners must be > 0")
	}
	if c.Assess.MismatchToleranceHours < 0 {
		errs = append(errs, "assess.mismatch_tolerance_hours must be >= 0")
	}
	if c.Server.Port < 0 {
		errs = append(errs, "server.port must be >= 0")
	}
	if c.Portal.RequestsPerSecond < 0 {
		errs = append(errs, "portal.requests_per_second must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
