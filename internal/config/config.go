package config

import (
	"fmt"
	"time"
)

// Default service configuration values.
const (
	defaultServiceName    = "parse-rules"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8078
	defaultEngine         = "xpath"
	defaultDebounce       = 250 * time.Millisecond
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultConcurrency    = 4
	maxPort               = 65535
)

// Config holds the application configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Rules   RulesConfig   `yaml:"rules"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Batch   BatchConfig   `yaml:"batch"`
}

// ServiceConfig holds service identity and runtime settings.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"PARSE_RULES_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"        yaml:"debug"`
}

// RulesConfig points at the rule source and selects the query engine.
type RulesConfig struct {
	File         string        `env:"PARSE_RULES_FILE"          yaml:"file"`
	Engine       string        `env:"PARSE_RULES_ENGINE"        yaml:"engine"`
	Watch        bool          `env:"PARSE_RULES_WATCH"         yaml:"watch"`
	Debounce     time.Duration `yaml:"debounce"`
	QueryTimeout time.Duration `env:"PARSE_RULES_QUERY_TIMEOUT" yaml:"query_timeout"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level       string   `env:"LOG_LEVEL"  yaml:"level"`
	Format      string   `env:"LOG_FORMAT" yaml:"format"`
	OutputPaths []string `yaml:"output_paths"`
}

// BatchConfig tunes the local batch runner.
type BatchConfig struct {
	Concurrency int `env:"PARSE_RULES_BATCH_CONCURRENCY" yaml:"concurrency"`
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load loads configuration from path, applies defaults and env overrides, and validates it.
func Load(path string) (*Config, error) {
	cfg, loadErr := LoadWithDefaults(path, SetDefaults)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. The engine name is only
// checked for presence; it is resolved against the engine registry at startup.
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > maxPort {
		return &ValidationError{Field: "service.port", Message: "must be between 1 and 65535"}
	}

	if c.Rules.File == "" {
		return &ValidationError{Field: "rules.file", Message: "is required"}
	}

	if c.Rules.Engine == "" {
		return &ValidationError{Field: "rules.engine", Message: "is required"}
	}

	if c.Rules.QueryTimeout < 0 {
		return &ValidationError{Field: "rules.query_timeout", Message: "must not be negative"}
	}

	if c.Batch.Concurrency <= 0 {
		return &ValidationError{Field: "batch.concurrency", Message: "must be positive"}
	}

	return nil
}

// SetDefaults applies default values to every section.
func SetDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = defaultServiceName
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = defaultServiceVersion
	}
	if cfg.Service.Port == 0 {
		cfg.Service.Port = defaultServicePort
	}

	if cfg.Rules.Engine == "" {
		cfg.Rules.Engine = defaultEngine
	}
	if cfg.Rules.Debounce == 0 {
		cfg.Rules.Debounce = defaultDebounce
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultLogFormat
	}

	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = defaultConcurrency
	}
}
