package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/config"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
)

// LoadConfig loads and validates the service configuration. An empty path
// falls back to CONFIG_PATH, then config.yml.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath("config.yml")
	}

	cfg, loadErr := config.Load(path)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	return cfg, nil
}

// CreateLogger creates a structured logger for the service.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	log, logErr := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
		OutputPaths: cfg.Logging.OutputPaths,
	})
	if logErr != nil {
		return nil, fmt.Errorf("create logger: %w", logErr)
	}

	return log.With(logger.String("service", cfg.Service.Name)), nil
}
