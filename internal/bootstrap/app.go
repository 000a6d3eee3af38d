// Package bootstrap handles application initialization and lifecycle management
// for the parse rules service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/annotator"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/config"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// App holds the wired components shared by every command.
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Rules     *Rules
	Annotator *annotator.Annotator
}

// New loads configuration and rules and wires the annotator.
func New(configPath string) (*App, error) {
	cfg, configErr := LoadConfig(configPath)
	if configErr != nil {
		return nil, fmt.Errorf("config: %w", configErr)
	}

	log, logErr := CreateLogger(cfg)
	if logErr != nil {
		return nil, fmt.Errorf("logger: %w", logErr)
	}

	return NewWithConfig(cfg, log)
}

// NewWithConfig wires an App from an already loaded configuration.
func NewWithConfig(cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	r, rulesErr := SetupRules(cfg, Engines(), m, log)
	if rulesErr != nil {
		return nil, fmt.Errorf("rules: %w", rulesErr)
	}

	a := annotator.New(annotator.Config{
		Rules:        r.Store,
		QueryTimeout: cfg.Rules.QueryTimeout,
		Metrics:      m,
		Logger:       log,
	})

	return &App{
		Config:    cfg,
		Logger:    log,
		Registry:  registry,
		Metrics:   m,
		Rules:     r,
		Annotator: a,
	}, nil
}

// Close releases the rule index and flushes the logger.
func (a *App) Close() error {
	closeErr := a.Rules.Close()
	_ = a.Logger.Sync()
	return closeErr
}

// Serve runs the HTTP server, and the rules watcher when enabled, until ctx
// is cancelled or either of them fails.
func (a *App) Serve(ctx context.Context) error {
	a.Logger.Info("Starting Parse Rules Service",
		logger.String("name", a.Config.Service.Name),
		logger.String("version", a.Config.Service.Version),
		logger.Int("port", a.Config.Service.Port),
		logger.String("rules_file", a.Config.Rules.File),
		logger.String("engine", a.Config.Rules.Engine),
	)

	srv := SetupHTTPServer(a)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if a.Rules.Watcher != nil {
		g.Go(func() error {
			return a.Rules.Watcher.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		a.Logger.Error("Server error", logger.Error(err))
		return fmt.Errorf("server: %w", err)
	}

	a.Logger.Info("Parse Rules Service stopped")
	return nil
}
