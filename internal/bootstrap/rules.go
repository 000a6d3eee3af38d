package bootstrap

import (
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/config"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine/xpathengine"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/metrics"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/rules"
)

// Engines returns the registry of every query engine this binary ships.
func Engines() *engine.Registry {
	reg := engine.NewRegistry()
	// Registration of a fixed, unique name cannot fail.
	_ = reg.Register(xpathengine.Name, xpathengine.Constructor)
	return reg
}

// Rules bundles the rule store and the machinery that refreshes it.
type Rules struct {
	Store    *rules.Store
	Reloader *rules.Reloader
	// Watcher is nil unless rules.watch is enabled.
	Watcher *rules.Watcher
}

// Close releases the current index.
func (r *Rules) Close() error {
	return r.Store.Close()
}

// SetupRules resolves the configured engine, loads the rule source and
// publishes the index. A load failure is returned; the service must not
// start with a partial index.
func SetupRules(cfg *config.Config, registry *engine.Registry, m *metrics.Metrics, log logger.Logger) (*Rules, error) {
	engines, engineErr := registry.New(cfg.Rules.Engine)
	if engineErr != nil {
		return nil, fmt.Errorf("engine: %w", engineErr)
	}

	loader := rules.NewLoader(engines.Queries, engines.Probes, log)

	start := time.Now()
	idx, loadErr := loader.Load(cfg.Rules.File)
	m.RecordLoad(idx.Len(), len(idx.Domains()), time.Since(start), loadErr)
	if loadErr != nil {
		return nil, loadErr
	}

	store := rules.NewStore(idx)
	reloader := rules.NewReloader(loader, cfg.Rules.File, store, log)
	reloader.OnReload = func(idx *rules.Index, took time.Duration, err error) {
		m.RecordLoad(idx.Len(), len(idx.Domains()), took, err)
	}

	r := &Rules{Store: store, Reloader: reloader}
	if cfg.Rules.Watch {
		w, watchErr := rules.NewWatcher(cfg.Rules.File, cfg.Rules.Debounce, reloader.Reload, log)
		if watchErr != nil {
			_ = store.Close()
			return nil, fmt.Errorf("rules watcher: %w", watchErr)
		}
		w.Track(idx)
		reloader.OnReload = func(idx *rules.Index, took time.Duration, err error) {
			m.RecordLoad(idx.Len(), len(idx.Domains()), took, err)
			if err == nil {
				w.Track(idx)
			}
		}
		r.Watcher = w
	}

	return r, nil
}
