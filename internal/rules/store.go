package rules

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
)

// ErrNoIndex is returned when a Store has never been given an index.
var ErrNoIndex = errors.New("no rule index published")

// Provider hands out the index a dispatch should read.
type Provider interface {
	Current() *Index
}

// Current lets a fixed *Index act as its own Provider.
func (i *Index) Current() *Index { return i }

// Store publishes complete indexes. Readers take one snapshot per dispatch;
// a published index is never modified, only replaced.
type Store struct {
	current atomic.Pointer[Index]
}

// NewStore creates a Store publishing idx.
func NewStore(idx *Index) *Store {
	s := &Store{}
	if idx != nil {
		s.current.Store(idx)
	}
	return s
}

// Current returns the latest published index, or nil.
func (s *Store) Current() *Index {
	return s.current.Load()
}

// Publish makes idx current and returns the index it replaced. The replaced
// index is not closed because in-flight dispatches may still read it.
func (s *Store) Publish(idx *Index) *Index {
	return s.current.Swap(idx)
}

// Close releases the current index.
func (s *Store) Close() error {
	idx := s.current.Swap(nil)
	if idx == nil {
		return nil
	}
	return idx.Close()
}

// Reloader rebuilds the index from its source and publishes it only when the
// whole load succeeds.
type Reloader struct {
	loader *Loader
	path   string
	store  *Store
	log    logger.Logger
	// OnReload, when set, observes every attempt.
	OnReload func(idx *Index, took time.Duration, err error)
}

// NewReloader creates a Reloader for the rule source at path.
func NewReloader(loader *Loader, path string, store *Store, log logger.Logger) *Reloader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reloader{loader: loader, path: path, store: store, log: log}
}

// Reload loads the source again. On failure the previous index stays current.
func (r *Reloader) Reload() error {
	start := time.Now()
	idx, err := r.loader.Load(r.path)
	took := time.Since(start)

	if r.OnReload != nil {
		r.OnReload(idx, took, err)
	}

	if err != nil {
		r.log.Error("Rule reload failed, keeping previous rules",
			logger.String("rules_file", r.path),
			logger.Error(err),
		)
		return err
	}

	r.store.Publish(idx)
	r.log.Info("Rules reloaded",
		logger.String("rules_file", r.path),
		logger.Int("rules", idx.Len()),
		logger.Duration("took", took),
	)
	return nil
}
