// Package batch annotates a manifest of stored documents and writes the
// annotations as url<TAB>annotation lines.
package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a Runner is created with a non-positive limit.
const DefaultConcurrency = 4

const maxLineSize = 1 << 20

// Entry is one manifest line.
type Entry struct {
	URL     string `json:"url"`
	BaseURL string `json:"base_url,omitempty"`
	// Path locates the stored document, relative to the manifest's directory.
	Path string `json:"path"`
}

// Stats summarizes a run.
type Stats struct {
	Documents int64
	Annotated int64
	Failed    int64
}

// Annotator is the per-document annotation step.
type Annotator interface {
	Annotate(ctx context.Context, url string, doc *document.Document) (string, bool, error)
}

// Runner annotates manifest entries with bounded concurrency.
type Runner struct {
	annotator   Annotator
	concurrency int
	log         logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(a Annotator, concurrency int, log logger.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{annotator: a, concurrency: concurrency, log: log}
}

type outcome struct {
	url        string
	annotation string
	ok         bool
}

// Run reads the manifest from r, resolving document paths against baseDir,
// and writes one line per annotated document to w in manifest order. A
// failing document is logged and counted and never stops the others. Run
// returns an error only when the manifest cannot be read, the output cannot
// be written, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, manifest io.Reader, baseDir string, w io.Writer) (Stats, error) {
	var (
		stats   Stats
		results []*outcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	scanner := bufio.NewScanner(manifest)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		atomic.AddInt64(&stats.Documents, 1)
		slot := &outcome{}
		results = append(results, slot)

		var entry Entry
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			r.fail(&stats, line, "", fmt.Errorf("decode manifest entry: %w", err))
			continue
		}
		if entry.URL == "" || entry.Path == "" {
			r.fail(&stats, line, entry.URL, errors.New("manifest entry needs url and path"))
			continue
		}

		lineNo := line
		g.Go(func() error {
			annotation, ok, err := r.annotate(gctx, entry, baseDir)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.fail(&stats, lineNo, entry.URL, err)
				return nil
			}
			slot.url, slot.annotation, slot.ok = entry.URL, annotation, ok
			if ok {
				atomic.AddInt64(&stats.Annotated, 1)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read manifest: %w", err)
	}
	if waitErr != nil {
		return stats, waitErr
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	out := bufio.NewWriter(w)
	for _, res := range results {
		if !res.ok {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\n", res.url, res.annotation); err != nil {
			return stats, fmt.Errorf("write result: %w", err)
		}
	}
	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("write result: %w", err)
	}

	r.log.Info("Batch complete",
		logger.Int("documents", int(stats.Documents)),
		logger.Int("annotated", int(stats.Annotated)),
		logger.Int("failed", int(stats.Failed)),
	)
	return stats, nil
}

func (r *Runner) annotate(ctx context.Context, entry Entry, baseDir string) (string, bool, error) {
	path := entry.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	doc, err := document.ParseFile(path, entry.BaseURL)
	if err != nil {
		return "", false, err
	}
	return r.annotator.Annotate(ctx, entry.URL, doc)
}

func (r *Runner) fail(stats *Stats, line int, url string, err error) {
	atomic.AddInt64(&stats.Failed, 1)
	r.log.Warn("Document failed",
		logger.Int("line", line),
		logger.String("url", url),
		logger.Error(err),
	)
}
