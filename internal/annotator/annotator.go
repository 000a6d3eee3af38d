// Package annotator composes rule dispatch and query execution into a single
// per-document annotation step.
package annotator

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/dispatch"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/executor"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/metrics"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/rules"
)

// FieldName is the metadata key annotations are stored under.
const FieldName = "xquery-parser"

// Annotator selects a rule for each document and runs its query.
type Annotator struct {
	rules      rules.Provider
	dispatcher *dispatch.Dispatcher
	executor   *executor.Executor
	metrics    *metrics.Metrics
	log        logger.Logger
}

// Config holds the Annotator's collaborators. Only Rules is required.
type Config struct {
	Rules        rules.Provider
	QueryTimeout time.Duration
	Metrics      *metrics.Metrics
	Logger       logger.Logger
}

// New creates an Annotator.
func New(cfg Config) *Annotator {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Annotator{
		rules:      cfg.Rules,
		dispatcher: dispatch.New(log),
		executor:   executor.New(cfg.QueryTimeout),
		metrics:    cfg.Metrics,
		log:        log,
	}
}

// Select reports which rule would be applied to the document, without running its query.
func (a *Annotator) Select(ctx context.Context, url string, doc *document.Document) (dispatch.Result, error) {
	idx := a.rules.Current()
	if idx == nil {
		return dispatch.Result{}, rules.ErrNoIndex
	}

	res, err := a.dispatcher.Select(ctx, idx, url, doc)
	a.metrics.RecordDispatch(outcome(res, err))
	return res, err
}

// Annotate returns the annotation for the document. ok is false when no rule
// applies or the query result is empty.
func (a *Annotator) Annotate(ctx context.Context, url string, doc *document.Document) (annotation string, ok bool, err error) {
	res, err := a.Select(ctx, url, doc)
	if err != nil || !res.Matched() {
		return "", false, err
	}

	start := time.Now()
	out, err := a.executor.Execute(ctx, res.Query(), doc, res.URL, res.BaseURL)
	a.metrics.RecordQuery(time.Since(start), out, err)
	if err != nil {
		return "", false, err
	}

	return out, out != "", nil
}

// Filter annotates the document and, when there is an annotation, adds it to
// meta under FieldName. Other fields are never touched.
func (a *Annotator) Filter(ctx context.Context, url string, doc *document.Document, meta Metadata) error {
	annotation, ok, err := a.Annotate(ctx, url, doc)
	if err != nil {
		logger.FromContext(ctx, a.log).Warn("Annotation failed",
			logger.String("url", url),
			logger.Error(err),
		)
		return err
	}
	if ok {
		meta.Add(FieldName, annotation)
	}
	return nil
}

func outcome(res dispatch.Result, err error) string {
	var (
		urlErr   *dispatch.URLParseError
		probeErr *dispatch.ProbeError
	)
	switch {
	case errors.As(err, &urlErr):
		return metrics.OutcomeBadURL
	case errors.As(err, &probeErr):
		return metrics.OutcomeProbeErr
	case res.Matched():
		return metrics.OutcomeMatched
	default:
		return metrics.OutcomeNoMatch
	}
}
