// Package executor runs a selected rule's query against a document.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine"
)

// Names of the only external variables a query is ever offered.
const (
	VarURL     = "url"
	VarBaseURL = "base_url"
)

// QueryError reports a query that failed or overran its deadline.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("execute query: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Executor invokes compiled queries. It keeps no state between calls, so one
// Executor serves any number of goroutines.
type Executor struct {
	timeout time.Duration
}

// New creates an Executor. A positive timeout bounds every execution.
func New(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Bindings returns the values for the variables q declares, limited to url and base_url.
func Bindings(q engine.Query, url, baseURL string) map[string]string {
	bindings := make(map[string]string, 2)
	for _, name := range q.ExternalVariables() {
		switch name {
		case VarURL:
			bindings[name] = url
		case VarBaseURL:
			bindings[name] = baseURL
		}
	}
	return bindings
}

// Execute runs q with doc as the context item and returns the serialized
// result. An empty string means the query produced nothing.
func (e *Executor) Execute(ctx context.Context, q engine.Query, doc *document.Document, url, baseURL string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	bindings := Bindings(q, url, baseURL)

	if ctx.Done() == nil {
		out, err := q.Execute(ctx, doc, bindings)
		if err != nil {
			return "", &QueryError{Err: err}
		}
		return out, nil
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := q.Execute(ctx, doc, bindings)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", &QueryError{Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return "", &QueryError{Err: r.err}
		}
		return r.out, nil
	}
}
