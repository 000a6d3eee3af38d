// Package engine defines the contracts between rule dispatch and the
// query and probe engines that compile and evaluate rule expressions.
//
// Engines are injected explicitly; nothing in this module reaches for a
// process-wide engine instance.
package engine

//go:generate mockgen -source=engine.go -destination=../../testutils/mocks/engine/engine.go

import (
	"context"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
)

// XHTML namespace binding available to every probe.
const (
	XHTMLPrefix    = "h"
	XHTMLNamespace = "http://www.w3.org/1999/xhtml"
)

// ProbeNamespaces returns the only prefix bindings probes are compiled with.
func ProbeNamespaces() map[string]string {
	return map[string]string{XHTMLPrefix: XHTMLNamespace}
}

// Query is a compiled, reusable query handle.
type Query interface {
	// ExternalVariables lists the names of externally bound variables the query declares.
	ExternalVariables() []string
	// Execute evaluates the query with doc as context item and returns the
	// result sequence serialized as a single string.
	Execute(ctx context.Context, doc *document.Document, bindings map[string]string) (string, error)
}

// QueryCompiler compiles query sources. baseLocation is the directory
// relative references inside the source resolve against.
type QueryCompiler interface {
	CompileQuery(source, baseLocation string) (Query, error)
}

// Probe is a compiled content probe.
type Probe interface {
	// Evaluate returns the string value of the probe against doc.
	Evaluate(ctx context.Context, doc *document.Document) (string, error)
}

// ProbeCompiler compiles probe expressions with the given prefix bindings.
type ProbeCompiler interface {
	CompileProbe(expr string, namespaces map[string]string) (Probe, error)
}
