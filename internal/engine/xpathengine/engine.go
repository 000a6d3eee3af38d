// Package xpathengine implements the query and probe engines on top of
// antchfx/xpath, evaluating against xmlquery document trees.
//
// Probes are plain XPath 1.0 expressions. Queries are XPath 1.0 bodies that may
// be preceded by an XQuery-style prolog:
//
//	xquery version "1.0";
//	declare namespace h = "http://www.w3.org/1999/xhtml";
//	declare variable $url external;
//	(: comments are allowed anywhere outside string literals :)
//	concat(//h:h1, ' ', $url)
package xpathengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine"
)

// Name is the registry name of this engine.
const Name = "xpath"

// ErrNoDocument is returned when an expression is evaluated without a tree.
var ErrNoDocument = errors.New("no document to evaluate against")

// Engine compiles both queries and probes. It holds no state and is safe for
// concurrent use.
type Engine struct{}

// New returns an Engine.
func New() *Engine {
	return &Engine{}
}

// Constructor adapts New to engine.Constructor.
func Constructor() (engine.Engines, error) {
	e := New()
	return engine.Engines{Queries: e, Probes: e}, nil
}

// CompileProbe compiles expr with the given prefix bindings.
func (e *Engine) CompileProbe(expr string, namespaces map[string]string) (engine.Probe, error) {
	compiled, err := compile(expr, namespaces)
	if err != nil {
		return nil, fmt.Errorf("compile probe %q: %w", expr, err)
	}
	return &probe{source: expr, expr: compiled}, nil
}

type probe struct {
	source string

	mu   sync.Mutex
	expr *xpath.Expr
}

// Evaluate returns the XPath string() value of the probe.
func (p *probe) Evaluate(ctx context.Context, doc *document.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc == nil || doc.Root == nil {
		return "", ErrNoDocument
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var out string
	err := guard(func() {
		out = stringValue(p.expr.Evaluate(xmlquery.CreateXPathNavigator(doc.Root)))
	})
	if err != nil {
		return "", fmt.Errorf("evaluate probe %q: %w", p.source, err)
	}
	return out, nil
}

// compile wraps xpath.CompileWithNS, turning its panics into errors.
func compile(expr string, namespaces map[string]string) (*xpath.Expr, error) {
	var compiled *xpath.Expr
	var compileErr error
	err := guard(func() {
		compiled, compileErr = xpath.CompileWithNS(expr, namespaces)
	})
	if err != nil {
		return nil, err
	}
	return compiled, compileErr
}

// guard runs fn and converts a panic raised by the evaluator into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("xpath: %v", r)
		}
	}()
	fn()
	return nil
}

// stringValue applies the XPath 1.0 string() conversion.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case *xpath.NodeIterator:
		if val.MoveNext() {
			return val.Current().Value()
		}
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// serialize renders an evaluation result as a single string: nodes as XML
// (attributes and text by value) joined by a space, atomic values by string().
func serialize(v any) string {
	iter, ok := v.(*xpath.NodeIterator)
	if !ok {
		return stringValue(v)
	}

	var items []string
	for iter.MoveNext() {
		items = append(items, serializeNode(iter.Current()))
	}
	return strings.Join(items, " ")
}

func serializeNode(nav xpath.NodeNavigator) string {
	switch nav.NodeType() {
	case xpath.AttributeNode, xpath.TextNode:
		return nav.Value()
	default:
	}

	if xnav, ok := nav.(*xmlquery.NodeNavigator); ok {
		return xnav.Current().OutputXML(true)
	}
	return nav.Value()
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
