package xpathengine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine"
)

var (
	versionDecl   = regexp.MustCompile(`^xquery\s+version\s+("[^"]*"|'[^']*')\s*;`)
	namespaceDecl = regexp.MustCompile(`^declare\s+namespace\s+([A-Za-z_][\w.-]*)\s*=\s*("[^"]*"|'[^']*')\s*;`)
	variableDecl  = regexp.MustCompile(`^declare\s+variable\s+\$([A-Za-z_][\w.-]*)(?:\s+as\s+[^\s;]+)?\s+external\s*;`)
)

// ErrUnboundVariable is returned when a declared external variable has no binding.
var ErrUnboundVariable = errors.New("external variable is not bound")

type query struct {
	body         string
	namespaces   map[string]string
	variables    []string
	baseLocation string

	mu   sync.Mutex
	expr *xpath.Expr // nil when the body references variables
}

// CompileQuery parses the prolog and compiles the body. Bodies referencing
// external variables are validated here and recompiled per execution with the
// bound values inlined.
func (e *Engine) CompileQuery(source, baseLocation string) (engine.Query, error) {
	stripped, err := stripComments(source)
	if err != nil {
		return nil, fmt.Errorf("compile query (base %s): %w", baseLocation, err)
	}

	q, err := parseProlog(stripped)
	if err != nil {
		return nil, fmt.Errorf("compile query (base %s): %w", baseLocation, err)
	}
	q.baseLocation = baseLocation

	placeholders := make(map[string]string, len(q.variables))
	for _, name := range q.variables {
		placeholders[name] = ""
	}

	body, err := substitute(q.body, placeholders)
	if err != nil {
		return nil, fmt.Errorf("compile query (base %s): %w", baseLocation, err)
	}

	compiled, err := compile(body, q.namespaces)
	if err != nil {
		return nil, fmt.Errorf("compile query (base %s): %w", baseLocation, err)
	}

	if len(q.variables) == 0 {
		q.expr = compiled
	}
	return q, nil
}

func parseProlog(src string) (*query, error) {
	q := &query{namespaces: engine.ProbeNamespaces()}
	seen := make(map[string]bool)

	rest := strings.TrimSpace(src)
	if m := versionDecl.FindStringSubmatch(rest); m != nil {
		rest = strings.TrimSpace(rest[len(m[0]):])
	}

	for strings.HasPrefix(rest, "declare") {
		if m := namespaceDecl.FindStringSubmatch(rest); m != nil {
			q.namespaces[m[1]] = unquote(m[2])
			rest = strings.TrimSpace(rest[len(m[0]):])
			continue
		}
		if m := variableDecl.FindStringSubmatch(rest); m != nil {
			if seen[m[1]] {
				return nil, fmt.Errorf("variable $%s declared twice", m[1])
			}
			seen[m[1]] = true
			q.variables = append(q.variables, m[1])
			rest = strings.TrimSpace(rest[len(m[0]):])
			continue
		}
		return nil, fmt.Errorf("unsupported declaration near %q", head(rest))
	}

	if rest == "" {
		return nil, errors.New("query body is empty")
	}
	q.body = rest
	return q, nil
}

// ExternalVariables returns the declared external variable names in declaration order.
func (q *query) ExternalVariables() []string {
	out := make([]string, len(q.variables))
	copy(out, q.variables)
	return out
}

// BaseLocation returns the location the query was compiled relative to.
func (q *query) BaseLocation() string {
	return q.baseLocation
}

// Execute evaluates the query and serializes the result.
func (q *query) Execute(ctx context.Context, doc *document.Document, bindings map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc == nil || doc.Root == nil {
		return "", ErrNoDocument
	}

	if q.expr != nil {
		q.mu.Lock()
		defer q.mu.Unlock()
		return run(q.expr, doc)
	}

	values := make(map[string]string, len(q.variables))
	for _, name := range q.variables {
		v, ok := bindings[name]
		if !ok {
			return "", fmt.Errorf("%w: $%s", ErrUnboundVariable, name)
		}
		values[name] = v
	}

	body, err := substitute(q.body, values)
	if err != nil {
		return "", err
	}

	expr, err := compile(body, q.namespaces)
	if err != nil {
		return "", fmt.Errorf("compile bound query: %w", err)
	}
	return run(expr, doc)
}

func run(expr *xpath.Expr, doc *document.Document) (string, error) {
	var out string
	err := guard(func() {
		out = serialize(expr.Evaluate(xmlquery.CreateXPathNavigator(doc.Root)))
	})
	if err != nil {
		return "", fmt.Errorf("execute query: %w", err)
	}
	return out, nil
}

// substitute replaces $name references outside string literals with XPath
// string literals of values. A reference to an undeclared name is an error.
func substitute(body string, values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(body))

	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '"' || c == '\'':
			end := strings.IndexByte(body[i+1:], c)
			if end < 0 {
				return "", errors.New("unterminated string literal")
			}
			b.WriteString(body[i : i+end+2])
			i += end + 2
		case c == '$':
			j := i + 1
			for j < len(body) && isNameChar(body[j], j == i+1) {
				j++
			}
			name := body[i+1 : j]
			if name == "" {
				return "", fmt.Errorf("dangling $ at offset %d", i)
			}
			v, ok := values[name]
			if !ok {
				return "", fmt.Errorf("undeclared variable $%s", name)
			}
			b.WriteString(literal(v))
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

// stripComments removes (: ... :) comments, which may nest, outside string literals.
func stripComments(src string) (string, error) {
	var b strings.Builder
	b.Grow(len(src))

	depth := 0
	for i := 0; i < len(src); {
		switch {
		case depth == 0 && (src[i] == '"' || src[i] == '\''):
			end := strings.IndexByte(src[i+1:], src[i])
			if end < 0 {
				return "", errors.New("unterminated string literal")
			}
			b.WriteString(src[i : i+end+2])
			i += end + 2
		case strings.HasPrefix(src[i:], "(:"):
			depth++
			i += 2
		case depth > 0 && strings.HasPrefix(src[i:], ":)"):
			depth--
			i += 2
			if depth == 0 {
				b.WriteByte(' ')
			}
		case depth > 0:
			i++
		default:
			b.WriteByte(src[i])
			i++
		}
	}

	if depth > 0 {
		return "", errors.New("unterminated comment")
	}
	return b.String(), nil
}

// literal quotes s as an XPath 1.0 string literal. XPath 1.0 has no escapes,
// so a value holding both quote kinds is assembled with concat().
func literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	args := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			args = append(args, `"'"`)
		}
		args = append(args, "'"+p+"'")
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}

func isNameChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case first:
		return false
	default:
		return c >= '0' && c <= '9' || c == '-' || c == '.'
	}
}

func unquote(s string) string {
	return s[1 : len(s)-1]
}

func head(s string) string {
	const n = 40
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
