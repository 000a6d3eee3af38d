// Package rules loads per-domain parse rules and holds them in an immutable index.
package rules

import (
	"fmt"
	"regexp"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine"
)

// Definition is one rule entry as written in a rule source, before compilation.
type Definition struct {
	Domain  string `yaml:"domain"`
	Pattern string `yaml:"pattern"`
	// Query references the query source, relative to the rule source's directory.
	Query string `yaml:"xquery"`
	// Probe is an optional inline probe expression.
	Probe string `yaml:"xpath"`
}

// Rule is a compiled rule. It is never modified after construction.
type Rule struct {
	def     Definition
	pattern *regexp.Regexp
	probe   engine.Probe
	query   engine.Query
	// queryPath is the resolved location of the query source.
	queryPath string
}

// NewRule compiles def's pattern with full-match semantics and binds the
// already compiled probe (nil for none) and query.
func NewRule(def Definition, probe engine.Probe, query engine.Query, queryPath string) (*Rule, error) {
	re, err := compilePattern(def.Pattern)
	if err != nil {
		return nil, err
	}
	if query == nil {
		return nil, fmt.Errorf("rule for %s %q has no query", def.Domain, def.Pattern)
	}

	return &Rule{
		def:       def,
		pattern:   re,
		probe:     probe,
		query:     query,
		queryPath: queryPath,
	}, nil
}

// compilePattern anchors pattern so it must match the whole input.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Domain returns the exact host the rule applies to.
func (r *Rule) Domain() string { return r.def.Domain }

// Pattern returns the pattern as written.
func (r *Rule) Pattern() string { return r.def.Pattern }

// ProbeSource returns the probe expression, empty when the rule has none.
func (r *Rule) ProbeSource() string { return r.def.Probe }

// QueryPath returns the resolved location of the query source.
func (r *Rule) QueryPath() string { return r.queryPath }

// Matches reports whether pathAndQuery matches the pattern in full.
func (r *Rule) Matches(pathAndQuery string) bool {
	return r.pattern.MatchString(pathAndQuery)
}

// Probe returns the compiled probe, or nil for an unconditional rule.
func (r *Rule) Probe() engine.Probe { return r.probe }

// Query returns the compiled query.
func (r *Rule) Query() engine.Query { return r.query }
