package rules

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
)

// Loader compiles a rule source into an Index using the injected engines.
type Loader struct {
	queries engine.QueryCompiler
	probes  engine.ProbeCompiler
	log     logger.Logger
}

// NewLoader creates a Loader. A nil logger discards output.
func NewLoader(queries engine.QueryCompiler, probes engine.ProbeCompiler, log logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{queries: queries, probes: probes, log: log}
}

// Load reads the rule source at path and returns a complete index. Any failure
// yields a *LoadError and no index; handles compiled before the failure are released.
func (l *Loader) Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "open", Err: err}
	}

	entries, op, err := decoderFor(path)(data)
	if err != nil {
		return nil, &LoadError{Path: path, Op: op, Err: err}
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, &LoadError{Path: path, Op: "open", Err: err}
	}

	idx := newIndex()
	n := 0
	for _, e := range entries {
		if e.skipped != "" {
			l.log.Warn("Skipping rule entry",
				logger.String("rules_file", path),
				logger.String("reason", e.skipped),
			)
			continue
		}
		n++

		rule, ruleErr := l.compile(e.def, baseDir)
		if ruleErr != nil {
			_ = idx.Close()
			ruleErr.Path = path
			ruleErr.Entry = n
			return nil, ruleErr
		}
		idx.add(rule)

		l.log.Debug("Parse rule",
			logger.String("domain", e.def.Domain),
			logger.String("pattern", e.def.Pattern),
			logger.String("xquery", e.def.Query),
			logger.Bool("probe", rule.Probe() != nil),
		)
	}

	l.log.Info("Parse rules loaded",
		logger.String("rules_file", path),
		logger.Int("rules", idx.Len()),
		logger.Int("domains", len(idx.domains)),
	)

	return idx, nil
}

func (l *Loader) compile(def Definition, baseDir string) (*Rule, *LoadError) {
	if missing := missingFields(def); len(missing) > 0 {
		return nil, &LoadError{Op: "definition", Err: fmt.Errorf("missing %s", strings.Join(missing, ", "))}
	}

	if _, err := compilePattern(def.Pattern); err != nil {
		return nil, &LoadError{Op: "pattern", Err: err}
	}

	var probe engine.Probe
	if strings.TrimSpace(def.Probe) != "" {
		p, err := l.probes.CompileProbe(def.Probe, engine.ProbeNamespaces())
		if err != nil {
			return nil, &LoadError{Op: "probe", Err: err}
		}
		probe = p
	}

	queryPath := def.Query
	if !filepath.IsAbs(queryPath) {
		queryPath = filepath.Join(baseDir, queryPath)
	}

	source, err := os.ReadFile(queryPath)
	if err != nil {
		release(probe)
		return nil, &LoadError{Op: "query", Err: err}
	}

	query, err := l.queries.CompileQuery(string(source), baseDir)
	if err != nil {
		release(probe)
		return nil, &LoadError{Op: "query", Err: err}
	}

	rule, err := NewRule(def, probe, query, queryPath)
	if err != nil {
		release(probe)
		release(query)
		return nil, &LoadError{Op: "definition", Err: err}
	}
	return rule, nil
}

func missingFields(def Definition) []string {
	var missing []string
	if def.Domain == "" {
		missing = append(missing, "domain")
	}
	if def.Pattern == "" {
		missing = append(missing, "pattern")
	}
	if def.Query == "" {
		missing = append(missing, "xquery")
	}
	return missing
}

// release closes a handle compiled for a rule that was never indexed.
func release(handle any) {
	if c, ok := handle.(io.Closer); ok {
		_ = c.Close()
	}
}
