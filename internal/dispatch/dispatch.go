// Package dispatch selects at most one rule for a document by domain, path
// pattern and content probe.
package dispatch

import (
	"context"
	"errors"
	"net/url"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/rules"
)

var errNotAbsolute = errors.New("not an absolute hierarchical URL")

// Result is the outcome of a dispatch. A zero Rule means no rule applies,
// which is not an error.
type Result struct {
	Rule *rules.Rule
	// Position is the selected rule's place in its domain's list.
	Position int
	// Domain and PathAndQuery are the URL parts the rules were matched against.
	Domain       string
	PathAndQuery string
	// URL and BaseURL are the values offered to the query at execution time.
	URL     string
	BaseURL string
}

// Matched reports whether a rule was selected.
func (r Result) Matched() bool {
	return r.Rule != nil
}

// Query returns the selected rule's compiled query, or nil when nothing matched.
func (r Result) Query() engine.Query {
	if r.Rule == nil {
		return nil
	}
	return r.Rule.Query()
}

// Dispatcher selects rules from an index. It holds no per-document state.
type Dispatcher struct {
	log logger.Logger
}

// New creates a Dispatcher. A nil logger discards output.
func New(log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{log: log}
}

// Select picks the rule for rawURL and doc from idx.
//
// The domain's rules are filtered to those whose pattern matches the whole
// path and query, then scanned in load order: a rule without a probe is
// selected as soon as it is reached, and a rule with a probe is selected when
// the probe yields a non-empty string. A probe-less rule therefore shadows
// every probed rule listed after it.
func (d *Dispatcher) Select(ctx context.Context, idx *rules.Index, rawURL string, doc *document.Document) (Result, error) {
	domain, pathAndQuery, err := SplitURL(rawURL)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Domain:       domain,
		PathAndQuery: pathAndQuery,
		URL:          rawURL,
		BaseURL:      doc.Base(rawURL),
	}

	candidates := idx.Rules(domain)
	if len(candidates) == 0 {
		d.log.Debug("No rules for domain", logger.String("url", rawURL), logger.String("domain", domain))
		return res, nil
	}

	matched := false
	for pos, rule := range candidates {
		if !rule.Matches(pathAndQuery) {
			continue
		}
		matched = true

		probe := rule.Probe()
		if probe == nil {
			res.Rule, res.Position = rule, pos
			return res, nil
		}

		value, probeErr := probe.Evaluate(ctx, doc)
		if probeErr != nil {
			return Result{}, &ProbeError{
				Domain:   domain,
				Pattern:  rule.Pattern(),
				Position: pos,
				Err:      probeErr,
			}
		}
		if value != "" {
			res.Rule, res.Position = rule, pos
			return res, nil
		}
	}

	if matched {
		d.log.Debug("No probe matched", logger.String("url", rawURL), logger.String("path", pathAndQuery))
	} else {
		d.log.Debug("No pattern matched", logger.String("url", rawURL), logger.String("path", pathAndQuery))
	}
	return res, nil
}

// SplitURL returns the host of rawURL and its path as written in rawURL,
// followed by "?query" when a query string is present. Non-ASCII characters
// and percent escapes are kept exactly as given, so "/ä" stays "/ä".
func SplitURL(rawURL string) (domain, pathAndQuery string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", &URLParseError{URL: rawURL, Err: err}
	}
	if !u.IsAbs() || u.Opaque != "" || u.Host == "" {
		return "", "", &URLParseError{URL: rawURL, Err: errNotAbsolute}
	}

	pathAndQuery = rawPath(u)
	if u.RawQuery != "" || u.ForceQuery {
		pathAndQuery += "?" + u.RawQuery
	}
	return u.Hostname(), pathAndQuery, nil
}

// rawPath recovers the path as it appeared in the input. url.Parse keeps it in
// RawPath only when it differs from the default encoding of Path.
func rawPath(u *url.URL) string {
	if u.RawPath != "" {
		return u.RawPath
	}
	return u.EscapedPath()
}
