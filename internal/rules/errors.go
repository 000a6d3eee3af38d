package rules

import "fmt"

// LoadError reports a rule source that could not be turned into an index.
// Any LoadError means no index was produced.
type LoadError struct {
	Path string
	// Op is the failed step: open, parse, root, definition, pattern, probe or query.
	Op string
	// Entry is the 1-based rule entry the failure belongs to, 0 for the file itself.
	Entry int
	Err   error
}

func (e *LoadError) Error() string {
	if e.Entry > 0 {
		return fmt.Sprintf("load rules %s: rule %d: %s: %v", e.Path, e.Entry, e.Op, e.Err)
	}
	return fmt.Sprintf("load rules %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
