package dispatch

import "fmt"

// URLParseError reports a document URL that is not a well-formed absolute URL.
type URLParseError struct {
	URL string
	Err error
}

func (e *URLParseError) Error() string {
	return fmt.Sprintf("parse url %q: %v", e.URL, e.Err)
}

func (e *URLParseError) Unwrap() error {
	return e.Err
}

// ProbeError reports a probe that failed while disambiguating rules.
type ProbeError struct {
	Domain  string
	Pattern string
	// Position is the rule's place in its domain's list.
	Position int
	Err      error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("evaluate probe for %s %q (rule %d): %v", e.Domain, e.Pattern, e.Position, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
