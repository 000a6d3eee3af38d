// Package document holds the parsed document tree that rules are evaluated against.
package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Document is a namespace-aware DOM of a fetched page plus the page's resolved
// base location. HTML is expected to have been converted to XHTML upstream.
type Document struct {
	Root *xmlquery.Node
	// BaseURL is the resolved base location of the page, empty when unknown.
	BaseURL string
}

// New wraps an already built tree.
func New(root *xmlquery.Node, baseURL string) *Document {
	return &Document{Root: root, BaseURL: baseURL}
}

// Parse reads an XML or XHTML document.
func Parse(r io.Reader, baseURL string) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return New(root, baseURL), nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s, baseURL string) (*Document, error) {
	return Parse(strings.NewReader(s), baseURL)
}

// ParseFile opens and parses the document at path.
func ParseFile(path, baseURL string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f, baseURL)
}

// Base returns BaseURL when known, otherwise fallback.
func (d *Document) Base(fallback string) string {
	if d == nil || d.BaseURL == "" {
		return fallback
	}
	return d.BaseURL
}
