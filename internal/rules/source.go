package rules

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"
	"gopkg.in/yaml.v3"
)

// Rule source vocabulary.
const (
	rootName = "parse-rules"
	ruleName = "rule"
)

// entry is a decoded definition, or a skipped one with the reason.
type entry struct {
	def     Definition
	skipped string
}

// decodeFunc turns raw rule source bytes into entries. It returns a
// LoadError-ready op name alongside any error.
type decodeFunc func(data []byte) ([]entry, string, error)

func decoderFor(path string) decodeFunc {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML
	default:
		return decodeXML
	}
}

// decodeXML reads <parse-rules><rule domain pattern xquery xpath/>...</parse-rules>.
func decodeXML(data []byte) ([]entry, string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, "parse", err
	}

	var root *xmlquery.Node
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			root = n
			break
		}
	}
	if root == nil {
		return nil, "root", errors.New("document has no root element")
	}
	if root.Data != rootName {
		return nil, "root", fmt.Errorf("root element is <%s>, want <%s>", root.Data, rootName)
	}

	var entries []entry
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		if n.Data != ruleName {
			entries = append(entries, entry{skipped: fmt.Sprintf("unexpected element <%s>", n.Data)})
			continue
		}
		entries = append(entries, entry{def: Definition{
			Domain:  n.SelectAttr("domain"),
			Pattern: n.SelectAttr("pattern"),
			Query:   n.SelectAttr("xquery"),
			Probe:   n.SelectAttr("xpath"),
		}})
	}

	return entries, "", nil
}

// decodeYAML reads a mapping whose parse-rules key holds a sequence of rule mappings.
func decodeYAML(data []byte) ([]entry, string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "parse", err
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, "root", errors.New("rule source is not a mapping")
	}

	var list *yaml.Node
	top := doc.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == rootName {
			list = top.Content[i+1]
			break
		}
	}
	if list == nil {
		return nil, "root", fmt.Errorf("missing %q key", rootName)
	}
	if list.Kind != yaml.SequenceNode {
		return nil, "root", fmt.Errorf("%q must be a sequence", rootName)
	}

	entries := make([]entry, 0, len(list.Content))
	for _, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			entries = append(entries, entry{skipped: fmt.Sprintf("line %d: entry is not a mapping", item.Line)})
			continue
		}
		var def Definition
		if err := item.Decode(&def); err != nil {
			return nil, "definition", fmt.Errorf("line %d: %w", item.Line, err)
		}
		entries = append(entries, entry{def: def})
	}

	return entries, "", nil
}
