package xpathengine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine/xpathengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<html xmlns="http://www.w3.org/1999/xhtml">` +
	`<head><title>Kenmore Microwave 17in</title></head>` +
	`<body><div class="product"><span class="price">129.99</span></div>` +
	`<ul><li>a</li><li>b</li></ul></body></html>`

func parse(t *testing.T, body string) *document.Document {
	t.Helper()

	doc, err := document.ParseString(body, "")
	require.NoError(t, err)
	return doc
}

func TestProbe_XHTMLPrefix(t *testing.T) {
	t.Parallel()

	e := xpathengine.New()
	doc := parse(t, productPage)

	tests := []struct {
		name string
		expr string
		want string
	}{
		{name: "prefixed node set", expr: "//h:div[@class='product']/h:span", want: "129.99"},
		{name: "first node wins", expr: "//h:li", want: "a"},
		{name: "attribute value", expr: "//h:div/@class", want: "product"},
		{name: "no match is empty", expr: "//h:div[@class='listing']", want: ""},
		{name: "boolean", expr: "boolean(//h:ul)", want: "true"},
		{name: "number", expr: "count(//h:li)", want: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := e.CompileProbe(tt.expr, engine.ProbeNamespaces())
			require.NoError(t, err)

			got, err := p.Evaluate(context.Background(), doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProbe_InvalidExpression(t *testing.T) {
	t.Parallel()

	_, err := xpathengine.New().CompileProbe("//h:div[", engine.ProbeNamespaces())
	require.Error(t, err)
}

func TestProbe_NoDocument(t *testing.T) {
	t.Parallel()

	p, err := xpathengine.New().CompileProbe("//h:div", engine.ProbeNamespaces())
	require.NoError(t, err)

	_, err = p.Evaluate(context.Background(), nil)
	require.ErrorIs(t, err, xpathengine.ErrNoDocument)
}

func TestProbe_CancelledContext(t *testing.T) {
	t.Parallel()

	p, err := xpathengine.New().CompileProbe("//h:div", engine.ProbeNamespaces())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Evaluate(ctx, parse(t, productPage))
	require.ErrorIs(t, err, context.Canceled)
}

func TestQuery_WithoutVariables(t *testing.T) {
	t.Parallel()

	q, err := xpathengine.New().CompileQuery("string(//h:title)", "/etc/rules")
	require.NoError(t, err)
	assert.Empty(t, q.ExternalVariables())

	got, err := q.Execute(context.Background(), parse(t, productPage), nil)
	require.NoError(t, err)
	assert.Equal(t, "Kenmore Microwave 17in", got)
}

func TestQuery_PrologAndVariables(t *testing.T) {
	t.Parallel()

	source := `xquery version "1.0";
(: product summary :)
declare namespace x = "http://www.w3.org/1999/xhtml";
declare variable $url external;
declare variable $base_url as xs:string external;
declare variable $unused external;
concat(//x:title, '|', $url, '|', $base_url)`

	q, err := xpathengine.New().CompileQuery(source, "/etc/rules")
	require.NoError(t, err)
	assert.Equal(t, []string{"url", "base_url", "unused"}, q.ExternalVariables())

	doc := parse(t, productPage)

	_, err = q.Execute(context.Background(), doc, map[string]string{"url": "http://a/", "base_url": "http://b/"})
	require.ErrorIs(t, err, xpathengine.ErrUnboundVariable)

	got, err := q.Execute(context.Background(), doc, map[string]string{
		"url":      "http://shop.example/item/42",
		"base_url": "http://cdn.example/",
		"unused":   "",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kenmore Microwave 17in|http://shop.example/item/42|http://cdn.example/", got)
}

func TestQuery_BoundValuesAreQuoted(t *testing.T) {
	t.Parallel()

	q, err := xpathengine.New().CompileQuery("declare variable $url external;\nconcat('[', $url, ']')", "")
	require.NoError(t, err)

	doc := parse(t, productPage)
	for _, value := range []string{"plain", "it's", `say "hi"`, `it's "both"`, "$url"} {
		got, execErr := q.Execute(context.Background(), doc, map[string]string{"url": value})
		require.NoError(t, execErr)
		assert.Equal(t, "["+value+"]", got)
	}
}

func TestQuery_NodeSetSerialization(t *testing.T) {
	t.Parallel()

	e := xpathengine.New()
	doc := parse(t, productPage)

	text, err := e.CompileQuery("//h:li/text()", "")
	require.NoError(t, err)
	got, err := text.Execute(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "a b", got)

	elements, err := e.CompileQuery("//h:li", "")
	require.NoError(t, err)
	got, err = elements.Execute(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Contains(t, got, "a</li>")
	assert.Contains(t, got, "b</li>")

	empty, err := e.CompileQuery("//h:table", "")
	require.NoError(t, err)
	got, err = empty.Execute(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuery_CompileErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty body":             "declare variable $url external;",
		"undeclared variable":    "concat($url, 'x')",
		"unsupported prolog":     "declare function local:f() { 1 };\n1",
		"duplicate variable":     "declare variable $a external;\ndeclare variable $a external;\n$a",
		"unterminated comment":   "(: open\n//h:title",
		"unterminated literal":   "concat('a, 1)",
		"invalid xpath":          "//h:title[",
		"dangling variable sign": "declare variable $a external;\nconcat($, $a)",
	}

	for name, source := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := xpathengine.New().CompileQuery(source, "/etc/rules")
			require.Error(t, err)
		})
	}
}

func TestQuery_ConcurrentExecution(t *testing.T) {
	t.Parallel()

	e := xpathengine.New()
	plain, err := e.CompileQuery("string(//h:span)", "")
	require.NoError(t, err)
	bound, err := e.CompileQuery("declare variable $url external;\nconcat(//h:span, $url)", "")
	require.NoError(t, err)

	doc := parse(t, productPage)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			got, execErr := plain.Execute(context.Background(), doc, nil)
			assert.NoError(t, execErr)
			assert.Equal(t, "129.99", got)

			url := string(rune('a' + n))
			got, execErr = bound.Execute(context.Background(), doc, map[string]string{"url": url})
			assert.NoError(t, execErr)
			assert.Equal(t, "129.99"+url, got)
		}(i)
	}
	wg.Wait()
}

func TestConstructor(t *testing.T) {
	t.Parallel()

	engines, err := xpathengine.Constructor()
	require.NoError(t, err)
	assert.NotNil(t, engines.Queries)
	assert.NotNil(t, engines.Probes)
}
