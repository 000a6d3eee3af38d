package annotator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/annotator"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/dispatch"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/engine/xpathengine"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/metrics"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<html xmlns="http://www.w3.org/1999/xhtml">
  <head><title>Blue Kettle</title></head>
  <body><div class="product"><h1>Blue Kettle</h1></div></body>
</html>`

const listingPage = `<html xmlns="http://www.w3.org/1999/xhtml">
  <head><title>Kettles</title></head>
  <body><ul class="listing"><li>Blue Kettle</li></ul></body>
</html>`

func loadIndex(t *testing.T, rulesXML string, queries map[string]string) *rules.Index {
	t.Helper()

	return loadPath(t, writeRules(t, rulesXML, queries))
}

func writeRules(t *testing.T, rulesXML string, queries map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, src := range queries {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600))
	}
	path := filepath.Join(dir, "parse-rules.xml")
	require.NoError(t, os.WriteFile(path, []byte(rulesXML), 0o600))
	return path
}

func loadPath(t *testing.T, path string) *rules.Index {
	t.Helper()

	e := xpathengine.New()
	idx, err := rules.NewLoader(e, e, nil).Load(path)
	require.NoError(t, err)
	return idx
}

func parse(t *testing.T, src, base string) *document.Document {
	t.Helper()

	doc, err := document.ParseString(src, base)
	require.NoError(t, err)
	return doc
}

const shopRules = `<parse-rules>
  <rule domain="shop.example" pattern="/item/[0-9]+" xquery="product.xq" xpath="//h:div[@class='product']"/>
  <rule domain="shop.example" pattern="/item/[0-9]+" xquery="fallback.xq"/>
  <rule domain="shop.example" pattern="/empty" xquery="empty.xq"/>
  <rule domain="shop.example" pattern="/where" xquery="where.xq"/>
</parse-rules>`

var shopQueries = map[string]string{
	"product.xq":  "'PRODUCT'",
	"fallback.xq": "'FALLBACK'",
	"empty.xq":    "//h:nothing",
	"where.xq": `declare variable $url external;
declare variable $base_url external;
concat($url, ' ', $base_url)`,
}

func shopIndex(t *testing.T) *rules.Index {
	t.Helper()

	return loadIndex(t, shopRules, shopQueries)
}

func TestAnnotate_Scenarios(t *testing.T) {
	t.Parallel()

	a := annotator.New(annotator.Config{Rules: shopIndex(t)})
	ctx := context.Background()

	got, ok, err := a.Annotate(ctx, "http://shop.example/item/42", parse(t, productPage, ""))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "PRODUCT", got)

	got, ok, err = a.Annotate(ctx, "http://shop.example/item/42", parse(t, listingPage, ""))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "FALLBACK", got)

	_, ok, err = a.Annotate(ctx, "http://other.example/x", parse(t, productPage, ""))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = a.Annotate(ctx, "not a url", parse(t, productPage, ""))
	var urlErr *dispatch.URLParseError
	require.ErrorAs(t, err, &urlErr)

	// A failed document leaves the next one unaffected.
	got, ok, err = a.Annotate(ctx, "http://shop.example/item/7", parse(t, productPage, ""))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "PRODUCT", got)

	got, ok, err = a.Annotate(ctx, "http://shop.example/where", parse(t, listingPage, "http://cdn.shop.example/"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://shop.example/where http://cdn.shop.example/", got)
}

func TestFilter_EmptyResultLeavesNoEntry(t *testing.T) {
	t.Parallel()

	a := annotator.New(annotator.Config{Rules: shopIndex(t)})
	meta := annotator.Metadata{"title": {"Kettles"}}

	require.NoError(t, a.Filter(context.Background(), "http://shop.example/empty", parse(t, listingPage, ""), meta))

	_, present := meta[annotator.FieldName]
	assert.False(t, present)
	assert.Equal(t, []string{"Kettles"}, meta.Values("title"))
}

func TestFilter_AddsAnnotation(t *testing.T) {
	t.Parallel()

	a := annotator.New(annotator.Config{Rules: shopIndex(t)})
	meta := annotator.Metadata{"title": {"Blue Kettle"}}

	require.NoError(t, a.Filter(context.Background(), "http://shop.example/item/42", parse(t, productPage, ""), meta))
	assert.Equal(t, "PRODUCT", meta.Get(annotator.FieldName))
	assert.Equal(t, "Blue Kettle", meta.Get("title"))
}

func TestFilter_ErrorLeavesMetadataUntouched(t *testing.T) {
	t.Parallel()

	a := annotator.New(annotator.Config{Rules: shopIndex(t)})
	meta := annotator.Metadata{}

	require.Error(t, a.Filter(context.Background(), "/relative", parse(t, productPage, ""), meta))
	assert.Empty(t, meta)
}

func TestAnnotate_EmptyProbeElementFallsThrough(t *testing.T) {
	t.Parallel()

	// The probe's string value decides, so a matching but empty element does not select the rule.
	a := annotator.New(annotator.Config{Rules: shopIndex(t)})
	empty := `<html xmlns="http://www.w3.org/1999/xhtml"><body><div class="product"/></body></html>`

	got, ok, err := a.Annotate(context.Background(), "http://shop.example/item/42", parse(t, empty, ""))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "FALLBACK", got)
}

func TestAnnotate_NoIndex(t *testing.T) {
	t.Parallel()

	a := annotator.New(annotator.Config{Rules: rules.NewStore(nil)})

	_, _, err := a.Annotate(context.Background(), "http://shop.example/item/42", parse(t, productPage, ""))
	require.ErrorIs(t, err, rules.ErrNoIndex)
}

func TestAnnotate_Deterministic(t *testing.T) {
	t.Parallel()

	path := writeRules(t, shopRules, shopQueries)
	first := annotator.New(annotator.Config{Rules: loadPath(t, path)})
	second := annotator.New(annotator.Config{Rules: loadPath(t, path)})

	for _, tc := range []struct{ url, page string }{
		{"http://shop.example/item/42", productPage},
		{"http://shop.example/item/42", listingPage},
		{"http://shop.example/empty", listingPage},
		{"http://shop.example/nothing", listingPage},
	} {
		r1, err := first.Select(context.Background(), tc.url, parse(t, tc.page, ""))
		require.NoError(t, err)
		r2, err := second.Select(context.Background(), tc.url, parse(t, tc.page, ""))
		require.NoError(t, err)

		assert.Equal(t, r1.Matched(), r2.Matched(), tc.url)
		assert.Equal(t, r1.Position, r2.Position, tc.url)
		if r1.Matched() {
			assert.Equal(t, r1.Rule.Pattern(), r2.Rule.Pattern(), tc.url)
			assert.Equal(t, r1.Rule.QueryPath(), r2.Rule.QueryPath(), tc.url)
		}
	}
}

func TestAnnotate_RecordsMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	a := annotator.New(annotator.Config{Rules: shopIndex(t), Metrics: m, QueryTimeout: time.Second})

	_, _, _ = a.Annotate(context.Background(), "http://shop.example/item/42", parse(t, productPage, ""))
	_, _, _ = a.Annotate(context.Background(), "http://other.example/", parse(t, productPage, ""))
	_, _, _ = a.Annotate(context.Background(), "nope", parse(t, productPage, ""))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Dispatches.WithLabelValues(metrics.OutcomeMatched)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Dispatches.WithLabelValues(metrics.OutcomeNoMatch)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Dispatches.WithLabelValues(metrics.OutcomeBadURL)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Annotations), 0)
}
