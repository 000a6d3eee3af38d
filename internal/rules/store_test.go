package rules_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PublishAndClose(t *testing.T) {
	t.Parallel()

	store := rules.NewStore(nil)
	assert.Nil(t, store.Current())

	q := &closingQuery{}
	r, err := rules.NewRule(rules.Definition{Domain: "a", Pattern: "/", Query: "q"}, nil, q, "")
	require.NoError(t, err)

	first := rules.NewIndex(r)
	assert.Nil(t, store.Publish(first))
	assert.Same(t, first, store.Current())

	second := rules.NewIndex()
	assert.Same(t, first, store.Publish(second))
	assert.False(t, q.closed, "replaced index stays usable for in-flight readers")

	require.NoError(t, store.Close())
	assert.Nil(t, store.Current())
	require.NoError(t, store.Close())
}

func TestIndex_IsItsOwnProvider(t *testing.T) {
	t.Parallel()

	idx := rules.NewIndex()
	var p rules.Provider = idx
	assert.Same(t, idx, p.Current())
}

func TestReloader_KeepsPreviousIndexOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeQueries(t, dir)
	path := writeFile(t, dir, "parse-rules.xml", rulesXML)

	loader := newXPathLoader()
	idx, err := loader.Load(path)
	require.NoError(t, err)

	store := rules.NewStore(idx)
	reloader := rules.NewReloader(loader, path, store, nil)

	var attempts []error
	reloader.OnReload = func(_ *rules.Index, _ time.Duration, err error) {
		attempts = append(attempts, err)
	}

	writeFile(t, dir, "parse-rules.xml", `<parse-rules><rule domain="x" pattern="(" xquery="queries/fallback.xq"/></parse-rules>`)
	err = reloader.Reload()

	var loadErr *rules.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Same(t, idx, store.Current())

	writeFile(t, dir, "parse-rules.xml", `<parse-rules><rule domain="x" pattern="/.*" xquery="queries/fallback.xq"/></parse-rules>`)
	require.NoError(t, reloader.Reload())

	current := store.Current()
	assert.NotSame(t, idx, current)
	assert.Equal(t, []string{"x"}, current.Domains())
	assert.Equal(t, filepath.Join(dir, "queries", "fallback.xq"), current.Rules("x")[0].QueryPath())

	require.Len(t, attempts, 2)
	require.Error(t, attempts[0])
	require.NoError(t, attempts[1])
}
