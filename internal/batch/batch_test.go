package batch_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/batch"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// titleAnnotator annotates with the document's base URL, or fails for URLs containing "fail".
type titleAnnotator struct {
	calls atomic.Int32
}

func (a *titleAnnotator) Annotate(_ context.Context, url string, doc *document.Document) (string, bool, error) {
	a.calls.Add(1)
	if strings.Contains(url, "fail") {
		return "", false, errors.New("query failed")
	}
	if strings.Contains(url, "empty") {
		return "", false, nil
	}
	return doc.Base(url), true, nil
}

func writeDocs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<html/>"), 0o600))
	}
}

func TestRun_WritesAnnotationsInManifestOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDocs(t, dir, "a.xml", "b.xml", "c.xml", "d.xml")

	manifest := strings.Join([]string{
		`{"url":"http://a.example/1","path":"a.xml"}`,
		``,
		`# comment`,
		`{"url":"http://a.example/empty","path":"b.xml"}`,
		`{"url":"http://a.example/fail","path":"c.xml"}`,
		`{"url":"http://a.example/2","base_url":"http://cdn.a.example/","path":"d.xml"}`,
		`{"url":"http://a.example/3","path":"missing.xml"}`,
		`not json`,
		`{"url":"http://a.example/4"}`,
	}, "\n")

	var out bytes.Buffer
	ann := &titleAnnotator{}
	stats, err := batch.NewRunner(ann, 2, nil).Run(context.Background(), strings.NewReader(manifest), dir, &out)
	require.NoError(t, err)

	assert.Equal(t, "http://a.example/1\thttp://a.example/1\nhttp://a.example/2\thttp://cdn.a.example/\n", out.String())
	assert.Equal(t, int64(7), stats.Documents)
	assert.Equal(t, int64(2), stats.Annotated)
	assert.Equal(t, int64(4), stats.Failed)
	assert.Equal(t, int32(4), ann.calls.Load())
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDocs(t, dir, "a.xml")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := batch.NewRunner(&titleAnnotator{}, 0, nil).Run(ctx,
		strings.NewReader(`{"url":"http://a.example/1","path":"a.xml"}`), dir, &out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestRun_AbsolutePaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDocs(t, dir, "a.xml")
	abs := filepath.Join(dir, "a.xml")

	var out bytes.Buffer
	stats, err := batch.NewRunner(&titleAnnotator{}, 1, nil).Run(context.Background(),
		strings.NewReader(`{"url":"http://a.example/1","path":"`+abs+`"}`), t.TempDir(), &out)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Annotated)
}
