package rules_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "parse-rules.xml", "<parse-rules/>")

	var reloads atomic.Int32
	w, err := rules.NewWatcher(path, 100*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for range 5 {
		writeFile(t, dir, "parse-rules.xml", "<parse-rules></parse-rules>")
	}

	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)

	// A burst of writes collapses into a single reload.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_IgnoresScratchFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "parse-rules.xml", "<parse-rules/>")

	var reloads atomic.Int32
	w, err := rules.NewWatcher(path, 50*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	writeFile(t, dir, ".parse-rules.xml.swp", "x")
	writeFile(t, dir, "parse-rules.xml~", "x")

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := rules.NewWatcher("/nonexistent/dir/parse-rules.xml", 0, func() error { return nil }, nil)
	require.Error(t, err)
}

func TestWatcher_TrackedQueryDirectoryTriggersReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeQueries(t, dir)
	path := writeFile(t, dir, "parse-rules.xml", rulesXML)

	idx, err := newXPathLoader().Load(path)
	require.NoError(t, err)

	var reloads atomic.Int32
	w, err := rules.NewWatcher(path, 50*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)
	w.Track(idx)
	// Tracking the same index again adds nothing.
	w.Track(idx)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	writeFile(t, dir, "queries/product.xq", "string(//h:h1)")

	require.Eventually(t, func() bool { return reloads.Load() == 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_UntrackedQueryDirectoryIsIgnored(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeQueries(t, dir)
	path := writeFile(t, dir, "parse-rules.xml", rulesXML)

	var reloads atomic.Int32
	w, err := rules.NewWatcher(path, 50*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	writeFile(t, dir, "queries/product.xq", "string(//h:h1)")

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}
