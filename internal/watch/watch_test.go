package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isTS(path string) bool { return strings.HasSuffix(path, ".ts") }

func start(t *testing.T, dir string, opts Options) <-chan []string {
	t.Helper()
	w, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(paths []string) { batches <- paths })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	// даём watcher'у подняться
	time.Sleep(50 * time.Millisecond)
	return batches
}

func next(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(3 * time.Second):
		t.Fatal("no batch delivered")
		return nil
	}
}

func TestWatchDeliversChangedFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(file, []byte("const a = 1;"), 0o644))

	batches := start(t, dir, Options{Debounce: 30 * time.Millisecond, Match: isTS})
	require.NoError(t, os.WriteFile(file, []byte("const a = 2;"), 0o644))

	assert.Equal(t, []string{file}, next(t, batches))
}

func TestWatchCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ts")
	b := filepath.Join(dir, "b.ts")

	batches := start(t, dir, Options{Debounce: 200 * time.Millisecond, Match: isTS})
	for i := range 5 {
		require.NoError(t, os.WriteFile(a, []byte{byte('0' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(b, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	assert.Equal(t, []string{a, b}, next(t, batches))
	select {
	case extra := <-batches:
		t.Fatalf("unexpected second batch %v", extra)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatchNewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	batches := start(t, dir, Options{Debounce: 30 * time.Millisecond, Match: isTS})

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	file := filepath.Join(sub, "c.ts")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.Contains(t, next(t, batches), file)
}

func TestWatchSkipDir(t *testing.T) {
	dir := t.TempDir()
	nm := filepath.Join(dir, "node_modules")
	require.NoError(t, os.Mkdir(nm, 0o755))

	batches := start(t, dir, Options{
		Debounce: 30 * time.Millisecond,
		Match:    isTS,
		SkipDir:  func(p string) bool { return filepath.Base(p) == "node_modules" },
	})
	require.NoError(t, os.WriteFile(filepath.Join(nm, "dep.ts"), []byte("x"), 0o644))
	ok := filepath.Join(dir, "ok.ts")
	require.NoError(t, os.WriteFile(ok, []byte("x"), 0o644))

	assert.Equal(t, []string{ok}, next(t, batches))
}

func TestCloseTwice(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
