package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackends(t *testing.T) map[string]Backend {
	t.Helper()

	fb, err := NewFileBackend(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	sb, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)

	backends := map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   fb,
		"sqlite": sb,
	}

	if addr := os.Getenv("POINTER_MONITOR_TEST_REDIS"); addr != "" {
		rb, err := NewRedisBackend(addr, "go-pointer-monitor-test:"+t.Name()+":")
		require.NoError(t, err)
		backends["redis"] = rb
	}

	t.Cleanup(func() {
		for _, b := range backends {
			b.Close()
		}
	})
	return backends
}

func TestBackendRoundTrip(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := backend.Get("pointer-events-roi")
			assert.True(t, errors.Is(err, ErrNotFound))

			require.NoError(t, backend.Set("pointer-events-roi", []byte(`{"x":1}`)))
			got, err := backend.Get("pointer-events-roi")
			require.NoError(t, err)
			assert.Equal(t, `{"x":1}`, string(got))

			require.NoError(t, backend.Set("pointer-events-roi", []byte(`{"x":2}`)))
			got, err = backend.Get("pointer-events-roi")
			require.NoError(t, err)
			assert.Equal(t, `{"x":2}`, string(got))

			require.NoError(t, backend.Delete("pointer-events-roi"))
			_, err = backend.Get("pointer-events-roi")
			assert.True(t, errors.Is(err, ErrNotFound))

			assert.NoError(t, backend.Delete("pointer-events-roi"), "deleting a missing key is not an error")
		})
	}
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	m := NewMemoryBackend()
	value := []byte("abc")
	require.NoError(t, m.Set("k", value))
	value[0] = 'z'

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, []string{"k"}, m.Keys())
}

func TestFileBackendRejectsPathKeys(t *testing.T) {
	fb, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		err := fb.Set(key, []byte("x"))
		assert.True(t, errors.Is(err, ErrInvalidKey), key)
	}
}

func TestFileBackendPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set("pointer-events-settings", []byte(`{}`)))
	require.NoError(t, first.Set("pointer-events-roi", []byte(`{"x":3}`)))

	second, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, second.Preload())

	memoryCount, fileCount := second.Stats()
	assert.Equal(t, 2, memoryCount)
	assert.Equal(t, 2, fileCount)

	got, err := second.Get("pointer-events-roi")
	require.NoError(t, err)
	assert.Equal(t, `{"x":3}`, string(got))

	require.NoError(t, second.Clear())
	_, fileCount = second.Stats()
	assert.Equal(t, 0, fileCount)
}

func TestFileBackendInvalidateRereadsDisk(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, fb.Set("k", []byte("old")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"), []byte("new"), 0644))
	got, _ := fb.Get("k")
	assert.Equal(t, "old", string(got), "served from memory until invalidated")

	fb.Invalidate("k")
	got, err = fb.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFileBackendReadDoesNotCacheOverConcurrentChange(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBackend(dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "k.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	reads := 0
	fb.afterRead = func(key string) {
		reads++
		if reads == 1 {
			// Another process rewrites the file and the watcher invalidates it.
			require.NoError(t, os.WriteFile(path, []byte("new"), 0644))
			fb.Invalidate(key)
		}
	}

	got, err := fb.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	got, err = fb.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	assert.Equal(t, 2, reads, "the stale read was not cached")

	got, err = fb.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	assert.Equal(t, 2, reads, "the fresh read was cached")
}

func TestFileBackendReadDoesNotOverwriteConcurrentSet(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"), []byte("old"), 0644))

	fb.afterRead = func(key string) {
		fb.afterRead = nil
		require.NoError(t, fb.Set(key, []byte("new")))
	}

	_, err = fb.Get("k")
	require.NoError(t, err)

	got, err := fb.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}
