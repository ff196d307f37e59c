// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Builtin(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)
	assert.Same(t, Builtin(), r.Catalog())
	assert.Equal(t, "", r.Path())
	assert.NoError(t, r.Reload())
}

func TestNewRegistry_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates: [\n"), 0o644))

	_, err := NewRegistry(path)
	assert.Error(t, err)
}

func TestRegistry_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(zigzagYAML), 0o644))

	var hooked int
	r, err := NewRegistry(path, WithReloadHook(func(*Catalog) { hooked++ }))
	require.NoError(t, err)
	first := r.Catalog()
	_, ok := first.Lookup("zigzag")
	require.True(t, ok)

	t.Run("keeps previous catalog on error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("templates: [\n"), 0o644))
		assert.Error(t, r.Reload())
		assert.Same(t, first, r.Catalog())
		assert.Equal(t, 0, hooked)
	})

	t.Run("swaps catalog on success", func(t *testing.T) {
		data := "templates:\n  - name: wave\n    points: [[0, 0], [10, 10]]\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
		require.NoError(t, r.Reload())

		c := r.Catalog()
		assert.NotSame(t, first, c)
		_, ok := c.Lookup("wave")
		assert.True(t, ok)
		_, ok = c.Lookup("zigzag")
		assert.False(t, ok)
		assert.Equal(t, 1, hooked)
	})
}

func TestRegistry_Watch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watcher test in short mode")
	}

	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(zigzagYAML), 0o644))

	reloaded := make(chan *Catalog, 4)
	r, err := NewRegistry(path, WithReloadHook(func(c *Catalog) { reloaded <- c }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, 20*time.Millisecond) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	data := "templates:\n  - name: wave\n    points: [[0, 0], [10, 10]]\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	select {
	case c := <-reloaded:
		_, ok := c.Lookup("wave")
		assert.True(t, ok)
		assert.Same(t, c, r.Catalog())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestFileWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	w, err := NewFileWatcher(path, 0, nil, func() {})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsWatching())

	w.Stop()
	w.Stop()
	assert.False(t, w.IsWatching())
}
