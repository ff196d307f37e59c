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
	"log/slog"
	"sync/atomic"
	"time"
)

// Registry holds the current Catalog and swaps it when the catalog file changes.
//
// # Description
//
// Each Catalog stays immutable; a reload builds a new one and publishes it
// atomically. Playback sessions keep the *Template they started with, so a
// reload never changes a drawing in progress.
//
// With an empty path the registry serves the built-in catalog and Watch
// simply waits for ctx.
type Registry struct {
	path     string
	logger   *slog.Logger
	current  atomic.Pointer[Catalog]
	onReload func(*Catalog)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// WithReloadHook registers fn to run after each successful reload.
func WithReloadHook(fn func(*Catalog)) RegistryOption {
	return func(r *Registry) { r.onReload = fn }
}

// NewRegistry loads the catalog at path merged over the built-ins.
func NewRegistry(path string, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{path: path}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if path == "" {
		r.current.Store(Builtin())
		return r, nil
	}
	c, err := LoadFile(path, Builtin())
	if err != nil {
		return nil, err
	}
	r.current.Store(c)
	return r, nil
}

// Catalog returns the current catalog.
func (r *Registry) Catalog() *Catalog {
	return r.current.Load()
}

// Path returns the watched file, or "" for the built-in catalog.
func (r *Registry) Path() string {
	return r.path
}

// Reload re-reads the catalog file. On error the current catalog is kept.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	c, err := LoadFile(r.path, Builtin())
	if err != nil {
		return err
	}
	r.current.Store(c)
	r.logger.Info("template catalog reloaded", "path", r.path, "templates", c.Len())
	if r.onReload != nil {
		r.onReload(c)
	}
	return nil
}

// Watch reloads the catalog whenever its file changes, until ctx ends.
func (r *Registry) Watch(ctx context.Context, debounce time.Duration) error {
	if r.path == "" {
		<-ctx.Done()
		return nil
	}

	w, err := NewFileWatcher(r.path, debounce, r.logger, func() {
		if err := r.Reload(); err != nil {
			r.logger.Warn("template catalog reload failed, keeping previous", "path", r.path, "error", err)
		}
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	r.logger.Info("watching template catalog", "path", r.path)

	<-ctx.Done()
	w.Stop()
	return nil
}

// Lookup finds name in the current catalog.
func (r *Registry) Lookup(name string) (*Template, bool) {
	return r.Catalog().Lookup(name)
}
