// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the canvas over HTTP.
//
// # Description
//
// The JSON API evaluates expressions, classifies point paths, lists
// templates and manages snapshots. A WebSocket endpoint runs one live
// Session per connection: the browser streams fingertip samples, voice
// transcripts and key presses; the server streams back segments, detections,
// text and state. Template playback for a live session runs server-side on
// the 30 Hz frame clock.
//
// The pages of the original site (home, privacy policy, terms, contact) and
// the browser client are embedded.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/aircanvas/services/canvas/observability"
	"github.com/AleutianAI/aircanvas/services/canvas/session"
	"github.com/AleutianAI/aircanvas/services/canvas/storage"
	"github.com/AleutianAI/aircanvas/services/canvas/templates"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":12220"

// Config holds server settings.
type Config struct {
	Addr            string
	StaticDir       string
	ServiceName     string
	ShutdownTimeout time.Duration
	WatchTemplates  bool
	WatchDebounce   time.Duration
	Session         session.Config
}

// Deps are the collaborators the server needs. Only Registry is required.
type Deps struct {
	Registry *templates.Registry

	// Snapshots enables the snapshot routes and "take screenshot". Nil
	// disables both.
	Snapshots *storage.SnapshotStore

	// Metrics defaults to a private registry when nil.
	Metrics *observability.Metrics

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Server is the canvas HTTP server.
type Server struct {
	cfg       Config
	engine    *gin.Engine
	registry  *templates.Registry
	snapshots *storage.SnapshotStore
	metrics   *observability.Metrics
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

var _ session.Observer = (*observability.Metrics)(nil)

// New builds the server and its routes.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Registry == nil {
		return nil, errors.New("template registry is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "aircanvas"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:       cfg,
		registry:  deps.Registry,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		gatherer:  deps.Gatherer,
		logger:    deps.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = observability.NewMetrics(reg)
		if s.gatherer == nil {
			s.gatherer = reg
		}
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	if err := SetupRoutes(router, s); err != nil {
		return nil, err
	}
	s.engine = router
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx ends, then shuts down gracefully.
//
// # Description
//
// The HTTP listener and, when enabled, the template file watcher run in one
// errgroup. Either failing stops the other. Open WebSocket sessions are
// closed when shutdown begins.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		s.logger.Info("canvas server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("canvas server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if s.cfg.WatchTemplates && s.registry.Path() != "" {
		g.Go(func() error {
			return s.registry.Watch(gctx, s.cfg.WatchDebounce)
		})
	}

	return g.Wait()
}
