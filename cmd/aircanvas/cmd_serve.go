// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/aircanvas/cmd/aircanvas/config"
	"github.com/AleutianAI/aircanvas/services/canvas/observability"
	"github.com/AleutianAI/aircanvas/services/canvas/server"
	"github.com/AleutianAI/aircanvas/services/canvas/storage"
	"github.com/AleutianAI/aircanvas/services/canvas/templates"
)

// errSnapshotsDisabled is returned by snapshot commands when storage.enabled
// is false.
var errSnapshotsDisabled = errors.New("snapshots are disabled (storage.enabled is false)")

// =============================================================================
// serve
// =============================================================================

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the canvas web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr from the config)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger.Slog()
	slog.SetDefault(logger)
	cfg := a.cfg

	shutdownTracer, err := server.InitTracer(ctx, server.TelemetryConfig{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	var snapshots *storage.SnapshotStore
	if cfg.Storage.Enabled {
		db, err := a.openStorage(logger)
		if err != nil {
			return err
		}
		defer db.Close()
		snapshots = storage.NewSnapshotStore(db)
	}

	metrics := observability.InitMetrics()
	registry, err := templates.NewRegistry(config.ExpandHome(cfg.Templates.File),
		templates.WithLogger(logger),
		templates.WithReloadHook(func(c *templates.Catalog) {
			logger.Info("template catalog reloaded", "templates", c.Len())
		}))
	if err != nil {
		return err
	}

	sessionCfg, err := cfg.SessionConfig()
	if err != nil {
		return err
	}
	srv, err := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		StaticDir:       config.ExpandHome(cfg.Server.StaticDir),
		ServiceName:     cfg.Telemetry.ServiceName,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		WatchTemplates:  cfg.Templates.Watch,
		WatchDebounce:   cfg.Templates.WatchDebounce,
		Session:         sessionCfg,
	}, server.Deps{
		Registry:  registry,
		Snapshots: snapshots,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	a.out.Success(fmt.Sprintf("aircanvas listening on %s", cfg.Server.Addr))
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func (a *app) openStorage(logger *slog.Logger) (*storage.DB, error) {
	if !a.cfg.Storage.Enabled {
		return nil, errSnapshotsDisabled
	}
	if a.cfg.Storage.InMemory {
		sc := storage.InMemoryConfig()
		sc.Logger = logger
		return storage.Open(sc)
	}
	sc := storage.DefaultConfig(config.ExpandHome(a.cfg.Storage.Path))
	sc.Logger = logger
	return storage.Open(sc)
}

// =============================================================================
// snapshots
// =============================================================================

func newSnapshotsCmd(a *app) *cobra.Command {
	snapshotsCmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage canvas snapshots saved with \"take screenshot\"",
		Long: `Manage canvas snapshots saved with "take screenshot".

The snapshot database allows one process at a time; stop "aircanvas serve"
first, or use the /v1/snapshots API while it runs.`,
	}

	withStore := func(cmd *cobra.Command, fn func(*storage.SnapshotStore) error) error {
		db, err := a.openStorage(a.logger.Slog())
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(storage.NewSnapshotStore(db))
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.SnapshotStore) error {
				list, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					a.out.Info("no snapshots")
					return nil
				}
				rows := [][]string{{"ID", "CREATED", "SEGMENTS", "SESSION"}}
				for _, s := range list {
					rows = append(rows, []string{
						s.ID,
						s.CreatedAt.Local().Format(time.DateTime),
						strconv.Itoa(s.Segments),
						s.SessionID,
					})
				}
				a.out.Table(rows)
				return nil
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a snapshot and a preview of its strokes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.SnapshotStore) error {
				snap, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.out.Title(snap.ID)
				a.out.KeyValue("session", snap.SessionID)
				a.out.KeyValue("created", snap.CreatedAt.Local().Format(time.DateTime))
				a.out.KeyValue("canvas", fmt.Sprintf("%dx%d", snap.Width, snap.Height))
				a.out.KeyValue("segments", len(snap.Segments))

				preview := a.newPreview()
				for _, s := range snap.Segments {
					preview.Draw(lineOf(s))
				}
				fmt.Fprintln(a.out.Writer(), preview.Render(a.out))
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.SnapshotStore) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				a.out.Success("deleted " + args[0])
				return nil
			})
		},
	}

	snapshotsCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return snapshotsCmd
}
