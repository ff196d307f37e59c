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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/aircanvas/cmd/aircanvas/config"
	"github.com/AleutianAI/aircanvas/pkg/logging"
	"github.com/AleutianAI/aircanvas/pkg/ux"
	"github.com/AleutianAI/aircanvas/services/canvas/templates"
)

// app carries what every subcommand needs once the config is loaded.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logging.Logger
	out    *ux.Output
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "aircanvas",
		Short: "Hand-tracking drawing canvas: expressions, shapes and template playback",
		Long: `aircanvas serves a browser canvas driven by fingertip tracking and voice
commands, and exposes its evaluator, shape classifier and template player on
the command line.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"config file (default $"+config.EnvConfigPath+" or ~/.aircanvas/aircanvas.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newEvalCmd(a),
		newTemplatesCmd(a),
		newPlayCmd(a),
		newClassifyCmd(a),
		newServeCmd(a),
		newSnapshotsCmd(a),
	)
	return rootCmd
}

// load reads the config (writing defaults on first run) and sets up logging.
func (a *app) load(cmd *cobra.Command, args []string) error {
	a.out = ux.NewOutput(cmd.OutOrStdout())

	path, err := config.ResolvePath(a.configPath)
	if err != nil {
		return err
	}
	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		return err
	}
	if created {
		a.out.Info(fmt.Sprintf("First run detected, created the config at %s", path))
	}
	a.cfg = cfg

	levelName := cfg.Logging.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "aircanvas",
		JSON:    cfg.Logging.JSON,
		Writer:  cmd.ErrOrStderr(),
	})
	return nil
}

// registry loads the template catalog named in the config.
func (a *app) registry() (*templates.Registry, error) {
	return templates.NewRegistry(config.ExpandHome(a.cfg.Templates.File),
		templates.WithLogger(a.logger.Slog()))
}
