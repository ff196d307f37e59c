// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config defines the aircanvas YAML configuration file.
package config

import (
	"fmt"
	"time"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/pathbuf"
	"github.com/AleutianAI/aircanvas/services/canvas/playback"
	"github.com/AleutianAI/aircanvas/services/canvas/session"
	"github.com/AleutianAI/aircanvas/services/canvas/shape"
	"github.com/AleutianAI/aircanvas/services/canvas/templates"
)

type Config struct {
	// Canvas: pixel size and camera mirroring
	Canvas CanvasConfig `yaml:"canvas"`

	// Path: freehand window used by the shape classifier
	Path PathConfig `yaml:"path"`

	Playback    PlaybackConfig    `yaml:"playback"`
	Pointer     PointerConfig     `yaml:"pointer"`
	Commands    CommandsConfig    `yaml:"commands"`
	Recognition RecognitionConfig `yaml:"recognition"`

	// Templates: optional catalog file merged over the built-ins
	Templates TemplatesConfig `yaml:"templates"`

	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type CanvasConfig struct {
	Width  int  `yaml:"width" validate:"gt=0,lte=8192"`
	Height int  `yaml:"height" validate:"gt=0,lte=8192"`
	Mirror bool `yaml:"mirror"`
}

type PathConfig struct {
	// Variant is "interactive" (50 points) or "heuristic" (70 points)
	Variant string `yaml:"variant" validate:"oneof=interactive heuristic"`

	// Capacity overrides the variant's window when > 0
	Capacity   int `yaml:"capacity" validate:"gte=0,lte=10000"`
	MinSamples int `yaml:"min_samples" validate:"gt=0"`
}

type PlaybackConfig struct {
	FPS int `yaml:"fps" validate:"gt=0,lte=240"`
}

type PointerConfig struct {
	// FPS caps fingertip samples; 0 means uncapped
	FPS int `yaml:"fps" validate:"gte=0,lte=240"`
}

type CommandsConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

type RecognitionConfig struct {
	BackoffBase time.Duration `yaml:"backoff_base" validate:"gt=0"`
	BackoffMax  time.Duration `yaml:"backoff_max" validate:"gtefield=BackoffBase"`
}

type TemplatesConfig struct {
	File          string        `yaml:"file"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce" validate:"gte=0"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	StaticDir       string        `yaml:"static_dir,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type StorageConfig struct {
	// Enabled turns on snapshots ("take screenshot" and /v1/snapshots)
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path" validate:"required_without=InMemory"`
	InMemory bool   `yaml:"in_memory"`
}

type TelemetryConfig struct {
	// Exporter is "none", "otlp" or "stdout"
	Exporter     string `yaml:"exporter" validate:"oneof=none otlp stdout"`
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
	ServiceName  string `yaml:"service_name" validate:"required"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the interactive defaults.
func DefaultConfig() Config {
	return Config{
		Canvas: CanvasConfig{
			Width:  geometry.DefaultWidth,
			Height: geometry.DefaultHeight,
			Mirror: true,
		},
		Path: PathConfig{
			Variant:    string(pathbuf.VariantInteractive),
			MinSamples: shape.DefaultMinSamples,
		},
		Playback:    PlaybackConfig{FPS: playback.DefaultFPS},
		Pointer:     PointerConfig{FPS: 60},
		Commands:    CommandsConfig{Debounce: time.Second},
		Recognition: RecognitionConfig{BackoffBase: session.DefaultBackoffBase, BackoffMax: session.DefaultBackoffMax},
		Templates:   TemplatesConfig{WatchDebounce: templates.DefaultDebounce},
		Server: ServerConfig{
			Addr:            ":12220",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    "~/.aircanvas/snapshots",
		},
		Telemetry: TelemetryConfig{
			Exporter:    "none",
			ServiceName: "aircanvas",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// SessionConfig converts the file settings to a session.Config.
func (c *Config) SessionConfig() (session.Config, error) {
	capacity := c.Path.Capacity
	if capacity == 0 {
		var err error
		capacity, err = pathbuf.CapacityFor(pathbuf.Variant(c.Path.Variant))
		if err != nil {
			return session.Config{}, fmt.Errorf("path: %w", err)
		}
	}
	cfg := session.DefaultConfig()
	cfg.Width = c.Canvas.Width
	cfg.Height = c.Canvas.Height
	cfg.Mirror = c.Canvas.Mirror
	cfg.PathCapacity = capacity
	cfg.MinSamples = c.Path.MinSamples
	cfg.PointerFPS = c.Pointer.FPS
	cfg.PlaybackFPS = c.Playback.FPS
	cfg.CommandDebounce = c.Commands.Debounce
	cfg.BackoffBase = c.Recognition.BackoffBase
	cfg.BackoffMax = c.Recognition.BackoffMax
	return cfg, nil
}
