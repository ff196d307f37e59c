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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/aircanvas/pkg/ux"
	"github.com/AleutianAI/aircanvas/services/canvas/expr"
	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/playback"
	"github.com/AleutianAI/aircanvas/services/canvas/shape"
)

// =============================================================================
// eval
// =============================================================================

func newEvalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an arithmetic expression (+ - * / ^ and parentheses)",
		Example: `  aircanvas eval "2+3*4"
  aircanvas eval "(1+2)^2 / 4"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			v, err := expr.Evaluate(text)
			if err != nil {
				if kind, ok := expr.KindOf(err); ok {
					return fmt.Errorf("%s: %w", kind, err)
				}
				return err
			}
			fmt.Fprintln(a.out.Writer(), expr.FormatResult(v))
			return nil
		},
	}
}

// =============================================================================
// templates
// =============================================================================

func newTemplatesCmd(a *app) *cobra.Command {
	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the drawing template catalog",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			catalog := reg.Catalog()
			rows := [][]string{{"NAME", "POINTS", "SEGMENTS"}}
			for _, name := range catalog.Names() {
				t, _ := catalog.Lookup(name)
				rows = append(rows, []string{name, strconv.Itoa(t.Len()), strconv.Itoa(t.Segments())})
			}
			a.out.Table(rows)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a template's points and a preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			t, ok := reg.Lookup(strings.ToLower(args[0]))
			if !ok {
				return fmt.Errorf("%w: %q", playback.ErrUnknownTemplate, args[0])
			}
			a.out.Title(t.Name())
			a.out.KeyValue("points", t.Len())
			a.out.KeyValue("segments", t.Segments())
			b := t.Bounds()
			a.out.KeyValue("bounds", fmt.Sprintf("(%g,%g)-(%g,%g)", b.MinX, b.MinY, b.MaxX, b.MaxY))

			preview := a.newPreview()
			pts := t.Points()
			for i := 1; i < len(pts); i++ {
				preview.Draw(lineOf(geometry.Segment{From: pts[i-1], To: pts[i]}))
			}
			fmt.Fprintln(a.out.Writer(), preview.Render(a.out))
			return nil
		},
	}

	templatesCmd.AddCommand(listCmd, showCmd)
	return templatesCmd
}

// =============================================================================
// play
// =============================================================================

func newPlayCmd(a *app) *cobra.Command {
	var (
		fps         int
		showPreview bool
	)
	cmd := &cobra.Command{
		Use:   "play <template>",
		Short: "Play a template on the frame clock, printing each segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			player := playback.NewPlayer(reg)
			if err := player.Start(strings.ToLower(args[0])); err != nil {
				return err
			}
			if fps <= 0 {
				fps = a.cfg.Playback.FPS
			}
			_, _, total := player.Progress()

			preview := a.newPreview()
			driver := playback.NewDriver(player,
				playback.WithFPS(fps),
				playback.WithDriverLogger(a.logger.Slog()))
			res, err := driver.Run(cmd.Context(), playback.SinkFunc(func(_ context.Context, step playback.Step) error {
				s := step.Segment
				fmt.Fprintf(a.out.Writer(), "%s (%g,%g) %s (%g,%g)\n",
					a.out.ProgressBar(step.Index, total, 20),
					s.From.X, s.From.Y, ux.IconArrow, s.To.X, s.To.Y)
				preview.Draw(lineOf(s))
				return nil
			}))
			if err != nil {
				return err
			}

			if showPreview {
				fmt.Fprintln(a.out.Writer(), preview.Render(a.out))
			}
			a.out.Success(fmt.Sprintf("drew %s: %d segments in %s", res.Template, res.Segments, res.Elapsed.Round(time.Millisecond)))
			return nil
		},
	}
	cmd.Flags().IntVar(&fps, "fps", 0, "frames per second (default playback.fps from the config)")
	cmd.Flags().BoolVar(&showPreview, "preview", true, "print a preview of the finished drawing")
	return cmd
}

// =============================================================================
// classify
// =============================================================================

// pathFile is the classify input: either a bare list of points or an object
// with points and an optional color.
type pathFile struct {
	Points []geometry.Point `yaml:"points"`
	Color  string           `yaml:"color"`
}

func readPathFile(path string) (pathFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pathFile{}, err
	}
	var pts []geometry.Point
	if err := yaml.Unmarshal(data, &pts); err == nil {
		return pathFile{Points: pts}, nil
	}
	var pf pathFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return pathFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return pf, nil
}

func newClassifyCmd(a *app) *cobra.Command {
	var (
		file  string
		color string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run the circle/heart classifier over a recorded path (JSON or YAML)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := readPathFile(file)
			if err != nil {
				return err
			}
			if color == "" {
				color = pf.Color
			}
			if color == "" {
				color = shape.TriggerColor
			}

			classifier := shape.New(shape.WithMinSamples(a.cfg.Path.MinSamples))
			res := classifier.Classify(pf.Points, strings.ToLower(color))

			a.out.KeyValue("points", len(pf.Points))
			a.out.KeyValue("color", color)
			if res.Detected() {
				a.out.Success("detected " + res.Shape.String())
			} else {
				a.out.Info("no shape detected")
			}
			if box := res.Box; box != (geometry.BoundingBox{}) {
				a.out.KeyValue("bbox", fmt.Sprintf("(%g,%g)-(%g,%g) aspect %.2f",
					box.MinX, box.MinY, box.MaxX, box.MaxY, box.Aspect()))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path file: a list of {x, y} points, or {points, color}")
	cmd.Flags().StringVar(&color, "color", "", "stroke color (default from the file, else pink)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// =============================================================================
// helpers
// =============================================================================

func (a *app) newPreview() *ux.Preview {
	return ux.NewPreview(64, 24, float64(a.cfg.Canvas.Width), float64(a.cfg.Canvas.Height))
}

func lineOf(s geometry.Segment) ux.Line {
	return ux.Line{X1: s.From.X, Y1: s.From.Y, X2: s.To.X, Y2: s.To.Y}
}
