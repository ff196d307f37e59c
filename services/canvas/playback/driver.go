// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultFPS is the template replay frame rate.
const DefaultFPS = 30

// SegmentSink receives each step a Driver emits.
type SegmentSink interface {
	DrawStep(ctx context.Context, step Step) error
}

// SinkFunc adapts a function to SegmentSink.
type SinkFunc func(ctx context.Context, step Step) error

// DrawStep calls f.
func (f SinkFunc) DrawStep(ctx context.Context, step Step) error { return f(ctx, step) }

// RunResult summarizes one Driver.Run.
type RunResult struct {
	Template  string
	Segments  int
	Elapsed   time.Duration
	Completed bool
}

// Driver ticks a Player on a fixed frame clock.
//
// # Description
//
// Run drives the session that is active when it is called. If that session
// is cancelled or replaced by a later Start, Run stops without touching the
// new session; whoever started it runs its own Driver.
type Driver struct {
	player *Player
	fps    int
	logger *slog.Logger
	locker sync.Locker
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithFPS sets the frame rate. Values <= 0 keep DefaultFPS.
func WithFPS(fps int) DriverOption {
	return func(d *Driver) {
		if fps > 0 {
			d.fps = fps
		}
	}
}

// WithDriverLogger sets the logger.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) { d.logger = logger }
}

// WithLocker makes Run hold l from the generation check until the sink
// returns. A caller that replaces or cancels playback while holding l then
// never sees a step of the old session delivered afterwards. The sink runs
// with l held and must not lock it again.
func WithLocker(l sync.Locker) DriverOption {
	return func(d *Driver) { d.locker = l }
}

// NewDriver creates a driver for player.
func NewDriver(player *Player, opts ...DriverOption) *Driver {
	d := &Driver{player: player, fps: DefaultFPS}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// FPS returns the configured frame rate.
func (d *Driver) FPS() int { return d.fps }

// Run ticks the current session into sink until it finishes, is replaced,
// or ctx ends.
//
// # Outputs
//
//   - RunResult: Completed is true only if the final segment was delivered.
//   - error: ctx.Err() when the context ended first, or the sink's error.
//     A cancelled or replaced session is not an error.
func (d *Driver) Run(ctx context.Context, sink SegmentSink) (RunResult, error) {
	gen := d.player.currentGeneration()
	name, _, _ := d.player.Progress()
	res := RunResult{Template: name}

	start := time.Now()
	limiter := rate.NewLimiter(rate.Limit(d.fps), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			res.Elapsed = time.Since(start)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			return res, err
		}

		step, stopped, err := d.deliver(ctx, gen, sink)
		if stopped {
			d.logger.Debug("playback stopped", "template", name, "segments", res.Segments)
			res.Elapsed = time.Since(start)
			return res, nil
		}
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		res.Segments++

		if step.Done {
			res.Completed = true
			res.Elapsed = time.Since(start)
			d.logger.Debug("playback complete", "template", name, "segments", res.Segments, "elapsed", res.Elapsed)
			return res, nil
		}
	}
}

// deliver ticks generation gen and hands the step to sink, both under the
// driver's locker when one is set. stopped reports that gen is no longer
// playing.
func (d *Driver) deliver(ctx context.Context, gen uint64, sink SegmentSink) (step Step, stopped bool, err error) {
	if d.locker != nil {
		d.locker.Lock()
		defer d.locker.Unlock()
	}
	step, err = d.player.tickGeneration(gen)
	if errors.Is(err, ErrNotPlaying) {
		return step, true, nil
	}
	if err != nil {
		return step, false, err
	}
	return step, false, sink.DrawStep(ctx, step)
}
