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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/templates"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		want     string
		terminal bool
	}{
		{StateIdle, "idle", true},
		{StatePlaying, "playing", false},
		{StateDone, "done", true},
		{State(9), "unknown", true},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestPlayer_CircleRunsToDone(t *testing.T) {
	p := NewPlayer(templates.Builtin())
	require.NoError(t, p.Start("circle"))
	assert.Equal(t, StatePlaying, p.State())

	circle, _ := templates.Builtin().Lookup("circle")
	n := circle.Len() - 1

	for i := 1; i <= n; i++ {
		step, err := p.Tick()
		require.NoError(t, err, "tick %d", i)
		assert.Equal(t, i, step.Index)
		assert.Equal(t, circle.Point(i-1), step.Segment.From)
		assert.Equal(t, circle.Point(i), step.Segment.To)
		assert.Equal(t, i == n, step.Done)
	}
	assert.Equal(t, StateDone, p.State())

	_, err := p.Tick()
	assert.ErrorIs(t, err, ErrNotPlaying)
	assert.Equal(t, StateDone, p.State())
}

func TestPlayer_TickWhenIdle(t *testing.T) {
	p := NewPlayer(templates.Builtin())
	_, err := p.Tick()
	assert.ErrorIs(t, err, ErrNotPlaying)
	assert.Equal(t, StateIdle, p.State())
}

func TestPlayer_UnknownTemplateKeepsSession(t *testing.T) {
	p := NewPlayer(templates.Builtin())
	require.NoError(t, p.Start("star"))
	_, err := p.Tick()
	require.NoError(t, err)

	err = p.Start("dodecahedron")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Equal(t, StatePlaying, p.State())

	name, emitted, total := p.Progress()
	assert.Equal(t, "star", name)
	assert.Equal(t, 1, emitted)
	assert.Equal(t, 10, total)

	step, err := p.Tick()
	require.NoError(t, err)
	assert.Equal(t, 2, step.Index, "session continues where it was")
}

func TestPlayer_StartReplacesSession(t *testing.T) {
	p := NewPlayer(templates.Builtin())
	require.NoError(t, p.Start("star"))
	for i := 0; i < 3; i++ {
		_, err := p.Tick()
		require.NoError(t, err)
	}

	require.NoError(t, p.Start("triangle"))
	tri, _ := templates.Builtin().Lookup("triangle")

	step, err := p.Tick()
	require.NoError(t, err)
	assert.Equal(t, 1, step.Index)
	assert.Equal(t, tri.Point(0), step.Segment.From)
}

func TestPlayer_Cancel(t *testing.T) {
	p := NewPlayer(templates.Builtin())

	p.Cancel()
	assert.Equal(t, StateIdle, p.State())

	require.NoError(t, p.Start("square"))
	p.Cancel()
	assert.Equal(t, StateIdle, p.State())
	name, _, _ := p.Progress()
	assert.Equal(t, "", name)

	_, err := p.Tick()
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestPlayer_TwoPointTemplate(t *testing.T) {
	line, err := templates.NewTemplate("line", []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	require.NoError(t, err)

	p := NewPlayer(templates.Builtin())
	p.StartTemplate(line)

	step, err := p.Tick()
	require.NoError(t, err)
	assert.True(t, step.Done)
	assert.Equal(t, StateDone, p.State())
}

func TestPlayer_TickGenerationIgnoresReplacedSession(t *testing.T) {
	p := NewPlayer(templates.Builtin())
	require.NoError(t, p.Start("circle"))
	gen := p.currentGeneration()

	require.NoError(t, p.Start("square"))
	_, err := p.tickGeneration(gen)
	assert.ErrorIs(t, err, ErrNotPlaying)

	_, emitted, _ := p.Progress()
	assert.Equal(t, 0, emitted, "new session untouched")
}
