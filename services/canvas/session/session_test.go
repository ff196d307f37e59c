// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/playback"
	"github.com/AleutianAI/aircanvas/services/canvas/shape"
	"github.com/AleutianAI/aircanvas/services/canvas/storage"
	"github.com/AleutianAI/aircanvas/services/canvas/templates"
)

// =============================================================================
// Test Helpers
// =============================================================================

type recordingSink struct {
	mu         sync.Mutex
	segments   []geometry.Segment
	sources    []Source
	detections []shape.Result
	texts      []string
	finals     []string
	clears     int
	states     []Status
}

func (r *recordingSink) Segment(_ context.Context, seg geometry.Segment, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, seg)
	r.sources = append(r.sources, src)
}

func (r *recordingSink) Detection(_ context.Context, res shape.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detections = append(r.detections, res)
}

func (r *recordingSink) Text(_ context.Context, text string, final bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if final {
		r.finals = append(r.finals, text)
	} else {
		r.texts = append(r.texts, text)
	}
}

func (r *recordingSink) Clear(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *recordingSink) State(_ context.Context, st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSaver struct {
	saved []storage.Snapshot
	err   error
}

func (f *fakeSaver) Save(_ context.Context, snap storage.Snapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, snap)
	return "snap-1", nil
}

type countingObserver struct {
	evaluations map[string]int
	detections  map[string]int
	segments    map[string]int
	commands    map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		evaluations: map[string]int{},
		detections:  map[string]int{},
		segments:    map[string]int{},
		commands:    map[string]int{},
	}
}

func (c *countingObserver) ObserveEvaluation(outcome string) { c.evaluations[outcome]++ }
func (c *countingObserver) ObserveDetection(s string)        { c.detections[s]++ }
func (c *countingObserver) ObserveSegment(source string)     { c.segments[source]++ }
func (c *countingObserver) ObserveCommand(cmd, status string) {
	c.commands[cmd+"/"+status]++
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *recordingSink, *fakeClock) {
	t.Helper()
	sink := &recordingSink{}
	clock := newFakeClock()
	all := append([]Option{WithSink(sink), WithClock(clock.Now), WithID("test-session")}, opts...)
	return New(DefaultConfig(), templates.Builtin(), all...), sink, clock
}

// command advances past the debounce window and runs a transcript.
func command(t *testing.T, s *Session, clock *fakeClock, transcript string) (Command, error) {
	t.Helper()
	clock.Advance(time.Second)
	return s.Command(context.Background(), transcript)
}

// feed sends points spaced beyond the pointer rate.
func feed(s *Session, clock *fakeClock, pts []geometry.Point) {
	for _, p := range pts {
		clock.Advance(20 * time.Millisecond)
		s.Pointer(context.Background(), p)
	}
}

func circlePath(n int) []geometry.Point {
	pts := make([]geometry.Point, n)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geometry.Point{X: 320 + 60*math.Cos(theta), Y: 240 + 60*math.Sin(theta)}
	}
	return pts
}

// =============================================================================
// Commands
// =============================================================================

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		kind CommandKind
		arg  string
	}{
		{"start drawing", CommandStartDrawing, ""},
		{"  Start Drawing  ", CommandStartDrawing, ""},
		{"stop drawing", CommandStopDrawing, ""},
		{"start typing", CommandStartTyping, ""},
		{"stop typing", CommandStopTyping, ""},
		{"clear canvas", CommandClearCanvas, ""},
		{"take screenshot", CommandTakeScreenshot, ""},
		{"draw star", CommandDraw, "star"},
		{"Draw Circle", CommandDraw, "circle"},
		{"color blue", CommandColor, "blue"},
		{"draw", CommandUnknown, "draw"},
		{"please start drawing", CommandUnknown, "please start drawing"},
		{"", CommandUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseCommand(tt.in)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.arg, got.Arg)
		})
	}
}

func TestCommandKind_String(t *testing.T) {
	assert.Equal(t, "start_drawing", CommandStartDrawing.String())
	assert.Equal(t, "draw", CommandDraw.String())
	assert.Equal(t, "unknown", CommandKind(42).String())
}

func TestSession_CommandModes(t *testing.T) {
	s, _, clock := newTestSession(t)

	_, err := command(t, s, clock, "start drawing")
	require.NoError(t, err)
	st := s.Status()
	assert.True(t, st.Drawing)
	assert.False(t, st.Typing)

	_, err = command(t, s, clock, "start typing")
	require.NoError(t, err)
	st = s.Status()
	assert.True(t, st.Typing)
	assert.False(t, st.Drawing)

	_, err = command(t, s, clock, "stop typing")
	require.NoError(t, err)
	assert.False(t, s.Status().Typing)

	_, err = command(t, s, clock, "start drawing")
	require.NoError(t, err)
	_, err = command(t, s, clock, "stop drawing")
	require.NoError(t, err)
	assert.False(t, s.Status().Drawing)
}

func TestSession_CommandDebounce(t *testing.T) {
	obs := newCountingObserver()
	s, _, clock := newTestSession(t, WithObserver(obs))
	ctx := context.Background()

	_, err := s.Command(ctx, "start drawing")
	require.NoError(t, err)

	clock.Advance(500 * time.Millisecond)
	_, err = s.Command(ctx, "stop drawing")
	assert.ErrorIs(t, err, ErrDebounced)
	assert.True(t, s.Status().Drawing, "debounced command has no effect")

	clock.Advance(500 * time.Millisecond)
	_, err = s.Command(ctx, "stop drawing")
	require.NoError(t, err)
	assert.False(t, s.Status().Drawing)

	assert.Equal(t, 1, obs.commands["stop_drawing/debounced"])
	assert.Equal(t, 1, obs.commands["stop_drawing/ok"])
}

func TestSession_UnknownCommandConsumesWindow(t *testing.T) {
	s, _, clock := newTestSession(t)
	ctx := context.Background()

	_, err := s.Command(ctx, "hello there")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	clock.Advance(100 * time.Millisecond)
	_, err = s.Command(ctx, "start drawing")
	assert.ErrorIs(t, err, ErrDebounced)
}

func TestSession_ColorCommand(t *testing.T) {
	s, _, clock := newTestSession(t)
	assert.Equal(t, DefaultColor, s.Status().Color)

	_, err := command(t, s, clock, "color pink")
	require.NoError(t, err)
	assert.Equal(t, "pink", s.Status().Color)

	_, err = command(t, s, clock, "color chartreuse")
	assert.ErrorIs(t, err, ErrInvalidColor)
	assert.Equal(t, "pink", s.Status().Color)

	require.NoError(t, s.SetColor(context.Background(), "BLUE"))
	assert.Equal(t, "blue", s.Status().Color)
	assert.ErrorIs(t, s.SetColor(context.Background(), ""), ErrInvalidColor)
}

func TestSession_ClearCanvas(t *testing.T) {
	s, sink, clock := newTestSession(t)
	_, err := command(t, s, clock, "start drawing")
	require.NoError(t, err)
	feed(s, clock, []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}})
	require.Len(t, s.Strokes(), 2)

	_, err = command(t, s, clock, "clear canvas")
	require.NoError(t, err)
	assert.Empty(t, s.Strokes())
	assert.Equal(t, 0, s.Status().PathLen)
	assert.Equal(t, 1, sink.clears)
}

func TestSession_TakeScreenshot(t *testing.T) {
	t.Run("disabled without saver", func(t *testing.T) {
		s, _, clock := newTestSession(t)
		_, err := command(t, s, clock, "take screenshot")
		assert.ErrorIs(t, err, ErrSnapshotsDisabled)
	})

	t.Run("saves strokes", func(t *testing.T) {
		saver := &fakeSaver{}
		s, _, clock := newTestSession(t, WithSnapshotSaver(saver))
		_, err := command(t, s, clock, "start drawing")
		require.NoError(t, err)
		feed(s, clock, []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}})

		cmd, err := command(t, s, clock, "take screenshot")
		require.NoError(t, err)
		assert.Equal(t, "snap-1", cmd.Arg)
		require.Len(t, saver.saved, 1)
		assert.Equal(t, "test-session", saver.saved[0].SessionID)
		assert.Equal(t, 640, saver.saved[0].Width)
		assert.Len(t, saver.saved[0].Segments, 1)
	})

	t.Run("propagates store error", func(t *testing.T) {
		boom := errors.New("disk full")
		s, _, clock := newTestSession(t, WithSnapshotSaver(&fakeSaver{err: boom}))
		_, err := command(t, s, clock, "take screenshot")
		assert.ErrorIs(t, err, boom)
	})
}

// =============================================================================
// Pointer
// =============================================================================

func TestSession_PointerRateCap(t *testing.T) {
	s, _, clock := newTestSession(t)
	ctx := context.Background()

	assert.True(t, s.Pointer(ctx, geometry.Point{X: 1, Y: 1}))
	clock.Advance(5 * time.Millisecond)
	assert.False(t, s.Pointer(ctx, geometry.Point{X: 2, Y: 2}), "faster than 60 Hz")
	clock.Advance(15 * time.Millisecond)
	assert.True(t, s.Pointer(ctx, geometry.Point{X: 3, Y: 3}))
}

func TestSession_PointerFreehand(t *testing.T) {
	obs := newCountingObserver()
	s, sink, clock := newTestSession(t, WithObserver(obs))

	// Not drawing: no output, but the last point is tracked.
	feed(s, clock, []geometry.Point{{X: 5, Y: 5}})
	assert.Empty(t, sink.segments)
	assert.Equal(t, 0, s.Status().PathLen)

	_, err := command(t, s, clock, "start drawing")
	require.NoError(t, err)
	feed(s, clock, []geometry.Point{{X: 10, Y: 10}, {X: 20, Y: 20}})

	require.Len(t, sink.segments, 2)
	assert.Equal(t, geometry.Segment{From: geometry.Point{X: 5, Y: 5}, To: geometry.Point{X: 10, Y: 10}, Color: "red"}, sink.segments[0])
	assert.Equal(t, SourceFreehand, sink.sources[0])
	assert.Equal(t, 2, s.Status().PathLen)
	assert.Equal(t, 2, obs.segments["freehand"])
}

func TestSession_DetectsPinkCircle(t *testing.T) {
	obs := newCountingObserver()
	s, sink, clock := newTestSession(t, WithObserver(obs))
	_, err := command(t, s, clock, "color pink")
	require.NoError(t, err)
	_, err = command(t, s, clock, "start drawing")
	require.NoError(t, err)

	path := circlePath(40)
	feed(s, clock, path[:31])

	require.Len(t, sink.detections, 1)
	assert.Equal(t, shape.Circle, sink.detections[0].Shape)
	assert.Equal(t, 0, s.Status().PathLen, "buffer cleared after detection")
	assert.Equal(t, 1, obs.detections["circle"])
}

func TestSession_NoDetectionInOtherColor(t *testing.T) {
	s, sink, clock := newTestSession(t)
	_, err := command(t, s, clock, "start drawing")
	require.NoError(t, err)

	feed(s, clock, circlePath(60))
	assert.Empty(t, sink.detections)
	assert.Equal(t, DefaultConfig().PathCapacity, s.Status().PathLen)
}

func TestSession_Landmark(t *testing.T) {
	s, sink, clock := newTestSession(t)
	_, err := command(t, s, clock, "start drawing")
	require.NoError(t, err)

	clock.Advance(20 * time.Millisecond)
	s.Landmark(context.Background(), 0.25, 0.5)
	clock.Advance(20 * time.Millisecond)
	s.Landmark(context.Background(), 0.5, 0.5)

	require.Len(t, sink.segments, 1)
	assert.Equal(t, geometry.Point{X: 480, Y: 240}, sink.segments[0].From, "mirrored")
	assert.Equal(t, geometry.Point{X: 320, Y: 240}, sink.segments[0].To)
}

// =============================================================================
// Playback
// =============================================================================

func TestSession_DrawTemplate(t *testing.T) {
	obs := newCountingObserver()
	s, sink, clock := newTestSession(t, WithObserver(obs))
	ctx := context.Background()
	_, err := command(t, s, clock, "color blue")
	require.NoError(t, err)

	cmd, err := command(t, s, clock, "draw triangle")
	require.NoError(t, err)
	assert.Equal(t, CommandDraw, cmd.Kind)
	assert.Equal(t, "triangle", cmd.Arg)

	st := s.Status()
	assert.True(t, st.Drawing)
	assert.True(t, st.AIDrawing)
	assert.Equal(t, "playing", st.Playback)
	assert.Equal(t, "triangle", st.Template)
	assert.True(t, s.Playing())
	assert.Equal(t, 1, sink.clears)

	// Freehand input is ignored while a template plays.
	feed(s, clock, []geometry.Point{{X: 1, Y: 1}, {X: 2, Y: 2}})
	assert.Empty(t, sink.segments)

	for i := 0; i < 3; i++ {
		_, err := s.Tick(ctx)
		require.NoError(t, err)
	}
	require.Len(t, sink.segments, 3)
	assert.Equal(t, SourceTemplate, sink.sources[0])
	assert.Equal(t, "blue", sink.segments[0].Color)

	st = s.Status()
	assert.False(t, st.Drawing)
	assert.False(t, st.AIDrawing)
	assert.Equal(t, "done", st.Playback)

	_, err = s.Tick(ctx)
	assert.ErrorIs(t, err, playback.ErrNotPlaying)
	assert.Equal(t, 3, obs.segments["template"])
}

func TestSession_DrawUnknownTemplate(t *testing.T) {
	s, sink, clock := newTestSession(t)
	_, err := command(t, s, clock, "draw star")
	require.NoError(t, err)
	_, err = s.Tick(context.Background())
	require.NoError(t, err)

	_, err = command(t, s, clock, "draw unicorn")
	assert.ErrorIs(t, err, playback.ErrUnknownTemplate)
	assert.Equal(t, "star", s.Status().Template)
	assert.Equal(t, 1, sink.clears, "canvas not cleared")
	assert.Len(t, s.Strokes(), 1)
}

func TestSession_StopDrawingCancelsPlayback(t *testing.T) {
	s, _, clock := newTestSession(t)
	_, err := command(t, s, clock, "draw star")
	require.NoError(t, err)

	_, err = command(t, s, clock, "stop drawing")
	require.NoError(t, err)
	st := s.Status()
	assert.Equal(t, "idle", st.Playback)
	assert.False(t, st.AIDrawing)
}

func TestSession_Play(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlaybackFPS = 1000
	sink := &recordingSink{}
	s := New(cfg, templates.Builtin(), WithSink(sink))

	_, err := s.Command(context.Background(), "draw square")
	require.NoError(t, err)

	res, err := s.Play(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 4, res.Segments)
	assert.Len(t, sink.segments, 4)
	assert.False(t, s.Status().AIDrawing)
}

func TestSession_PlayReplacedUnderLockDrawsNoStaleStep(t *testing.T) {
	a, err := templates.NewTemplate("a", []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}})
	require.NoError(t, err)
	b, err := templates.NewTemplate("b", []geometry.Point{{X: 100, Y: 100}, {X: 200, Y: 100}, {X: 200, Y: 200}})
	require.NoError(t, err)
	catalog, err := templates.NewCatalog(a, b)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.PlaybackFPS = 1000
	cfg.CommandDebounce = 0
	s := New(cfg, catalog, WithSink(&recordingSink{}))
	ctx := context.Background()
	_, err = s.Command(ctx, "draw a")
	require.NoError(t, err)

	s.mu.Lock()
	done := make(chan playback.RunResult, 1)
	go func() {
		res, err := s.Play(ctx)
		assert.NoError(t, err)
		done <- res
	}()
	time.Sleep(20 * time.Millisecond)
	_, err = s.executeLocked(ctx, ParseCommand("draw b"))
	s.mu.Unlock()
	require.NoError(t, err)
	res := <-done

	stale := geometry.Segment{From: geometry.Point{X: 0, Y: 0}, To: geometry.Point{X: 10, Y: 10}}
	for _, seg := range s.Strokes() {
		seg.Color = ""
		assert.NotEqual(t, stale, seg, "segment of a drawn after b cleared the canvas")
	}
	st := s.Status()
	assert.Equal(t, s.Playing(), st.AIDrawing)

	if res.Template == "a" {
		assert.Zero(t, res.Segments)
		assert.True(t, st.AIDrawing)
		assert.True(t, st.Drawing)
		assert.Equal(t, "b", st.Template)
		assert.Empty(t, s.Strokes())

		_, err = s.Command(ctx, "stop drawing")
		require.NoError(t, err)
		assert.False(t, s.Playing(), "b can still be cancelled")
	}
}

// =============================================================================
// Keyboard
// =============================================================================

func TestSession_KeyTyping(t *testing.T) {
	obs := newCountingObserver()
	s, sink, clock := newTestSession(t, WithObserver(obs))
	ctx := context.Background()

	_, err := command(t, s, clock, "start drawing")
	require.NoError(t, err)

	assert.False(t, s.Key(ctx, "a"), "ignored outside typing mode")
	assert.True(t, s.Key(ctx, "T"))
	st := s.Status()
	assert.True(t, st.Typing)
	assert.False(t, st.Drawing)

	for _, k := range []string{"2", "+", "3", "*", "4", "x"} {
		assert.True(t, s.Key(ctx, k))
	}
	assert.True(t, s.Key(ctx, "Backspace"))
	assert.Equal(t, "2+3*4", s.Status().Text)
	assert.False(t, s.Key(ctx, "Shift"))

	assert.True(t, s.Key(ctx, "Enter"))
	require.Len(t, sink.finals, 1)
	assert.Equal(t, "2+3*4 = 14", sink.finals[0])
	assert.Equal(t, "", s.Status().Text)
	assert.Equal(t, 1, obs.evaluations["ok"])
}

func TestSession_KeyEnterRendering(t *testing.T) {
	tests := []struct {
		name  string
		typed string
		want  string
	}{
		{"division", "1/3", "1/3 = 0.333"},
		{"division by zero", "5/0", "Error: division by zero"},
		{"plain text", "hello", "hello"},
		{"text with a digit", "abc1", "Error: invalid characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sink, _ := newTestSession(t)
			ctx := context.Background()
			s.Key(ctx, "t")
			for _, r := range tt.typed {
				s.Key(ctx, string(r))
			}
			s.Key(ctx, "Enter")
			require.Len(t, sink.finals, 1)
			assert.Contains(t, sink.finals[0], tt.want)
		})
	}
}

func TestSession_KeyEscape(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()
	s.Key(ctx, "t")
	s.Key(ctx, "9")
	assert.True(t, s.Key(ctx, "Escape"))

	st := s.Status()
	assert.False(t, st.Typing)
	assert.Equal(t, "", st.Text)
}

func TestSession_KeyEdgeCases(t *testing.T) {
	s, sink, _ := newTestSession(t)
	ctx := context.Background()
	s.Key(ctx, "t")

	assert.True(t, s.Key(ctx, "Backspace"), "backspace on empty text")
	assert.True(t, s.Key(ctx, "Enter"), "enter on empty text")
	assert.Empty(t, sink.finals)

	s.Key(ctx, "t")
	s.Key(ctx, "é")
	s.Key(ctx, "Backspace")
	assert.Equal(t, "t", s.Status().Text, "backspace removes a whole rune")
}

// =============================================================================
// Recognition backoff
// =============================================================================

func TestSession_Recognition(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.Equal(t, time.Second, s.RecognitionEnded())
	assert.Equal(t, 2*time.Second, s.RecognitionFailed())
	assert.Equal(t, 4*time.Second, s.RecognitionFailed())
	s.RecognitionStarted()
	assert.Equal(t, 2*time.Second, s.RecognitionEnded())
}

func TestNew_GeneratesID(t *testing.T) {
	a := New(DefaultConfig(), templates.Builtin())
	b := New(Config{}, templates.Builtin())
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, DefaultConfig().PathCapacity, b.Config().PathCapacity)
}
