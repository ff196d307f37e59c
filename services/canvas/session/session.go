// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session orchestrates one live canvas.
//
// # Description
//
// A Session turns input events (fingertip samples, voice transcripts, key
// presses) into drawing output. It owns the mode flags (drawing, template
// playback, typing), the current color, the freehand path buffer, the
// template player and the history of drawn strokes. The core components it
// drives (evaluator, classifier, player) stay free of this state and only see
// the values they need.
//
// Input pacing lives here: fingertip samples are capped at 60 Hz and voice
// commands are debounced to one per second.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Sink and Observer calls are made
// under the session lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/aircanvas/pkg/validation"
	"github.com/AleutianAI/aircanvas/services/canvas/expr"
	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/pathbuf"
	"github.com/AleutianAI/aircanvas/services/canvas/playback"
	"github.com/AleutianAI/aircanvas/services/canvas/shape"
	"github.com/AleutianAI/aircanvas/services/canvas/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrDebounced is returned for a command inside the debounce window.
	ErrDebounced = errors.New("command debounced")

	// ErrUnknownCommand is returned for a transcript that is not a command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidColor is returned for a color outside the standard palette.
	ErrInvalidColor = errors.New("invalid color")

	// ErrSnapshotsDisabled is returned by take screenshot without a store.
	ErrSnapshotsDisabled = errors.New("snapshots are not enabled")
)

// =============================================================================
// CONFIG
// =============================================================================

// DefaultColor is the stroke color of a new session.
const DefaultColor = "red"

// Config holds session tuning.
type Config struct {
	Width           int
	Height          int
	Mirror          bool
	PathCapacity    int
	MinSamples      int
	PointerFPS      int
	PlaybackFPS     int
	CommandDebounce time.Duration
	HistorySize     int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
}

// DefaultConfig returns the interactive defaults.
func DefaultConfig() Config {
	return Config{
		Width:           geometry.DefaultWidth,
		Height:          geometry.DefaultHeight,
		Mirror:          true,
		PathCapacity:    pathbuf.DefaultCapacity,
		MinSamples:      shape.DefaultMinSamples,
		PointerFPS:      60,
		PlaybackFPS:     playback.DefaultFPS,
		CommandDebounce: time.Second,
		HistorySize:     10000,
		BackoffBase:     DefaultBackoffBase,
		BackoffMax:      DefaultBackoffMax,
	}
}

// SnapshotSaver persists a canvas snapshot. *storage.SnapshotStore satisfies it.
type SnapshotSaver interface {
	Save(ctx context.Context, snap storage.Snapshot) (string, error)
}

// Option configures a Session.
type Option func(*Session)

// WithSink sets the output sink.
func WithSink(sink Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithSnapshotSaver enables "take screenshot".
func WithSnapshotSaver(saver SnapshotSaver) Option {
	return func(s *Session) { s.saver = saver }
}

// WithObserver sets the metrics observer.
func WithObserver(obs Observer) Option {
	return func(s *Session) { s.obs = obs }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock overrides time.Now for pacing decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithID sets the session ID instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the state of one live canvas.
type Session struct {
	id     string
	cfg    Config
	sink   Sink
	saver  SnapshotSaver
	obs    Observer
	logger *slog.Logger
	now    func() time.Time

	evaluator  *expr.Evaluator
	classifier *shape.Classifier
	player     *playback.Player
	backoff    *Backoff

	mu        sync.Mutex
	pointerRL *rate.Limiter
	commandRL *rate.Limiter
	path      *pathbuf.PathBuffer
	strokes   *pathbuf.RingBuffer[geometry.Segment]
	drawing   bool
	aiDrawing bool
	typing    bool
	color     string
	playColor string
	text      string
	last      geometry.Point
	hasLast   bool
}

// New creates a session that plays templates from catalog.
func New(cfg Config, catalog playback.Lookup, opts ...Option) *Session {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.PathCapacity <= 0 {
		cfg.PathCapacity = def.PathCapacity
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.PlaybackFPS <= 0 {
		cfg.PlaybackFPS = def.PlaybackFPS
	}

	s := &Session{
		cfg:        cfg,
		sink:       NopSink{},
		obs:        nopObserver{},
		now:        time.Now,
		evaluator:  expr.New(),
		classifier: shape.New(shape.WithMinSamples(cfg.MinSamples)),
		player:     playback.NewPlayer(catalog),
		backoff:    NewBackoff(cfg.BackoffBase, cfg.BackoffMax),
		pointerRL:  rate.NewLimiter(perSecond(cfg.PointerFPS), 1),
		commandRL:  rate.NewLimiter(every(cfg.CommandDebounce), 1),
		path:       pathbuf.New(cfg.PathCapacity),
		strokes:    pathbuf.NewRingBuffer[geometry.Segment](cfg.HistorySize),
		color:      DefaultColor,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("session_id", s.id)
	return s
}

func perSecond(fps int) rate.Limit {
	if fps <= 0 {
		return rate.Inf
	}
	return rate.Limit(fps)
}

func every(d time.Duration) rate.Limit {
	if d <= 0 {
		return rate.Inf
	}
	return rate.Every(d)
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	name, _, _ := s.player.Progress()
	return Status{
		SessionID: s.id,
		Drawing:   s.drawing,
		AIDrawing: s.aiDrawing,
		Typing:    s.typing,
		Color:     s.color,
		Text:      s.text,
		Playback:  s.player.State().String(),
		Template:  name,
		PathLen:   s.path.Len(),
		Strokes:   s.strokes.Size(),
	}
}

func (s *Session) emitState(ctx context.Context) {
	s.sink.State(ctx, s.statusLocked())
}

// Strokes returns the segments drawn since the last clear, oldest first.
func (s *Session) Strokes() []geometry.Segment {
	return s.strokes.Snapshot()
}

// -----------------------------------------------------------------------------
// Pointer input
// -----------------------------------------------------------------------------

// Pointer handles a fingertip sample in canvas coordinates.
//
// # Description
//
// Samples faster than the pointer rate are dropped and Pointer returns false.
// When freehand drawing is on (drawing and not template playback) a segment
// is drawn from the previous sample, the point enters the path buffer and
// the classifier runs once the buffer holds more than MinSamples points. A
// detected shape is reported and clears the buffer. The previous sample is
// updated in every mode.
func (s *Session) Pointer(ctx context.Context, p geometry.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pointerRL.AllowN(s.now(), 1) {
		return false
	}

	if s.drawing && !s.aiDrawing {
		if s.hasLast {
			s.drawLocked(ctx, geometry.Segment{From: s.last, To: p, Color: s.color}, SourceFreehand)
		}
		s.path.Push(p)
		if s.path.Len() > s.cfg.MinSamples {
			res := s.classifier.Classify(s.path.Snapshot(), s.color)
			if res.Detected() {
				s.logger.Info("shape detected", "shape", res.Shape.String(), "color", s.color)
				s.obs.ObserveDetection(res.Shape.String())
				s.sink.Detection(ctx, res)
			}
			if res.ClearBuffer() {
				s.path.Clear()
			}
		}
	}

	s.last = p
	s.hasLast = true
	return true
}

// Landmark handles a normalized (0..1) index-fingertip landmark.
func (s *Session) Landmark(ctx context.Context, nx, ny float64) bool {
	return s.Pointer(ctx, geometry.FromLandmark(nx, ny, s.cfg.Width, s.cfg.Height, s.cfg.Mirror))
}

func (s *Session) drawLocked(ctx context.Context, seg geometry.Segment, src Source) {
	s.strokes.Push(seg)
	s.obs.ObserveSegment(src.String())
	s.sink.Segment(ctx, seg, src)
}

// -----------------------------------------------------------------------------
// Color
// -----------------------------------------------------------------------------

// SetColor changes the stroke color. Names are case-insensitive.
func (s *Session) SetColor(ctx context.Context, name string) error {
	color, err := validation.SanitizeColor(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = color
	s.emitState(ctx)
	return nil
}

// -----------------------------------------------------------------------------
// Voice commands
// -----------------------------------------------------------------------------

// Command executes a voice transcript.
//
// # Description
//
// Every transcript, recognized or not, consumes the debounce window; one
// arriving inside the window returns ErrDebounced and does nothing.
//
// # Outputs
//
//   - Command: The parsed command. For take screenshot, Arg is the new
//     snapshot ID.
//   - error: ErrDebounced, ErrUnknownCommand, ErrInvalidColor,
//     playback.ErrUnknownTemplate, ErrSnapshotsDisabled or a storage error.
func (s *Session) Command(ctx context.Context, transcript string) (Command, error) {
	cmd := ParseCommand(transcript)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.commandRL.AllowN(s.now(), 1) {
		s.obs.ObserveCommand(cmd.Kind.String(), "debounced")
		return cmd, ErrDebounced
	}

	cmd, err := s.executeLocked(ctx, cmd)
	status := "ok"
	switch {
	case errors.Is(err, ErrUnknownCommand):
		status = "unknown"
	case err != nil:
		status = "error"
	}
	s.obs.ObserveCommand(cmd.Kind.String(), status)
	if err != nil {
		s.logger.Debug("voice command rejected", "command", cmd.Kind.String(), "arg", cmd.Arg, "error", err)
	} else {
		s.logger.Info("voice command", "command", cmd.Kind.String(), "arg", cmd.Arg)
	}
	return cmd, err
}

func (s *Session) executeLocked(ctx context.Context, cmd Command) (Command, error) {
	switch cmd.Kind {
	case CommandStartDrawing:
		s.drawing = true
		s.typing = false
		s.path.Clear()

	case CommandStopDrawing:
		s.stopPlaybackLocked()
		s.drawing = false
		s.path.Clear()

	case CommandStartTyping:
		s.typing = true
		s.drawing = false
		s.path.Clear()

	case CommandStopTyping:
		s.typing = false
		s.text = ""

	case CommandClearCanvas:
		s.stopPlaybackLocked()
		s.clearLocked(ctx)

	case CommandTakeScreenshot:
		id, err := s.saveLocked(ctx)
		if err != nil {
			return cmd, err
		}
		cmd.Arg = id
		return cmd, nil

	case CommandDraw:
		if err := s.player.Start(cmd.Arg); err != nil {
			return cmd, err
		}
		s.clearLocked(ctx)
		s.drawing = true
		s.aiDrawing = true
		s.playColor = s.color

	case CommandColor:
		color, err := validation.SanitizeColor(cmd.Arg)
		if err != nil {
			return cmd, fmt.Errorf("%w: %v", ErrInvalidColor, err)
		}
		s.color = color

	default:
		return cmd, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Arg)
	}

	s.emitState(ctx)
	return cmd, nil
}

func (s *Session) clearLocked(ctx context.Context) {
	s.strokes.Clear()
	s.path.Clear()
	s.sink.Clear(ctx)
}

func (s *Session) stopPlaybackLocked() {
	if s.aiDrawing {
		s.player.Cancel()
		s.aiDrawing = false
	}
}

func (s *Session) saveLocked(ctx context.Context) (string, error) {
	if s.saver == nil {
		return "", ErrSnapshotsDisabled
	}
	id, err := s.saver.Save(ctx, storage.Snapshot{
		SessionID: s.id,
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		Segments:  s.strokes.Snapshot(),
	})
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// -----------------------------------------------------------------------------
// Template playback
// -----------------------------------------------------------------------------

// Playing reports whether a template is being drawn.
func (s *Session) Playing() bool {
	return s.player.State() == playback.StatePlaying
}

// Tick draws the next template segment by hand, without the frame clock.
// Returns playback.ErrNotPlaying when nothing is playing.
func (s *Session) Tick(ctx context.Context) (playback.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := s.player.Tick()
	if err != nil {
		return step, err
	}
	s.applyStepLocked(ctx, step)
	return step, nil
}

// Play runs the active template on the frame clock until it finishes, is
// replaced, or ctx ends.
func (s *Session) Play(ctx context.Context) (playback.RunResult, error) {
	driver := playback.NewDriver(s.player,
		playback.WithFPS(s.cfg.PlaybackFPS),
		playback.WithDriverLogger(s.logger),
		playback.WithLocker(&s.mu),
	)
	// The driver holds s.mu across tick and apply, so a command that
	// replaces or stops playback can never be followed by a stale step.
	return driver.Run(ctx, playback.SinkFunc(func(ctx context.Context, step playback.Step) error {
		s.applyStepLocked(ctx, step)
		return nil
	}))
}

func (s *Session) applyStepLocked(ctx context.Context, step playback.Step) {
	seg := step.Segment
	seg.Color = s.playColor
	s.drawLocked(ctx, seg, SourceTemplate)
	if step.Done {
		s.drawing = false
		s.aiDrawing = false
		s.emitState(ctx)
	}
}

// -----------------------------------------------------------------------------
// Keyboard
// -----------------------------------------------------------------------------

// Key handles a key press, named like DOM KeyboardEvent.key ("a", "Enter",
// "Backspace", "Escape"). Returns false when the key was ignored.
//
// # Description
//
// Outside typing mode only "t" or "T" matters: it enters typing mode and
// stops drawing. In typing mode Escape leaves and discards the text,
// Backspace deletes one character, Enter commits the line and any other
// single-character key is appended. A committed line that contains a digit,
// operator or parenthesis is evaluated and shown as "<text> = <result>", or
// as "Error: <message>" when evaluation fails.
func (s *Session) Key(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.typing {
		if key != "t" && key != "T" {
			return false
		}
		s.typing = true
		s.drawing = false
		s.text = ""
		s.path.Clear()
		s.emitState(ctx)
		return true
	}

	switch key {
	case "Escape":
		s.typing = false
		s.text = ""
		s.emitState(ctx)

	case "Backspace":
		if s.text == "" {
			return true
		}
		_, size := utf8.DecodeLastRuneInString(s.text)
		s.text = s.text[:len(s.text)-size]
		s.sink.Text(ctx, s.text, false)

	case "Enter":
		if s.text == "" {
			return true
		}
		line := s.renderLocked(s.text)
		s.text = ""
		s.sink.Text(ctx, line, true)

	default:
		if utf8.RuneCountInString(key) != 1 {
			return false
		}
		s.text += key
		s.sink.Text(ctx, s.text, false)
	}
	return true
}

func (s *Session) renderLocked(text string) string {
	if !validation.LooksLikeMath(text) {
		return text
	}
	v, err := s.evaluator.Evaluate(text)
	if err != nil {
		outcome := "error"
		if kind, ok := expr.KindOf(err); ok {
			outcome = kind.String()
		}
		s.obs.ObserveEvaluation(outcome)
		return "Error: " + err.Error()
	}
	s.obs.ObserveEvaluation("ok")
	return text + " = " + expr.FormatResult(v)
}

// -----------------------------------------------------------------------------
// Speech recognition restarts
// -----------------------------------------------------------------------------

// RecognitionFailed records a recognizer error and returns the restart delay.
func (s *Session) RecognitionFailed() time.Duration {
	return s.backoff.Failure()
}

// RecognitionEnded returns the restart delay after the recognizer stopped
// on its own.
func (s *Session) RecognitionEnded() time.Duration {
	return s.backoff.Delay()
}

// RecognitionStarted records a successful recognizer start.
func (s *Session) RecognitionStarted() {
	s.backoff.Success()
}
