// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/playback"
	"github.com/AleutianAI/aircanvas/services/canvas/session"
	"github.com/AleutianAI/aircanvas/services/canvas/shape"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsReadLimit    = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Client message types.
const (
	MsgPoint       = "point"
	MsgLandmark    = "landmark"
	MsgCommand     = "command"
	MsgKey         = "key"
	MsgColor       = "color"
	MsgTick        = "tick"
	MsgRecognition = "recognition"
)

// Server event types.
const (
	EventSession   = "session"
	EventSegment   = "segment"
	EventDetection = "detection"
	EventText      = "text"
	EventClear     = "clear"
	EventState     = "state"
	EventCommand   = "command"
	EventRestart   = "restart"
	EventError     = "error"
)

// WSMessage is one client message. Which fields matter depends on Type:
// point and landmark use X and Y, command uses Text, key uses Key, color uses
// Color and recognition uses Event ("start", "end" or "error").
type WSMessage struct {
	Type  string  `json:"type"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Text  string  `json:"text,omitempty"`
	Key   string  `json:"key,omitempty"`
	Color string  `json:"color,omitempty"`
	Event string  `json:"event,omitempty"`
}

// WSEvent is one server event.
type WSEvent struct {
	Type      string                `json:"type"`
	SessionID string                `json:"session_id,omitempty"`
	Width     int                   `json:"width,omitempty"`
	Height    int                   `json:"height,omitempty"`
	Templates []string              `json:"templates,omitempty"`
	Segment   *geometry.Segment     `json:"segment,omitempty"`
	Source    string                `json:"source,omitempty"`
	Shape     string                `json:"shape,omitempty"`
	Box       *geometry.BoundingBox `json:"bbox,omitempty"`
	Text      string                `json:"text,omitempty"`
	Final     bool                  `json:"final,omitempty"`
	State     *session.Status       `json:"state,omitempty"`
	Command   string                `json:"command,omitempty"`
	Arg       string                `json:"arg,omitempty"`
	Status    string                `json:"status,omitempty"`
	DelayMS   int64                 `json:"delay_ms,omitempty"`
	Error     string                `json:"error,omitempty"`
	Kind      string                `json:"kind,omitempty"`
}

// wsConn serializes writes; the read loop and playback goroutine both write.
type wsConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) sendJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	err := c.ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// wsSink renders session output as WebSocket events.
type wsSink struct {
	conn *wsConn
}

var _ session.Sink = (*wsSink)(nil)

func (k *wsSink) Segment(_ context.Context, seg geometry.Segment, src session.Source) {
	_ = k.conn.sendJSON(WSEvent{Type: EventSegment, Segment: &seg, Source: src.String()})
}

func (k *wsSink) Detection(_ context.Context, res shape.Result) {
	box := res.Box
	_ = k.conn.sendJSON(WSEvent{Type: EventDetection, Shape: res.Shape.String(), Box: &box})
}

func (k *wsSink) Text(_ context.Context, text string, final bool) {
	_ = k.conn.sendJSON(WSEvent{Type: EventText, Text: text, Final: final})
}

func (k *wsSink) Clear(context.Context) {
	_ = k.conn.sendJSON(WSEvent{Type: EventClear})
}

func (k *wsSink) State(_ context.Context, st session.Status) {
	_ = k.conn.sendJSON(WSEvent{Type: EventState, State: &st})
}

// HandleSessionWebSocket runs one live canvas session per connection.
//
// # Description
//
// On connect the server sends a "session" event with the session ID, canvas
// size and template names. Each client message is applied to the Session;
// the Session's output streams back as events. "draw <name>" starts
// server-side playback on the frame clock; a later draw, stop drawing or
// clear canvas replaces or cancels it.
//
// The connection closes when the client leaves or the server shuts down.
func (s *Server) HandleSessionWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()
		ws.SetReadLimit(wsReadLimit)

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		go func() {
			<-ctx.Done()
			_ = ws.Close()
		}()

		conn := &wsConn{ws: ws}
		opts := []session.Option{
			session.WithID(uuid.New().String()),
			session.WithSink(&wsSink{conn: conn}),
			session.WithObserver(s.metrics),
			session.WithLogger(s.logger),
		}
		if s.snapshots != nil {
			opts = append(opts, session.WithSnapshotSaver(s.snapshots))
		}
		sess := session.New(s.cfg.Session, s.registry, opts...)
		logger := s.logger.With("session_id", sess.ID())

		s.metrics.SessionOpened()
		defer s.metrics.SessionClosed()
		logger.Info("Canvas session started")

		cfg := sess.Config()
		if err := conn.sendJSON(WSEvent{
			Type:      EventSession,
			SessionID: sess.ID(),
			Width:     cfg.Width,
			Height:    cfg.Height,
			Templates: s.registry.Catalog().Names(),
		}); err != nil {
			return
		}
		st := sess.Status()
		if err := conn.sendJSON(WSEvent{Type: EventState, State: &st}); err != nil {
			return
		}

		lc := &liveSession{
			server: s,
			sess:   sess,
			conn:   conn,
			logger: logger,
		}
		defer lc.stopPlayback()

		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				logger.Info("Canvas session disconnected", "error", err.Error())
				return
			}
			if err := lc.handle(ctx, msg); err != nil {
				return
			}
		}
	}
}

// liveSession is the per-connection state around a Session.
type liveSession struct {
	server *Server
	sess   *session.Session
	conn   *wsConn
	logger *slog.Logger

	mu         sync.Mutex
	playCancel context.CancelFunc
	wg         sync.WaitGroup
}

// handle applies one message. A returned error ends the connection.
func (l *liveSession) handle(ctx context.Context, msg WSMessage) error {
	switch msg.Type {
	case MsgPoint:
		l.sess.Pointer(ctx, geometry.Point{X: msg.X, Y: msg.Y})

	case MsgLandmark:
		l.sess.Landmark(ctx, msg.X, msg.Y)

	case MsgKey:
		l.sess.Key(ctx, msg.Key)

	case MsgColor:
		if err := l.sess.SetColor(ctx, msg.Color); err != nil {
			return l.conn.sendJSON(WSEvent{Type: EventError, Error: err.Error()})
		}

	case MsgCommand:
		return l.command(ctx, msg.Text)

	case MsgTick:
		if _, err := l.sess.Tick(ctx); err != nil {
			return l.conn.sendJSON(WSEvent{Type: EventError, Error: err.Error()})
		}

	case MsgRecognition:
		return l.recognition(msg.Event)

	default:
		return l.conn.sendJSON(WSEvent{Type: EventError, Error: "unknown message type: " + msg.Type})
	}
	return nil
}

func (l *liveSession) command(ctx context.Context, transcript string) error {
	cmd, err := l.sess.Command(ctx, transcript)
	ev := WSEvent{Type: EventCommand, Command: cmd.Kind.String(), Arg: cmd.Arg, Status: "ok"}
	switch {
	case err == nil:
	case errors.Is(err, session.ErrDebounced):
		ev.Status = "debounced"
	case errors.Is(err, session.ErrUnknownCommand):
		ev.Status = "unknown"
	default:
		ev.Status = "error"
		ev.Error = err.Error()
		switch {
		case errors.Is(err, playback.ErrUnknownTemplate):
			ev.Kind = "unknown_template"
		case errors.Is(err, session.ErrInvalidColor):
			ev.Kind = "invalid_color"
		case errors.Is(err, session.ErrSnapshotsDisabled):
			ev.Kind = "snapshots_disabled"
		}
	}
	if err := l.conn.sendJSON(ev); err != nil {
		return err
	}

	if err == nil && cmd.Kind == session.CommandDraw {
		l.startPlayback(ctx)
	}
	return nil
}

func (l *liveSession) recognition(event string) error {
	var delay time.Duration
	switch event {
	case "start":
		l.sess.RecognitionStarted()
		return nil
	case "end":
		delay = l.sess.RecognitionEnded()
	case "error":
		delay = l.sess.RecognitionFailed()
	default:
		return l.conn.sendJSON(WSEvent{Type: EventError, Error: "unknown recognition event: " + event})
	}
	return l.conn.sendJSON(WSEvent{Type: EventRestart, DelayMS: delay.Milliseconds()})
}

// startPlayback runs the newly started template on the frame clock. A run
// already in flight sees the player generation change and stops by itself;
// its context is cancelled as well so it does not wait out a frame.
func (l *liveSession) startPlayback(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.playCancel != nil {
		l.playCancel()
	}
	playCtx, cancel := context.WithCancel(ctx)
	l.playCancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		res, err := l.sess.Play(playCtx)
		if res.Segments > 0 {
			l.server.metrics.ObservePlayback(res.Template, res.Completed, res.Elapsed)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Warn("Template playback failed", "template", res.Template, "error", err)
			return
		}
		l.logger.Debug("Template playback ended",
			"template", res.Template,
			"segments", res.Segments,
			"completed", res.Completed)
	}()
}

func (l *liveSession) stopPlayback() {
	l.mu.Lock()
	if l.playCancel != nil {
		l.playCancel()
		l.playCancel = nil
	}
	l.mu.Unlock()
	l.wg.Wait()
}
