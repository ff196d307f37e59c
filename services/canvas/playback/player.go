// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package playback replays templates one segment at a time.
//
// # Description
//
// Player is an explicit state machine (Idle, Playing, Done) that reveals a
// template polyline one segment per Tick. It has no notion of wall-clock
// time; Driver supplies the frame clock.
//
// At most one session is active. Start always replaces the previous session
// so two replays never interleave.
package playback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/templates"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnknownTemplate is returned by Start for a name not in the catalog.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrNotPlaying is returned by Tick when no session is active.
	ErrNotPlaying = errors.New("no active playback")
)

// =============================================================================
// STATE
// =============================================================================

// State is the player lifecycle state.
type State int

const (
	// StateIdle means no session exists, either initially or after Cancel.
	StateIdle State = iota

	// StatePlaying means a session has segments left to emit.
	StatePlaying

	// StateDone means the last session emitted its final segment.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	names := []string{"idle", "playing", "done"}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// IsTerminal returns true when Tick can no longer advance.
func (s State) IsTerminal() bool {
	return s != StatePlaying
}

// =============================================================================
// PLAYER
// =============================================================================

// Lookup resolves template names. Both *templates.Catalog and
// *templates.Registry satisfy it.
type Lookup interface {
	Lookup(name string) (*templates.Template, bool)
}

// Step is the result of one Tick.
type Step struct {
	// Segment runs from point Index-1 to point Index of the template.
	Segment geometry.Segment

	// Index is the template point the segment ends at.
	Index int

	// Done is true when this was the final segment; the caller should clear
	// its drawing flags.
	Done bool
}

// Player drives one template session at a time.
//
// # Thread Safety
//
// Safe for concurrent use. Start, Tick and Cancel are serialized.
type Player struct {
	catalog Lookup

	mu         sync.Mutex
	state      State
	template   *templates.Template
	cursor     int
	generation uint64
}

// NewPlayer returns an idle player that resolves names through catalog.
func NewPlayer(catalog Lookup) *Player {
	return &Player{catalog: catalog}
}

// Start begins replaying the template called name.
//
// # Description
//
// Unknown names return ErrUnknownTemplate and leave any current session
// untouched. Otherwise the current session, if any, is discarded and the new
// one starts with cursor 1, so the first Tick draws point 0 to point 1.
func (p *Player) Start(name string) error {
	t, ok := p.catalog.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	p.StartTemplate(t)
	return nil
}

// StartTemplate begins replaying t directly, bypassing the catalog.
func (p *Player) StartTemplate(t *templates.Template) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.template = t
	p.cursor = 1
	p.state = StatePlaying
	p.generation++
}

// Tick emits the next segment.
//
// Returns ErrNotPlaying in Idle or Done; the state does not change.
func (p *Player) Tick() (Step, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tickLocked()
}

// tickGeneration ticks only if the session is still the one started at gen.
func (p *Player) tickGeneration(gen uint64) (Step, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		return Step{}, ErrNotPlaying
	}
	return p.tickLocked()
}

func (p *Player) tickLocked() (Step, error) {
	if p.state != StatePlaying {
		return Step{}, ErrNotPlaying
	}

	step := Step{
		Segment: geometry.Segment{
			From: p.template.Point(p.cursor - 1),
			To:   p.template.Point(p.cursor),
		},
		Index: p.cursor,
	}
	p.cursor++
	if p.cursor == p.template.Len() {
		p.state = StateDone
		step.Done = true
	}
	return step, nil
}

// Cancel discards any session and returns to Idle. Valid in every state.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateIdle
	p.template = nil
	p.cursor = 0
	p.generation++
}

// State returns the current state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Progress reports the session template name and how many of its segments
// have been emitted. Name is "" when idle.
func (p *Player) Progress() (name string, emitted, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.template == nil {
		return "", 0, 0
	}
	return p.template.Name(), p.cursor - 1, p.template.Segments()
}

func (p *Player) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}
