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
	"sync"
	"time"
)

// Default recognition restart delays.
const (
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 30 * time.Second
)

// Backoff computes the delay before restarting speech recognition.
//
// The delay is min(2^attempts * base, max). Failures raise attempts by one;
// a successful restart lowers it by one, never below zero, so a flapping
// recognizer settles at a moderate delay instead of resetting to zero.
//
// # Thread Safety
//
// Safe for concurrent use.
type Backoff struct {
	base time.Duration
	max  time.Duration

	mu       sync.Mutex
	attempts int
}

// NewBackoff creates a policy. Non-positive arguments take the defaults.
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max}
}

// Delay returns the delay for the current attempt count.
func (b *Backoff) Delay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.delayLocked()
}

// Failure records a failed start and returns the next delay.
func (b *Backoff) Failure() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	return b.delayLocked()
}

// Success records a successful start.
func (b *Backoff) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attempts > 0 {
		b.attempts--
	}
}

// Attempts returns the current attempt count.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

func (b *Backoff) delayLocked() time.Duration {
	d := b.base
	for i := 0; i < b.attempts; i++ {
		d *= 2
		if d >= b.max {
			return b.max
		}
	}
	return d
}
