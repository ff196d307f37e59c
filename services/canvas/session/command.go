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

import "strings"

// CommandKind identifies a voice command.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandStartDrawing
	CommandStopDrawing
	CommandStartTyping
	CommandStopTyping
	CommandClearCanvas
	CommandTakeScreenshot
	CommandDraw
	CommandColor
)

// String returns the metric label for the command.
func (k CommandKind) String() string {
	names := []string{
		"unknown", "start_drawing", "stop_drawing", "start_typing",
		"stop_typing", "clear_canvas", "take_screenshot", "draw", "color",
	}
	if int(k) >= 0 && int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Command is a parsed voice transcript.
type Command struct {
	Kind CommandKind

	// Arg is the template name for draw, the color for color, and the
	// snapshot ID after a successful take screenshot.
	Arg string
}

var fixedCommands = map[string]CommandKind{
	"start drawing":   CommandStartDrawing,
	"stop drawing":    CommandStopDrawing,
	"start typing":    CommandStartTyping,
	"stop typing":     CommandStopTyping,
	"clear canvas":    CommandClearCanvas,
	"take screenshot": CommandTakeScreenshot,
}

// ParseCommand normalizes a transcript and identifies the command.
// Matching is exact after trimming and lower-casing.
func ParseCommand(transcript string) Command {
	text := strings.ToLower(strings.TrimSpace(transcript))
	if kind, ok := fixedCommands[text]; ok {
		return Command{Kind: kind}
	}
	if name, ok := strings.CutPrefix(text, "draw "); ok && strings.TrimSpace(name) != "" {
		return Command{Kind: CommandDraw, Arg: strings.TrimSpace(name)}
	}
	if name, ok := strings.CutPrefix(text, "color "); ok && strings.TrimSpace(name) != "" {
		return Command{Kind: CommandColor, Arg: strings.TrimSpace(name)}
	}
	return Command{Kind: CommandUnknown, Arg: text}
}
