// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the aircanvas CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Aircanvas palette - ink on paper
var (
	ColorInk     = lipgloss.Color("#2CD7C7") // Bright teal - titles, highlights
	ColorStroke  = lipgloss.Color("#20B9B4") // Primary teal - drawn strokes
	ColorBorder  = lipgloss.Color("#16858E") // Deep teal - borders
	ColorSlate   = lipgloss.Color("#2C4A54") // Muted text
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Stroke  lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorInk),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Stroke:  lipgloss.NewStyle().Foreground(ColorStroke),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Output writes CLI messages, styled on a terminal and plain otherwise.
//
// Plain output is line oriented and prefix tagged ("OK:", "WARN:",
// "ERROR:") so scripts can grep it.
type Output struct {
	w      io.Writer
	styled bool
}

// NewOutput writes to w, styling only when w is a terminal.
func NewOutput(w io.Writer) *Output {
	return &Output{w: w, styled: IsTerminal(w)}
}

// NewPlainOutput writes to w without styling.
func NewPlainOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Stdout is an Output on os.Stdout.
func Stdout() *Output {
	return NewOutput(os.Stdout)
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styled reports whether output is styled.
func (o *Output) Styled() bool { return o.styled }

// Writer returns the destination.
func (o *Output) Writer() io.Writer { return o.w }

func (o *Output) render(s lipgloss.Style, text string) string {
	if !o.styled {
		return text
	}
	return s.Render(text)
}

// Title prints a styled title. Plain output prints it as is.
func (o *Output) Title(text string) {
	fmt.Fprintln(o.w, o.render(Styles.Title, text))
}

// Success prints a success message with checkmark
func (o *Output) Success(text string) {
	if !o.styled {
		fmt.Fprintf(o.w, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(o.w, "%s %s\n", Styles.Success.Render(string(IconSuccess)), Styles.Success.Render(text))
}

// Warning prints a warning message
func (o *Output) Warning(text string) {
	if !o.styled {
		fmt.Fprintf(o.w, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(o.w, "%s %s\n", Styles.Warning.Render(string(IconWarning)), Styles.Warning.Render(text))
}

// Error prints an error message
func (o *Output) Error(text string) {
	if !o.styled {
		fmt.Fprintf(o.w, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(o.w, "%s %s\n", Styles.Error.Render(string(IconError)), Styles.Error.Render(text))
}

// Info prints an informational line.
func (o *Output) Info(text string) {
	if !o.styled {
		fmt.Fprintln(o.w, text)
		return
	}
	fmt.Fprintf(o.w, "%s %s\n", Styles.Muted.Render("│"), text)
}

// KeyValue prints "key: value" with the key muted.
func (o *Output) KeyValue(key string, value any) {
	fmt.Fprintf(o.w, "%s %v\n", o.render(Styles.Muted, key+":"), value)
}

// Table prints rows with tab-free column alignment. The first row is the
// header.
func (o *Output) Table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, 0)
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			pad := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if r == 0 {
				pad = o.render(Styles.Bold, pad)
			}
			cells[i] = pad
		}
		fmt.Fprintln(o.w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

// Box prints content in a rounded box under title.
func (o *Output) Box(title, content string) {
	if !o.styled {
		fmt.Fprintf(o.w, "%s\n%s\n", title, content)
		return
	}
	fmt.Fprintln(o.w, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}

// ProgressBar renders a progress bar of width cells.
func (o *Output) ProgressBar(current, total, width int) string {
	if !o.styled || total <= 0 || width <= 0 {
		return fmt.Sprintf("%d/%d", current, total)
	}
	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	bar := Styles.Success.Render(strings.Repeat("█", filled)) +
		Styles.Muted.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}
