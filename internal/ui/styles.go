package ui

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alfredjeanlab/warroom/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent   = 74  // blue
	colorCmd      = 250 // light gray
	colorMuted    = 245 // medium gray
	colorPresence = 114 // green
	colorResource = 179 // amber
	colorHostile  = 167 // red
)

var noColor bool

var titleCaser = cases.Title(language.English)

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderCategory returns s in the color of category c.
func RenderCategory(c model.Category, s string) string {
	switch c {
	case model.CategoryPresence:
		return paint(colorPresence, s)
	case model.CategoryResource:
		return paint(colorResource, s)
	case model.CategoryHostile:
		return paint(colorHostile, s)
	}
	return s
}

// Label turns a stored kind such as "mob-hunting" into "Mob Hunting".
func Label(kind string) string {
	if kind == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(kind, "-", " "))
}

// CategoryTitle is the human name of a category.
func CategoryTitle(c model.Category) string {
	switch c {
	case model.CategoryPresence:
		return "Activity"
	case model.CategoryResource:
		return "Gather Nodes"
	case model.CategoryHostile:
		return "Mob Hits"
	}
	return Label(string(c))
}

// Bar renders n as a horizontal bar scaled so that top fills width cells.
func Bar(n, top, width int) string {
	if n <= 0 || top <= 0 || width <= 0 {
		return ""
	}
	cells := n * width / top
	if cells == 0 {
		cells = 1
	}
	return strings.Repeat("█", cells)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
