package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"ojclient/internal/cli/api"
)

const (
	DefaultTruncate = 100
	maxOutput       = 1000
)

// ExecutionTime renders milliseconds as "45ms" below one second and "1.23s" above.
func ExecutionTime(ms float64) string {
	if ms < 1000 {
		return strconv.FormatFloat(ms, 'f', -1, 64) + "ms"
	}
	return fmt.Sprintf("%.2fs", ms/1000)
}

// Memory renders megabytes.
func Memory(mb float64) string {
	return strconv.FormatFloat(mb, 'f', -1, 64) + " MB"
}

// Truncate cuts text to max runes and appends "...".
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}

// Output caps program output at 1000 characters.
func Output(out string) string {
	r := []rune(out)
	if len(r) <= maxOutput {
		return out
	}
	return string(r[:maxOutput]) + "\n... (truncated)"
}

// DateTime matches "Jan 2, 2026, 03:04 PM" in local time.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 2, 2006, 03:04 PM")
}

// Ago renders t relative to now, e.g. "3 hours ago".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func Percent(n int) string { return strconv.Itoa(n) + "%" }

// Palette colours statuses and difficulties. A disabled palette returns text unchanged.
type Palette struct {
	enabled bool
	green   *color.Color
	red     *color.Color
	yellow  *color.Color
	gray    *color.Color
	bold    *color.Color
}

func NewPalette(enabled bool) Palette {
	p := Palette{
		enabled: enabled,
		green:   color.New(color.FgGreen),
		red:     color.New(color.FgRed),
		yellow:  color.New(color.FgYellow),
		gray:    color.New(color.FgHiBlack),
		bold:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.green, p.red, p.yellow, p.gray, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p Palette) Status(s api.Status) string {
	label := s.Label()
	switch s {
	case api.StatusAccepted:
		return p.green.Sprint(label)
	case api.StatusWrongAnswer:
		return p.red.Sprint(label)
	case api.StatusPending, api.StatusRunning, api.StatusSubmitting:
		return p.yellow.Sprint(label)
	}
	return p.gray.Sprint(label)
}

func (p Palette) Difficulty(d api.Difficulty) string {
	switch strings.ToUpper(string(d)) {
	case string(api.DifficultyEasy):
		return p.green.Sprint(d.Label())
	case string(api.DifficultyMedium):
		return p.yellow.Sprint(d.Label())
	case string(api.DifficultyHard):
		return p.red.Sprint(d.Label())
	}
	return p.gray.Sprint(d.Label())
}

func (p Palette) Bold(s string) string  { return p.bold.Sprint(s) }
func (p Palette) Error(s string) string { return p.red.Sprint(s) }
