// Package render draws timeline snapshots as styled terminal text.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pkt.systems/montage/schema"
)

var (
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")).PaddingRight(1)
	videoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	audioStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	playheadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	rulerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	emptyCell     = "·"
	clipCell      = "█"
	playheadCell  = "┃"
)

// Timeline renders each track as one lane of cells, a playhead column, and
// a seconds ruler underneath. width is the lane width in cells.
func Timeline(snap schema.TimelineSnapshot, rate int, playhead schema.Frame, width int) string {
	if width < 10 {
		width = 10
	}
	total := snap.TotalFrames
	if total < 1 {
		total = 1
	}
	// Frames per cell, rounded up so the whole timeline always fits.
	step := (total + schema.Frame(width) - 1) / schema.Frame(width)
	playheadCol := int(playhead / step)
	if playheadCol >= width {
		playheadCol = width - 1
	}

	var b strings.Builder
	for _, track := range snap.Tracks {
		b.WriteString(labelStyle.Render(trackLabel(track)))
		b.WriteString(laneRow(snap, track.Index, step, width, playheadCol))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("  "))
	b.WriteString(rulerRow(rate, step, width))
	b.WriteString("\n")
	return b.String()
}

func trackLabel(track schema.Track) string {
	kind := "V"
	if track.Kind == schema.TrackAudio {
		kind = "A"
	}
	if track.Muted {
		kind = strings.ToLower(kind)
	}
	return fmt.Sprintf("%s%d", kind, track.Index)
}

func laneRow(snap schema.TimelineSnapshot, track int, step schema.Frame, width, playheadCol int) string {
	var b strings.Builder
	for col := 0; col < width; col++ {
		from := schema.Frame(col) * step
		to := from + step
		cell, style := cellAt(snap, track, from, to)
		if col == playheadCol {
			b.WriteString(playheadStyle.Render(playheadCell))
			continue
		}
		b.WriteString(style.Render(cell))
	}
	return b.String()
}

func cellAt(snap schema.TimelineSnapshot, track int, from, to schema.Frame) (string, lipgloss.Style) {
	for _, clip := range snap.Clips {
		if clip.Track != track || !clip.Overlaps(from, to) {
			continue
		}
		style := videoStyle
		if track < len(snap.Tracks) {
			if snap.Tracks[track].Kind == schema.TrackAudio {
				style = audioStyle
			}
			if snap.Tracks[track].Muted {
				style = mutedStyle
			}
		}
		if clip.ID == snap.Selected {
			style = selectedStyle
		}
		return clipCell, style
	}
	return emptyCell, rulerStyle
}

func rulerRow(rate int, step schema.Frame, width int) string {
	if rate < 1 {
		rate = 1
	}
	r := schema.Frame(rate)
	var b strings.Builder
	for col := 0; col < width; col++ {
		from := schema.Frame(col) * step
		// Next whole-second boundary at or after this cell's first frame.
		next := (from + r - 1) / r * r
		if next < from+step {
			b.WriteString(rulerStyle.Render("|"))
			continue
		}
		b.WriteString(rulerStyle.Render("-"))
	}
	return b.String()
}
