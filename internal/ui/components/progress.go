package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders playback position or download completion as a bar
type ProgressBar struct {
	Width       int
	Current     time.Duration
	Total       time.Duration
	BarChar     string
	EmptyChar   string
	ShowTime    bool
	Style       lipgloss.Style
	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
}

// NewProgressBar creates a new progress bar
func NewProgressBar(width int) ProgressBar {
	return ProgressBar{
		Width:       width,
		BarChar:     "█",
		EmptyChar:   "░",
		ShowTime:    true,
		Style:       lipgloss.NewStyle(),
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetProgress sets the current playback position
func (p *ProgressBar) SetProgress(current, total time.Duration) {
	p.Current = current
	p.Total = total
}

// View renders the position bar with a MM:SS / MM:SS suffix
func (p ProgressBar) View() string {
	var percent float64
	if p.Total > 0 {
		percent = float64(p.Current) / float64(p.Total)
	}

	var sb strings.Builder
	sb.WriteString(p.renderBar(percent, p.Width-14))
	if p.ShowTime {
		sb.WriteString(" ")
		sb.WriteString(formatDuration(p.Current))
		sb.WriteString("/")
		sb.WriteString(formatDuration(p.Total))
	}
	return p.Style.Render(sb.String())
}

// ViewFraction renders a completion bar for a 0..1 fraction, suffixed
// with a percentage. Used while a track is still downloading.
func (p ProgressBar) ViewFraction(fraction float64) string {
	var sb strings.Builder
	sb.WriteString(p.renderBar(fraction, p.Width-6))
	sb.WriteString(fmt.Sprintf(" %3.0f%%", clamp01(fraction)*100))
	return p.Style.Render(sb.String())
}

func (p ProgressBar) renderBar(percent float64, barWidth int) string {
	percent = clamp01(percent)
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int(float64(barWidth) * percent)
	empty := barWidth - filled

	var sb strings.Builder
	sb.WriteString(p.FilledStyle.Render(strings.Repeat(p.BarChar, filled)))
	sb.WriteString(p.EmptyStyle.Render(strings.Repeat(p.EmptyChar, empty)))
	return sb.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// formatDuration formats a duration as MM:SS
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d", m, s)
}
