package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avelko/driftfm/api"
)

// View renders the player screen
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.titleStyle.Render("driftfm"))
	sb.WriteString("\n\n")

	switch m.now.State {
	case api.StateLoading:
		sb.WriteString(m.loadingStyle.Render("fetching track..."))
		sb.WriteString("\n")
		sb.WriteString(m.progressBar.ViewFraction(m.player.DownloadProgress()))
		sb.WriteString("\n")

	case api.StatePlaying:
		sb.WriteString(m.statusStyle.Render(m.stateIcon() + " " + m.now.Info.Name))
		sb.WriteString("\n")
		bar := m.progressBar
		bar.SetProgress(m.player.Position(), m.now.Info.Duration)
		sb.WriteString(bar.View())
		sb.WriteString("\n")

	default:
		sb.WriteString(m.loadingStyle.Render("starting up..."))
		sb.WriteString("\n\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderVolumeBar())
	sb.WriteString(fmt.Sprintf("  buffered: %d", m.buffered))
	sb.WriteString("\n")

	if m.notice != "" {
		sb.WriteString(m.noticeStyle.Render(m.notice))
		sb.WriteString("\n")
	}

	sb.WriteString(m.controlsStyle.Render(m.controlsHelp()))

	box := m.borderStyle.Width(min(m.width-4, 76)).Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) stateIcon() string {
	if m.paused {
		return "⏸"
	}
	return "▶"
}

// renderVolumeBar draws the volume as ten dots
func (m Model) renderVolumeBar() string {
	level := int(m.volume*10 + 0.5)
	if level > 10 {
		level = 10
	}
	var sb strings.Builder
	sb.WriteString("vol ")
	for i := 0; i < 10; i++ {
		if i < level {
			sb.WriteString("●")
		} else {
			sb.WriteString("○")
		}
	}
	sb.WriteString(fmt.Sprintf(" %3.0f%%", m.volume*100))
	return sb.String()
}

func (m Model) controlsHelp() string {
	k := m.keys
	pp := k.PlayPause
	if pp == " " {
		pp = "space"
	}
	return fmt.Sprintf("%s play/pause • %s skip • %s/%s volume • %s bookmark • %s quit",
		pp, k.Next, k.VolumeUp, k.VolumeDown, k.Bookmark, k.Quit)
}
