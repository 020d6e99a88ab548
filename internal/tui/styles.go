// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8A317"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})

	// Bar rows are tinted by height: low, mid, high.
	barStyles = [3]lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#E8D317")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A17")),
	}
	peakStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5"))
)

// rowStyle picks the tint for row (0 is the bottom) out of rows.
func rowStyle(row, rows int) lipgloss.Style {
	if rows <= 0 {
		return barStyles[0]
	}
	switch frac := float64(row+1) / float64(rows); {
	case frac > 0.85:
		return barStyles[2]
	case frac > 0.6:
		return barStyles[1]
	default:
		return barStyles[0]
	}
}
