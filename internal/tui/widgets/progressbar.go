// ABOUTME: Progress bars for slot occupancy and similar ratios
// ABOUTME: Renders compact block-character bars with lipgloss colors

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CompactProgressBar renders a minimal progress bar for tight spaces
func CompactProgressBar(percent float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}
	percent = min(max(percent, 0), 100)

	filled := int(percent / 100.0 * float64(width))
	empty := width - filled

	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")).Render(strings.Repeat("░", empty))
}

// SlotsBar renders taken/total slots as a bar followed by the count.
func SlotsBar(taken, total, width int) string {
	if total <= 0 {
		return fmt.Sprintf("%s 0/0", CompactProgressBar(0, width, lipgloss.Color("#6B7280")))
	}
	percent := float64(taken) / float64(total) * 100
	color := lipgloss.Color("#10B981")
	if taken >= total {
		color = lipgloss.Color("#F59E0B")
	}
	return fmt.Sprintf("%s %d/%d", CompactProgressBar(percent, width, color), taken, total)
}
