// ABOUTME: Compact metric block widget for dashboard displays
// ABOUTME: Combines icon, value, and an optional fill bar in a bordered panel

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/tui/icons"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       22,
		BorderColor: lipgloss.Color("#6B7280"),
		TitleColor:  lipgloss.Color("#7C3AED"),
		ValueColor:  lipgloss.Color("#F9FAFB"),
	}
}

func topBorder(icon icons.Icon, title string, config MetricBlockConfig) string {
	innerWidth := config.Width - 4
	titleStr := truncate(fmt.Sprintf("%s %s", icon.String(), title), innerWidth)
	titleStyle := lipgloss.NewStyle().Foreground(config.TitleColor)
	return fmt.Sprintf("┌─ %s %s┐",
		titleStyle.Render(titleStr),
		strings.Repeat("─", max(0, innerWidth-lipgloss.Width(titleStr)-1)))
}

func line(content string, innerWidth int) string {
	pad := max(0, innerWidth-lipgloss.Width(content))
	return fmt.Sprintf("│  %s%s│", content, strings.Repeat(" ", pad))
}

// MetricBlock renders a compact metric display block
func MetricBlock(icon icons.Icon, title, value, subtitle string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = 22
	}
	innerWidth := config.Width - 4

	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	borderStyle := lipgloss.NewStyle().Foreground(config.BorderColor)

	return strings.Join([]string{
		borderStyle.Render(topBorder(icon, title, config)),
		borderStyle.Render(line(valueStyle.Render(truncate(value, innerWidth)), innerWidth)),
		borderStyle.Render(line(subtitleStyle.Render(truncate(subtitle, innerWidth)), innerWidth)),
		borderStyle.Render(fmt.Sprintf("└%s┘", strings.Repeat("─", config.Width-2))),
	}, "\n")
}

// MetricBlockWithBar renders a metric block with a fill bar. A full bar is
// shown in the warning color.
func MetricBlockWithBar(icon icons.Icon, title string, percent float64, details string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = 22
	}
	innerWidth := config.Width - 4
	barWidth := innerWidth - 6

	color := lipgloss.Color("#10B981")
	if percent >= 100 {
		color = lipgloss.Color("#F59E0B")
	}

	percentStr := lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%3.0f%%", percent))
	detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	borderStyle := lipgloss.NewStyle().Foreground(config.BorderColor)

	return strings.Join([]string{
		borderStyle.Render(topBorder(icon, title, config)),
		borderStyle.Render(line(percentStr, innerWidth)),
		borderStyle.Render(line(CompactProgressBar(percent, barWidth, color), innerWidth)),
		borderStyle.Render(line(detailStyle.Render(truncate(details, innerWidth)), innerWidth)),
		borderStyle.Render(fmt.Sprintf("└%s┘", strings.Repeat("─", config.Width-2))),
	}, "\n")
}

// CountBlock renders a simple count metric
func CountBlock(icon icons.Icon, title string, count int, label string, config MetricBlockConfig) string {
	return MetricBlock(icon, title, fmt.Sprintf("%d", count), label, config)
}

// truncate shortens a string to maxLen runes with ellipsis if needed
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
