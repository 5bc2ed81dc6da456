// ABOUTME: Status badge widgets for quick visual status indication
// ABOUTME: Maps application and offer states to colored inline badges

package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/icons"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeInfoBg    = lipgloss.Color("#3B82F6")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
)

func levelColors(level StatusLevel) (bg, fg lipgloss.Color) {
	switch level {
	case StatusOK:
		return BadgeOKBg, lipgloss.Color("#FFFFFF")
	case StatusWarning:
		return BadgeWarnBg, lipgloss.Color("#000000")
	case StatusCritical:
		return BadgeCritBg, lipgloss.Color("#FFFFFF")
	case StatusInfo:
		return BadgeInfoBg, lipgloss.Color("#FFFFFF")
	default:
		return BadgeNeutralBg, lipgloss.Color("#FFFFFF")
	}
}

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	bg, fg := levelColors(level)
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// ApplicationLevel maps an application status to a badge level.
func ApplicationLevel(s model.ApplicationStatus) StatusLevel {
	switch s {
	case model.StatusAccepted:
		return StatusOK
	case model.StatusRejected:
		return StatusCritical
	case model.StatusPending:
		return StatusWarning
	default:
		return StatusNeutral
	}
}

// ApplicationBadge renders an application's status.
func ApplicationBadge(s model.ApplicationStatus) string {
	return Badge(s.Label(), ApplicationLevel(s))
}

// OfferBadge summarizes whether an offer can still receive applications.
func OfferBadge(o model.Offer) string {
	switch {
	case !o.Active:
		return Badge("Inactive", StatusNeutral)
	case o.Expired:
		return Badge("Expired", StatusCritical)
	case o.Full:
		return Badge("Full", StatusWarning)
	default:
		return Badge("Open", StatusOK)
	}
}

// StatusIcon returns the appropriate icon for a status level
func StatusIcon(level StatusLevel) string {
	bg, _ := levelColors(level)
	style := lipgloss.NewStyle().Foreground(bg)
	switch level {
	case StatusOK:
		return style.Render(icons.CheckOK.String())
	case StatusWarning:
		return style.Render(icons.Warning.String())
	case StatusCritical:
		return style.Render(icons.Critical.String())
	case StatusInfo:
		return style.Render(icons.Info.String())
	default:
		return style.Render("•")
	}
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	bg, _ := levelColors(level)
	return fmt.Sprintf("%s %s", StatusIcon(level), lipgloss.NewStyle().Foreground(bg).Render(text))
}

// UnreadBadge renders the bell counter. Counts above 99 are capped.
func UnreadBadge(n int) string {
	if n <= 0 {
		return icons.Bell.String()
	}
	label := fmt.Sprintf("%d", n)
	if n > 99 {
		label = "99+"
	}
	return icons.BellActive.String() + " " + Badge(label, StatusCritical)
}
