// ABOUTME: Header and footer frame drawn around every screen
// ABOUTME: Shows the signed-in user, the unread badge, key hints and the status line

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// statusTTL is how long a status message stays in the footer.
const statusTTL = 10 * time.Second

// frameWidth guards against zero/small width before WindowSizeMsg is received
func (a *App) frameWidth() int {
	return max(minTerminalWidth, a.width)
}

// renderHeader creates the header bar with app branding and the session
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App, titleStyle.Render("Placement"))

	rightText := ""
	switch {
	case a.session.Loading:
		rightText = contextStyle.Render("…") + " "
	case a.session.Authenticated && a.session.User != nil:
		rightText = contextStyle.Render(a.session.User.DisplayName()) +
			lipgloss.NewStyle().Foreground(styles.Muted).Render(" ("+a.session.Role().Label()+")") + " "
		if a.bell != nil {
			rightText += a.bell.Badge() + " "
		}
	default:
		rightText = lipgloss.NewStyle().Foreground(styles.Muted).Render("Guest") + " "
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := max(0, width-4-leftWidth-rightWidth) // -4 for ╭─ and ─╮

	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"
	return borderStyle.Render(header)
}

// shortcuts lists the key hints for the current screen
func (a *App) shortcuts() []string {
	switch {
	case a.menuOv.Visible():
		return []string{"↑↓ Navigate", "Enter Select", "Esc Close"}
	case a.bell != nil && a.bell.Overlay().Visible():
		return []string{"↑↓ Navigate", "Enter Open", "a Read-all", "Esc Close"}
	case a.modal != nil:
		return []string{"Enter Confirm", "Esc Cancel"}
	}

	var keys []string
	switch a.screen {
	case ScreenRecovery:
		return []string{"r Retry", "q Quit"}
	case ScreenLoading:
		return []string{"ctrl+c Quit"}
	case ScreenLogin, ScreenRegister, ScreenOfferEditor:
		return []string{"Enter Next", "Esc Back"}
	case ScreenOffers:
		keys = []string{"Enter Open", "/ Search", "[] Page", "r Refresh"}
	case ScreenOffer:
		keys = []string{"a Apply", "c Applications", "e Edit", "d Delete"}
	case ScreenOfferApplications:
		keys = []string{"a Accept", "x Reject", "o Offer"}
	case ScreenMyApplications:
		keys = []string{"Enter Offer", "w Withdraw"}
	case ScreenDashboard:
		keys = []string{"r Refresh"}
	case ScreenCV:
		keys = []string{"u Upload", "v Download", "d Remove"}
	case ScreenNotifications:
		keys = []string{"Tab Filter", "Enter Open", "x Read", "a Read-all"}
	}
	keys = append(keys, "m Menu")
	if a.bell != nil {
		keys = append(keys, "n Alerts")
	}
	return append(keys, "q Quit")
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	shortcuts := a.shortcuts()
	styled := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styled = append(styled, s)
		}
	}
	leftText := " " + strings.Join(styled, "  ") + " "

	rightText := ""
	if d, ok := a.content.(*dashboardScreen); ok && a.screen == ScreenDashboard && !d.updated.IsZero() {
		rightText = lipgloss.NewStyle().Foreground(styles.Secondary).Render("Updated "+formatTimeSince(d.updated)) + " "
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	if leftWidth+rightWidth > width-4 {
		rightText, rightWidth = "", 0
	}
	fillWidth := max(0, width-4-leftWidth-rightWidth) // -4 for ╰─ and ─╯

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// renderStatus shows the latest status message until it expires
func (a *App) renderStatus() string {
	if a.status.Text == "" || time.Since(a.status.At) > statusTTL {
		return ""
	}
	if a.status.Error {
		return " " + styles.ErrorText.Render(icons.Critical.String()+" "+a.status.Text)
	}
	return " " + styles.SuccessText.Render(icons.CheckOK.String()+" "+a.status.Text)
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header, status line and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	if status := a.renderStatus(); status != "" {
		sb.WriteString(status)
		sb.WriteString("\n")
	}
	sb.WriteString(a.renderFooter())

	return sb.String()
}
