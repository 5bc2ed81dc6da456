// ABOUTME: Navigation menu overlay listing the screens the current session may open
// ABOUTME: Entries the session cannot render are shown disabled rather than hidden

package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// Logout is the pseudo-route of the logout entry.
const Logout = "logout"

// SelectedMsg is sent when an entry is chosen.
type SelectedMsg struct {
	Route string
}

// CancelledMsg is sent when the menu is dismissed.
type CancelledMsg struct{}

type option struct {
	label   string
	icon    icons.Icon
	route   string
	enabled bool
}

// Menu is the navigation list.
type Menu struct {
	options []option
	cursor  int
}

// New builds the entries for s.
func New(s model.Session) *Menu {
	var opts []option
	add := func(label string, icon icons.Icon, route access.Route) {
		d := access.Check(s, string(route))
		opts = append(opts, option{label: label, icon: icon, route: string(route), enabled: d.Kind == access.Render})
	}

	if s.Authenticated {
		add("Dashboard", icons.App, dashboardRoute(s))
	}
	add("Offers", icons.Offer, access.Offers)
	switch s.Role() {
	case model.RoleIntern:
		add("My applications", icons.Application, access.MyApplications)
		add("My CV", icons.Document, access.CV)
	case model.RoleCompany:
		add("New offer", icons.Offer, access.OfferCreate)
	}
	if s.Authenticated {
		add("Notifications", icons.Bell, access.Notifications)
		opts = append(opts, option{label: "Log out", icon: icons.Quit, route: Logout, enabled: true})
	} else {
		add("Log in", icons.User, access.Login)
		add("Register", icons.User, access.Register)
	}

	m := &Menu{options: opts}
	m.cursor = m.next(-1, 1)
	return m
}

func dashboardRoute(s model.Session) access.Route {
	if r, ok := access.DashboardPath(s.Role()); ok {
		return r
	}
	return access.Dashboard
}

// next returns the first enabled index after from in direction dir, or from
// when there is none.
func (m *Menu) next(from, dir int) int {
	for i := from + dir; i >= 0 && i < len(m.options); i += dir {
		if m.options[i].enabled {
			return i
		}
	}
	if from < 0 {
		return 0
	}
	return from
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		m.cursor = m.next(m.cursor, -1)
	case "down", "j":
		m.cursor = m.next(m.cursor, 1)
	case "enter":
		if m.cursor < len(m.options) && m.options[m.cursor].enabled {
			route := m.options[m.cursor].route
			return m, func() tea.Msg { return SelectedMsg{Route: route} }
		}
	case "esc", "m":
		return m, func() tea.Msg { return CancelledMsg{} }
	}
	return m, nil
}

// View implements tea.Model
func (m *Menu) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(icons.Menu.String() + " Menu"))
	b.WriteString("\n\n")
	disabled := lipgloss.NewStyle().Foreground(styles.Muted).Strikethrough(true)
	for i, opt := range m.options {
		line := opt.icon.String() + " " + opt.label
		switch {
		case !opt.enabled:
			b.WriteString("  " + disabled.Render(line))
		case i == m.cursor:
			b.WriteString(styles.Selected.Render("> " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return styles.Overlay.Render(strings.TrimRight(b.String(), "\n"))
}
