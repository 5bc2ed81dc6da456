// ABOUTME: Dashboard screen wrapper: loads the role summary and refreshes on demand
// ABOUTME: Keeps the dashboard package free of bubbletea message plumbing

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/dashboard"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// summaryLoadedMsg is sent when the dashboard summary is loaded
type summaryLoadedMsg struct {
	summary *dashboard.Summary
	err     error
	at      time.Time
}

type dashboardScreen struct {
	api     dashboard.API
	user    model.User
	view    *dashboard.Dashboard
	err     error
	updated time.Time
}

func newDashboardScreen(api dashboard.API, u model.User, width, height int) *dashboardScreen {
	return &dashboardScreen{api: api, user: u, view: dashboard.New(nil, width, height)}
}

func (d *dashboardScreen) Init() tea.Cmd {
	api, u := d.api, d.user
	return func() tea.Msg {
		s, err := dashboard.Load(context.Background(), api, u)
		return summaryLoadedMsg{summary: s, err: err, at: time.Now()}
	}
}

func (d *dashboardScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		if msg.err != nil {
			d.err = msg.err
			return d, nil
		}
		d.err = nil
		d.updated = msg.at
		d.view.Update(msg.summary)
		return d, nil
	case tea.KeyMsg:
		if msg.String() == "r" {
			return d, d.Init()
		}
	}
	return d, nil
}

func (d *dashboardScreen) SetSize(width, height int) {
	d.view.SetSize(width, height)
}

func (d *dashboardScreen) View() string {
	if d.err != nil {
		return styles.StatusCritical.Render("Error: " + nav.ErrorText(d.err))
	}
	return d.view.View()
}
