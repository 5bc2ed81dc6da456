// ABOUTME: Apply screen: the cover letter form plus the submission call
// ABOUTME: Reports completion with DoneMsg so the caller can dismiss it

package applications

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/forms"
	"github.com/markalston/placement-cli/internal/tui/nav"
)

// DoneMsg is sent when the apply screen should close. Applied is false when
// the user cancelled.
type DoneMsg struct {
	Applied bool
}

type appliedMsg struct {
	err error
}

// Apply submits an application for one offer.
type Apply struct {
	api  API
	form *forms.Apply
}

// NewApply creates the screen for offer.
func NewApply(api API, offer model.Offer) *Apply {
	return &Apply{api: api, form: forms.NewApply(offer)}
}

// Init implements tea.Model
func (a *Apply) Init() tea.Cmd {
	return a.form.Init()
}

// Update implements tea.Model
func (a *Apply) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case forms.ApplyMsg:
		api := a.api
		return a, func() tea.Msg {
			_, err := api.Apply(context.Background(), msg.Input)
			return appliedMsg{err: err}
		}
	case forms.CancelledMsg:
		return a, func() tea.Msg { return DoneMsg{} }
	case appliedMsg:
		if msg.err != nil {
			return a, a.form.SetError(nav.ErrorText(msg.err))
		}
		return a, tea.Batch(nav.Info("Application sent"), func() tea.Msg { return DoneMsg{Applied: true} })
	}

	_, cmd := a.form.Update(msg)
	return a, cmd
}

// View implements tea.Model
func (a *Apply) View() string {
	return a.form.View()
}
