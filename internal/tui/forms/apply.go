// ABOUTME: Application form with the intern's cover letter
// ABOUTME: Emits ApplyMsg for the offer being applied to

package forms

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/placement-cli/internal/model"
)

// ApplyMsg carries a submitted application.
type ApplyMsg struct {
	Input model.ApplicationInput
}

// Apply is the cover letter form.
type Apply struct {
	form    *huh.Form
	offerID int
	desc    string
	letter  string
	confirm bool
	err     string
}

// NewApply creates the form for offer.
func NewApply(offer model.Offer) *Apply {
	a := &Apply{offerID: offer.ID, desc: offer.Title}
	if name := offer.CompanyName(); name != "" {
		a.desc += " at " + name
	}
	a.form = a.build()
	return a
}

func (a *Apply) build() *huh.Form {
	a.confirm = true
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Cover letter").
				Description(a.desc).
				CharLimit(5000).
				Value(&a.letter).
				Validate(required("Cover letter")),
			huh.NewConfirm().
				Title("Send application?").
				Affirmative("Send").
				Negative("Cancel").
				Value(&a.confirm),
		).Title(fmt.Sprintf("Apply to offer #%d", a.offerID)),
	).WithTheme(Theme()).WithShowHelp(false)
}

// SetError shows msg above a fresh form that keeps the letter.
func (a *Apply) SetError(msg string) tea.Cmd {
	a.err = msg
	a.form = a.build()
	return a.form.Init()
}

// Init implements tea.Model
func (a *Apply) Init() tea.Cmd {
	return a.form.Init()
}

// Update implements tea.Model
func (a *Apply) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return a, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd, done := update(a.form, msg)
	a.form = form
	if !done {
		return a, cmd
	}
	if !a.confirm {
		return a, func() tea.Msg { return CancelledMsg{} }
	}
	out := ApplyMsg{Input: model.ApplicationInput{OfferID: a.offerID, CoverLetter: strings.TrimSpace(a.letter)}}
	return a, func() tea.Msg { return out }
}

// View implements tea.Model
func (a *Apply) View() string {
	return errorLine(a.err) + a.form.View()
}
