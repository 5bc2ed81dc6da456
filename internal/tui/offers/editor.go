// ABOUTME: Offer editor screen wrapping the offer form
// ABOUTME: Loads the offer when editing and saves through the API

package offers

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/forms"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// EditorAPI is what the editor needs to save offers.
type EditorAPI interface {
	GetOffer(ctx context.Context, id int) (*model.Offer, error)
	CreateOffer(ctx context.Context, in model.OfferInput) (*model.Offer, error)
	UpdateOffer(ctx context.Context, id int, in model.OfferInput) (*model.Offer, error)
}

type savedMsg struct {
	offer *model.Offer
	err   error
}

// Editor creates or edits one offer.
type Editor struct {
	api   EditorAPI
	id    int
	admin bool
	form  *forms.Offer
	err   string
	width int
}

// NewEditor creates an editor. id zero creates a new offer.
func NewEditor(api EditorAPI, id int, admin bool) *Editor {
	e := &Editor{api: api, id: id, admin: admin}
	if id == 0 {
		e.form = forms.NewOffer()
	}
	return e
}

// Init implements tea.Model
func (e *Editor) Init() tea.Cmd {
	if e.form != nil {
		return e.form.Init()
	}
	api, id := e.api, e.id
	return func() tea.Msg {
		o, err := api.GetOffer(context.Background(), id)
		return detailLoadedMsg{offer: o, err: err}
	}
}

// Update implements tea.Model
func (e *Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		if msg.err != nil {
			e.err = nav.ErrorText(msg.err)
			return e, nil
		}
		e.form = forms.EditOffer(*msg.offer, e.admin)
		e.form.SetWidth(e.width)
		return e, e.form.Init()

	case forms.OfferMsg:
		return e, e.save(msg)

	case forms.CancelledMsg:
		return e, nav.Back()

	case savedMsg:
		if msg.err != nil {
			return e, e.form.SetError(nav.ErrorText(msg.err))
		}
		return e, tea.Batch(nav.Info("Offer saved"), nav.To(access.OfferPath(msg.offer.ID)))
	}

	if e.form == nil {
		return e, nil
	}
	_, cmd := e.form.Update(msg)
	return e, cmd
}

func (e *Editor) save(msg forms.OfferMsg) tea.Cmd {
	api := e.api
	return func() tea.Msg {
		ctx := context.Background()
		var (
			o   *model.Offer
			err error
		)
		if msg.ID == 0 {
			o, err = api.CreateOffer(ctx, msg.Input)
		} else {
			o, err = api.UpdateOffer(ctx, msg.ID, msg.Input)
		}
		return savedMsg{offer: o, err: err}
	}
}

// SetWidth sets the rendering width.
func (e *Editor) SetWidth(width int) {
	e.width = width
	if e.form != nil {
		e.form.SetWidth(width)
	}
}

// View implements tea.Model
func (e *Editor) View() string {
	if e.err != "" {
		return styles.ErrorText.Render("Error: " + e.err)
	}
	if e.form == nil {
		return styles.Help.Render("Loading offer...")
	}
	return e.form.View()
}
