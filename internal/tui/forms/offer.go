// ABOUTME: Offer form used to create and edit internship offers
// ABOUTME: Checks the input locally before emitting OfferMsg

package forms

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// OfferMsg carries a submitted offer. ID is zero for a new offer.
type OfferMsg struct {
	ID    int
	Input model.OfferInput
}

// Offer is the create/edit form.
type Offer struct {
	form  *huh.Form
	id    int
	admin bool
	now   func() time.Time
	err   string
	width int

	in    model.OfferInput
	slots string
}

// NewOffer creates a form for a new offer.
func NewOffer() *Offer {
	o := &Offer{
		now:   time.Now,
		in:    model.OfferInput{Type: model.TypeFinalProject, Active: true},
		slots: "1",
	}
	o.form = o.build()
	return o
}

// EditOffer creates a form prefilled from existing. Admins may keep past
// dates.
func EditOffer(existing model.Offer, admin bool) *Offer {
	o := &Offer{
		id:    existing.ID,
		admin: admin,
		now:   time.Now,
		in:    model.InputFromOffer(existing),
		slots: strconv.Itoa(existing.Slots),
	}
	o.form = o.build()
	return o
}

func validateSlots(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateDate(optional bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if optional {
				return nil
			}
			return fmt.Errorf("date is required")
		}
		if _, err := time.Parse(model.DateLayout, s); err != nil {
			return fmt.Errorf("expected YYYY-MM-DD")
		}
		return nil
	}
}

func (o *Offer) build() *huh.Form {
	types := make([]huh.Option[model.InternshipType], 0, len(model.InternshipTypes))
	for _, t := range model.InternshipTypes {
		types = append(types, huh.NewOption(string(t), t))
	}

	title := "New offer"
	if o.id != 0 {
		title = fmt.Sprintf("Edit offer #%d", o.id)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&o.in.Title).Validate(required("Title")),
			huh.NewSelect[model.InternshipType]().Title("Type").Options(types...).Value(&o.in.Type),
			huh.NewInput().Title("Domain").Value(&o.in.Domain).Validate(required("Domain")),
			huh.NewInput().Title("City").Value(&o.in.City).Validate(required("City")),
		).Title(title),
		huh.NewGroup(
			huh.NewText().Title("Description").Value(&o.in.Description).Validate(required("Description")),
			huh.NewInput().Title("Required skills").Value(&o.in.RequiredSkills),
			huh.NewInput().Title("Pay").Value(&o.in.Pay),
		).Title("Details"),
		huh.NewGroup(
			huh.NewInput().Title("Duration").Placeholder("6 mois").Value(&o.in.Duration).Validate(required("Duration")),
			huh.NewInput().Title("Start date").Placeholder(model.DateLayout).Value(&o.in.StartDate).Validate(validateDate(false)),
			huh.NewInput().Title("Application deadline").Placeholder("optional").Value(&o.in.Deadline).Validate(validateDate(true)),
			huh.NewInput().Title("Slots").CharLimit(4).Value(&o.slots).Validate(validateSlots),
			huh.NewConfirm().Title("Published").Value(&o.in.Active),
		).Title("Schedule"),
	).WithTheme(Theme()).WithShowHelp(false)
}

// Input returns the offer as currently filled in.
func (o *Offer) Input() model.OfferInput {
	in := o.in
	in.Slots, _ = strconv.Atoi(strings.TrimSpace(o.slots))
	in.Title = strings.TrimSpace(in.Title)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.Deadline = strings.TrimSpace(in.Deadline)
	return in
}

// SetError shows msg and restarts the form with the values kept.
func (o *Offer) SetError(msg string) tea.Cmd {
	o.err = msg
	o.form = o.build()
	return o.form.Init()
}

// Init implements tea.Model
func (o *Offer) Init() tea.Cmd {
	return o.form.Init()
}

// Update implements tea.Model
func (o *Offer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return o, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd, done := update(o.form, msg)
	o.form = form
	if !done {
		return o, cmd
	}

	in := o.Input()
	if err := in.Validate(o.now(), o.admin); err != nil {
		return o, o.SetError(err.Error())
	}
	out := OfferMsg{ID: o.id, Input: in}
	return o, func() tea.Msg { return out }
}

// SetWidth sets the rendering width.
func (o *Offer) SetWidth(width int) {
	o.width = width
}

// View implements tea.Model
func (o *Offer) View() string {
	return styles.Help.Render("enter next field  esc cancel") + "\n\n" + errorLine(o.err) + o.form.View()
}
