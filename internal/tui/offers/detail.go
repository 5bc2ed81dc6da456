// ABOUTME: Offer detail screen showing the offer beside its availability
// ABOUTME: Offers apply, review, edit and delete actions according to role

package offers

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/styles"
	"github.com/markalston/placement-cli/internal/tui/widgets"
)

// ApplyRequestedMsg asks the root model to open the application form.
type ApplyRequestedMsg struct {
	Offer model.Offer
}

type detailLoadedMsg struct {
	offer *model.Offer
	err   error
}

type deletedMsg struct {
	err error
}

// Detail displays one offer.
type Detail struct {
	api      API
	id       int
	session  model.Session
	offer    *model.Offer
	err      string
	confirm  bool
	deleting bool
	width    int
}

// NewDetail creates the detail screen for offer id as seen by s.
func NewDetail(api API, id int, s model.Session) *Detail {
	return &Detail{api: api, id: id, session: s}
}

// Init implements tea.Model
func (d *Detail) Init() tea.Cmd {
	api, id := d.api, d.id
	return func() tea.Msg {
		o, err := api.GetOffer(context.Background(), id)
		return detailLoadedMsg{offer: o, err: err}
	}
}

// Offer returns the loaded offer, or nil.
func (d *Detail) Offer() *model.Offer { return d.offer }

func (d *Detail) owns() bool {
	if d.offer == nil {
		return false
	}
	switch u := d.session.User.(type) {
	case model.AdminUser:
		return true
	case model.CompanyUser:
		return d.offer.Company != nil && d.offer.Company.ID == u.Profile.ID
	default:
		return false
	}
}

func (d *Detail) canApply() bool {
	return d.offer != nil && d.session.Role() == model.RoleIntern && d.offer.State() == "open"
}

// Update implements tea.Model
func (d *Detail) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		if msg.err != nil {
			d.err = nav.ErrorText(msg.err)
			return d, nil
		}
		d.offer = msg.offer
		return d, nil

	case deletedMsg:
		d.deleting = false
		if msg.err != nil {
			return d, nav.Failure(msg.err)
		}
		return d, tea.Batch(nav.Info("Offer deleted"), nav.To(string(access.Offers)))

	case tea.KeyMsg:
		if d.confirm {
			d.confirm = false
			if msg.String() == "y" {
				d.deleting = true
				api, id := d.api, d.id
				return d, func() tea.Msg {
					return deletedMsg{err: api.DeleteOffer(context.Background(), id)}
				}
			}
			return d, nil
		}
		return d.updateKeys(msg)
	}
	return d, nil
}

func (d *Detail) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		if d.canApply() {
			offer := *d.offer
			return d, func() tea.Msg { return ApplyRequestedMsg{Offer: offer} }
		}
	case "c":
		if d.owns() {
			return d, nav.To(access.OfferApplicationsPath(d.id))
		}
	case "e":
		if d.owns() {
			return d, nav.To(access.OfferEditPath(d.id))
		}
	case "d":
		if d.owns() {
			d.confirm = true
		}
	case "r":
		return d, d.Init()
	}
	return d, nil
}

// Confirming reports whether a delete confirmation is waiting for y/n.
func (d *Detail) Confirming() bool { return d.confirm }

// SetWidth sets the rendering width.
func (d *Detail) SetWidth(width int) {
	d.width = width
}

// View implements tea.Model
func (d *Detail) View() string {
	if d.err != "" {
		return styles.ErrorText.Render("Error: " + d.err)
	}
	if d.offer == nil {
		return styles.Help.Render("Loading offer...")
	}
	o := d.offer

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(fmt.Sprintf("%s %s", icons.Offer, o.Title)))
	sb.WriteString("  ")
	sb.WriteString(widgets.OfferBadge(*o))
	sb.WriteString("\n\n")

	colWidth := max(30, (d.width-4)/2)
	left := lipgloss.NewStyle().Width(colWidth).Render(d.renderInfo(o))
	right := lipgloss.NewStyle().Width(colWidth).Render(d.renderAvailability(o))
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	sb.WriteString("\n\n")

	sb.WriteString(styles.Subtitle.Render("Description"))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Width(max(40, d.width-2)).Render(o.Description))
	sb.WriteString("\n")

	if o.RequiredSkills != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.Subtitle.Render("Required skills"))
		sb.WriteString("\n")
		sb.WriteString(o.RequiredSkills)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case d.confirm:
		sb.WriteString(styles.StatusWarning.Render(fmt.Sprintf("Delete offer #%d? y to confirm, any other key to cancel", o.ID)))
	case d.deleting:
		sb.WriteString(styles.Help.Render("Deleting..."))
	default:
		sb.WriteString(styles.Help.Render(d.actions()))
	}
	return sb.String()
}

func (d *Detail) renderInfo(o *model.Offer) string {
	var sb strings.Builder
	sb.WriteString(styles.Subtitle.Render("Offer"))
	sb.WriteString("\n")
	row := func(k, v string) {
		if v == "" {
			return
		}
		sb.WriteString(styles.KeyStyle.Render(fmt.Sprintf("%-10s", k)))
		sb.WriteString(styles.ValueStyle.Render(v))
		sb.WriteString("\n")
	}
	row("Company", o.CompanyName())
	row("Type", string(o.Type))
	row("Domain", o.Domain)
	row("City", o.City)
	row("Duration", o.Duration)
	row("Start", o.StartDate)
	row("Pay", o.Pay)
	return sb.String()
}

func (d *Detail) renderAvailability(o *model.Offer) string {
	var sb strings.Builder
	sb.WriteString(styles.Subtitle.Render("Availability"))
	sb.WriteString("\n")
	sb.WriteString(icons.Slots.String() + " " + widgets.SlotsBar(o.SlotsTaken, o.Slots, 14))
	sb.WriteString("\n")
	if o.Deadline != "" {
		sb.WriteString(fmt.Sprintf("Apply by %s\n", o.Deadline))
	}
	if o.CreatedAt != "" {
		sb.WriteString(styles.Help.Render("Published " + dateOnly(o.CreatedAt)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (d *Detail) actions() string {
	var keys []string
	if d.canApply() {
		keys = append(keys, "a apply")
	}
	if d.owns() {
		keys = append(keys, "c applications", "e edit", "d delete")
	}
	keys = append(keys, "r refresh")
	return strings.Join(keys, "  ")
}

func dateOnly(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
