// ABOUTME: Application screens: review for an offer, an intern's own list, and applying
// ABOUTME: Tables are built with bubbles/table; decisions reload the list

package applications

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/styles"
	"github.com/markalston/placement-cli/internal/tui/widgets"
)

// API is the backend surface the application screens use.
type API interface {
	ApplicationsForOffer(ctx context.Context, offerID int) (model.Page[model.Application], error)
	MyApplications(ctx context.Context) (model.Page[model.Application], error)
	AcceptApplication(ctx context.Context, id int) (*model.Application, error)
	RejectApplication(ctx context.Context, id int) (*model.Application, error)
	WithdrawApplication(ctx context.Context, id int) error
	Apply(ctx context.Context, in model.ApplicationInput) (*model.Application, error)
}

type loadedMsg struct {
	page model.Page[model.Application]
	err  error
}

type actionMsg struct {
	done string
	err  error
}


// base holds what both tables share.
type base struct {
	api     API
	table   table.Model
	items   []model.Application
	loading bool
	err     string
	width   int
	height  int
}

func newBase(api API, cols []table.Column) base {
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(10))
	t.SetStyles(styles.Table())
	return base{api: api, table: t, loading: true}
}

func (b *base) selected() (model.Application, bool) {
	i := b.table.Cursor()
	if i < 0 || i >= len(b.items) {
		return model.Application{}, false
	}
	return b.items[i], true
}

func (b *base) setSize(width, height int) {
	b.width = width
	b.height = height
	b.table.SetWidth(width)
	b.table.SetHeight(max(3, height-10))
}

func (b *base) loaded(msg loadedMsg, toRow func(model.Application) table.Row) {
	b.loading = false
	if msg.err != nil {
		b.err = nav.ErrorText(msg.err)
		return
	}
	b.err = ""
	b.items = msg.page.Results
	rows := make([]table.Row, 0, len(b.items))
	for _, a := range b.items {
		rows = append(rows, toRow(a))
	}
	b.table.SetRows(rows)
}

func (b *base) body(empty string) string {
	switch {
	case b.loading && len(b.items) == 0:
		return styles.Help.Render("Loading applications...")
	case b.err != "":
		return styles.ErrorText.Render("Error: " + b.err)
	case len(b.items) == 0:
		return styles.Help.Render(empty)
	default:
		return b.table.View()
	}
}

func applicantName(a model.Application) string {
	if a.Applicant == nil {
		return ""
	}
	return strings.TrimSpace(a.Applicant.FirstName + " " + a.Applicant.LastName)
}

func offerTitle(a model.Application) string {
	if a.Offer == nil {
		return ""
	}
	return a.Offer.Title
}

func dateOnly(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// ForOffer lists the applications received for one offer.
type ForOffer struct {
	base
	offerID int
}

// NewForOffer creates the review screen for offerID.
func NewForOffer(api API, offerID int) *ForOffer {
	return &ForOffer{
		base: newBase(api, []table.Column{
			{Title: "ID", Width: 5},
			{Title: "Applicant", Width: 24},
			{Title: "Email", Width: 26},
			{Title: "Domain", Width: 14},
			{Title: "Applied", Width: 10},
			{Title: "Status", Width: 10},
		}),
		offerID: offerID,
	}
}

// Init implements tea.Model
func (f *ForOffer) Init() tea.Cmd {
	api, id := f.api, f.offerID
	return func() tea.Msg {
		page, err := api.ApplicationsForOffer(context.Background(), id)
		return loadedMsg{page: page, err: err}
	}
}

// Update implements tea.Model
func (f *ForOffer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		f.loaded(msg, func(a model.Application) table.Row {
			email, domain := "", ""
			if a.Applicant != nil {
				email, domain = a.Applicant.Email(), a.Applicant.Domain
			}
			return table.Row{strconv.Itoa(a.ID), applicantName(a), email, domain, dateOnly(a.AppliedAt), a.Status.Label()}
		})
		return f, nil

	case actionMsg:
		if msg.err != nil {
			return f, nav.Failure(msg.err)
		}
		return f, tea.Batch(nav.Info(msg.done), f.Init())

	case tea.KeyMsg:
		switch msg.String() {
		case "a":
			return f, f.decide(true)
		case "x":
			return f, f.decide(false)
		case "r":
			return f, f.Init()
		case "o":
			return f, nav.To(access.OfferPath(f.offerID))
		}
	}

	var cmd tea.Cmd
	f.table, cmd = f.table.Update(msg)
	return f, cmd
}

func (f *ForOffer) decide(accept bool) tea.Cmd {
	a, ok := f.selected()
	if !ok {
		return nil
	}
	if a.Status != model.StatusPending {
		return nav.Failure(fmt.Errorf("application #%d is already %s", a.ID, strings.ToLower(a.Status.Label())))
	}
	api := f.api
	return func() tea.Msg {
		ctx := context.Background()
		if accept {
			_, err := api.AcceptApplication(ctx, a.ID)
			return actionMsg{done: fmt.Sprintf("Application #%d accepted", a.ID), err: err}
		}
		_, err := api.RejectApplication(ctx, a.ID)
		return actionMsg{done: fmt.Sprintf("Application #%d rejected", a.ID), err: err}
	}
}

// SetSize updates the dimensions
func (f *ForOffer) SetSize(width, height int) { f.setSize(width, height) }

// View implements tea.Model
func (f *ForOffer) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(fmt.Sprintf("%s Applications for offer #%d", icons.Application, f.offerID)))
	sb.WriteString("\n\n")
	sb.WriteString(f.body("No applications yet"))

	if a, ok := f.selected(); ok && f.err == "" {
		sb.WriteString("\n\n")
		sb.WriteString(widgets.ApplicationBadge(a.Status))
		sb.WriteString(" ")
		sb.WriteString(styles.Subtitle.Render("Cover letter"))
		sb.WriteString("\n")
		letter := a.CoverLetter
		if letter == "" {
			letter = "(none)"
		}
		sb.WriteString(lipgloss.NewStyle().Width(max(40, f.width-2)).Render(letter))
	}
	return sb.String()
}

// Mine lists the logged-in intern's applications.
type Mine struct {
	base
	confirm bool
}

// NewMine creates the intern's application list.
func NewMine(api API) *Mine {
	return &Mine{base: newBase(api, []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Offer", Width: 30},
		{Title: "Company", Width: 20},
		{Title: "Applied", Width: 10},
		{Title: "Status", Width: 10},
	})}
}

// Init implements tea.Model
func (m *Mine) Init() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		page, err := api.MyApplications(context.Background())
		return loadedMsg{page: page, err: err}
	}
}

// Update implements tea.Model
func (m *Mine) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loaded(msg, func(a model.Application) table.Row {
			company := ""
			if a.Offer != nil {
				company = a.Offer.CompanyName()
			}
			return table.Row{strconv.Itoa(a.ID), offerTitle(a), company, dateOnly(a.AppliedAt), a.Status.Label()}
		})
		return m, nil

	case actionMsg:
		if msg.err != nil {
			return m, nav.Failure(msg.err)
		}
		return m, tea.Batch(nav.Info(msg.done), m.Init())

	case tea.KeyMsg:
		if m.confirm {
			m.confirm = false
			if msg.String() == "y" {
				return m, m.withdraw()
			}
			return m, nil
		}
		switch msg.String() {
		case "enter":
			if a, ok := m.selected(); ok && a.Offer != nil {
				return m, nav.To(access.OfferPath(a.Offer.ID))
			}
			return m, nil
		case "w":
			if _, ok := m.selected(); ok {
				m.confirm = true
			}
			return m, nil
		case "r":
			return m, m.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Mine) withdraw() tea.Cmd {
	a, ok := m.selected()
	if !ok {
		return nil
	}
	api := m.api
	return func() tea.Msg {
		err := api.WithdrawApplication(context.Background(), a.ID)
		return actionMsg{done: fmt.Sprintf("Application #%d withdrawn", a.ID), err: err}
	}
}

// Confirming reports whether a withdrawal is waiting for y/n.
func (m *Mine) Confirming() bool { return m.confirm }

// SetSize updates the dimensions
func (m *Mine) SetSize(width, height int) { m.setSize(width, height) }

// View implements tea.Model
func (m *Mine) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Application.String() + " My applications"))
	sb.WriteString("\n\n")
	sb.WriteString(m.body("You have not applied to any offer yet"))
	if m.confirm {
		if a, ok := m.selected(); ok {
			sb.WriteString("\n\n")
			sb.WriteString(styles.StatusWarning.Render(fmt.Sprintf("Withdraw application #%d? y to confirm", a.ID)))
		}
	}
	return sb.String()
}
