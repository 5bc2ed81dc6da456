// ABOUTME: Offer list screen: a searchable, paginated table of internship offers
// ABOUTME: Companies can switch between all offers and their own

package offers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// API is the backend surface the offer screens use.
type API interface {
	ListOffers(ctx context.Context, f model.OfferFilter) (model.Page[model.Offer], error)
	MyOffers(ctx context.Context) (model.Page[model.Offer], error)
	GetOffer(ctx context.Context, id int) (*model.Offer, error)
	DeleteOffer(ctx context.Context, id int) error
}

type listLoadedMsg struct {
	page model.Page[model.Offer]
	err  error
}

// List is the offer table.
type List struct {
	api    API
	role   model.Role
	filter model.OfferFilter
	mine   bool

	table     table.Model
	search    textinput.Model
	searching bool
	page      model.Page[model.Offer]
	loading   bool
	err       string
	width     int
	height    int
}

var listColumns = []table.Column{
	{Title: "ID", Width: 5},
	{Title: "Title", Width: 28},
	{Title: "Company", Width: 18},
	{Title: "City", Width: 12},
	{Title: "Type", Width: 16},
	{Title: "Start", Width: 10},
	{Title: "Slots", Width: 6},
	{Title: "State", Width: 9},
}

// NewList creates the list for role. Companies start on their own offers.
func NewList(api API, role model.Role) *List {
	t := table.New(
		table.WithColumns(listColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(styles.Table())

	search := textinput.New()
	search.Placeholder = "title, skills, company..."
	search.Prompt = "/ "
	search.CharLimit = 80

	return &List{
		api:     api,
		role:    role,
		mine:    role == model.RoleCompany,
		filter:  model.OfferFilter{Page: 1},
		table:   t,
		search:  search,
		loading: true,
	}
}


// Init implements tea.Model
func (l *List) Init() tea.Cmd {
	return l.load()
}

func (l *List) load() tea.Cmd {
	l.loading = true
	api, mine, filter := l.api, l.mine, l.filter
	return func() tea.Msg {
		ctx := context.Background()
		var (
			page model.Page[model.Offer]
			err  error
		)
		if mine {
			page, err = api.MyOffers(ctx)
		} else {
			page, err = api.ListOffers(ctx, filter)
		}
		return listLoadedMsg{page: page, err: err}
	}
}

// Update implements tea.Model
func (l *List) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		l.loading = false
		if msg.err != nil {
			l.err = nav.ErrorText(msg.err)
			return l, nil
		}
		l.err = ""
		l.page = msg.page
		l.table.SetRows(rows(msg.page.Results))
		return l, nil

	case tea.KeyMsg:
		if l.searching {
			return l.updateSearch(msg)
		}
		return l.updateKeys(msg)
	}
	return l, nil
}

func (l *List) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		l.searching = false
		l.search.Blur()
		l.filter.Search = strings.TrimSpace(l.search.Value())
		l.filter.Page = 1
		l.mine = false
		return l, l.load()
	case "esc":
		l.searching = false
		l.search.Blur()
		return l, nil
	}
	var cmd tea.Cmd
	l.search, cmd = l.search.Update(msg)
	return l, cmd
}

func (l *List) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if id, ok := l.selectedID(); ok {
			return l, nav.To(access.OfferPath(id))
		}
		return l, nil
	case "/":
		l.searching = true
		l.search.Focus()
		return l, textinput.Blink
	case "r":
		return l, l.load()
	case "o":
		if l.role == model.RoleCompany {
			l.mine = !l.mine
			return l, l.load()
		}
	case "c":
		if l.role == model.RoleCompany {
			return l, nav.To(string(access.OfferCreate))
		}
	case "]", "pgdown":
		if !l.mine && l.page.Next != nil {
			l.filter.Page++
			return l, l.load()
		}
	case "[", "pgup":
		if !l.mine && l.page.Previous != nil && l.filter.Page > 1 {
			l.filter.Page--
			return l, l.load()
		}
	}

	var cmd tea.Cmd
	l.table, cmd = l.table.Update(msg)
	return l, cmd
}

// Searching reports whether the search box has focus, so global keys stay
// with the list.
func (l *List) Searching() bool { return l.searching }

func (l *List) selectedID() (int, bool) {
	row := l.table.SelectedRow()
	if row == nil {
		return 0, false
	}
	id, err := strconv.Atoi(row[0])
	return id, err == nil
}

func rows(offers []model.Offer) []table.Row {
	out := make([]table.Row, 0, len(offers))
	for _, o := range offers {
		out = append(out, table.Row{
			strconv.Itoa(o.ID),
			o.Title,
			o.CompanyName(),
			o.City,
			string(o.Type),
			o.StartDate,
			fmt.Sprintf("%d/%d", o.SlotsTaken, o.Slots),
			o.State(),
		})
	}
	return out
}

// SetSize updates the list dimensions
func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.table.SetWidth(width)
	l.table.SetHeight(max(3, height-6))
}

// View implements tea.Model
func (l *List) View() string {
	var sb strings.Builder

	title := icons.Offer.String() + " Offers"
	if l.mine {
		title = icons.Offer.String() + " My offers"
	}
	sb.WriteString(styles.Title.Render(title))
	if l.filter.Search != "" && !l.mine {
		sb.WriteString(styles.Help.Render(fmt.Sprintf("  matching %q", l.filter.Search)))
	}
	sb.WriteString("\n")

	if l.searching {
		sb.WriteString(l.search.View())
	}
	sb.WriteString("\n")

	switch {
	case l.loading && len(l.page.Results) == 0:
		sb.WriteString(styles.Help.Render("Loading offers..."))
	case l.err != "":
		sb.WriteString(styles.ErrorText.Render("Error: " + l.err))
	case len(l.page.Results) == 0:
		sb.WriteString(styles.Help.Render("No offers found"))
	default:
		sb.WriteString(l.table.View())
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render(l.pageInfo()))
	}
	return sb.String()
}

func (l *List) pageInfo() string {
	if l.mine {
		return fmt.Sprintf("%d offers", len(l.page.Results))
	}
	info := fmt.Sprintf("Page %d · %d offers", l.filter.Page, l.page.Count)
	if l.page.Next != nil {
		info += " · ] next"
	}
	if l.page.Previous != nil {
		info += " · [ previous"
	}
	return info
}
