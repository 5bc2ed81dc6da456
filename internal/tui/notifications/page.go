// ABOUTME: Notifications page: tabbed unread/read/all list with mark-as-read actions
// ABOUTME: Runs its own synchronizer so it never shares state with the header bell

package notifications

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/notify"
	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

var tabs = []notify.Filter{notify.FilterUnread, notify.FilterRead, notify.FilterAll}

type loadedMsg struct {
	filter notify.Filter
	items  []model.Notification
	state  notify.ListState
}

type markedMsg struct {
	err error
}

// Page lists notifications for the logged-in user.
type Page struct {
	sync   *notify.Synchronizer
	tab    int
	items  []model.Notification
	state  notify.ListState
	cursor int
	width  int
}

// New creates the page over its own synchronizer.
func New(sync *notify.Synchronizer) *Page {
	return &Page{sync: sync, state: notify.ListLoading}
}

func (p *Page) filter() notify.Filter { return tabs[p.tab] }

// Init implements tea.Model
func (p *Page) Init() tea.Cmd {
	return p.load()
}

func (p *Page) load() tea.Cmd {
	f := p.filter()
	p.state = notify.ListLoading
	return func() tea.Msg {
		items := p.sync.Open(context.Background(), f)
		return loadedMsg{filter: f, items: items, state: p.sync.Snapshot().State}
	}
}

// Update implements tea.Model
func (p *Page) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.filter != p.filter() {
			return p, nil
		}
		p.items = msg.items
		p.state = msg.state
		if p.cursor >= len(p.items) {
			p.cursor = max(0, len(p.items)-1)
		}
		return p, nil

	case markedMsg:
		if msg.err != nil {
			return p, nav.Failure(msg.err)
		}
		return p, tea.Batch(nav.Info("All notifications marked as read"), p.load())

	case tea.KeyMsg:
		return p.updateKeys(msg)
	}
	return p, nil
}

func (p *Page) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "right", "l":
		p.tab = (p.tab + 1) % len(tabs)
		p.cursor = 0
		return p, p.load()
	case "shift+tab", "left", "h":
		p.tab = (p.tab + len(tabs) - 1) % len(tabs)
		p.cursor = 0
		return p, p.load()
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
	case "r":
		return p, p.load()
	case "enter":
		if p.cursor >= len(p.items) {
			return p, nil
		}
		route, ok := p.sync.Activate(context.Background(), p.items[p.cursor])
		p.items = p.sync.Snapshot().Items
		if !ok {
			return p, nil
		}
		return p, nav.To(route)
	case "x":
		if p.cursor >= len(p.items) {
			return p, nil
		}
		p.sync.MarkRead(context.Background(), p.items[p.cursor].ID)
		p.items = p.sync.Snapshot().Items
		if p.cursor >= len(p.items) {
			p.cursor = max(0, len(p.items)-1)
		}
	case "a":
		return p, func() tea.Msg {
			return markedMsg{err: p.sync.MarkAllRead(context.Background())}
		}
	}
	return p, nil
}

// SetWidth updates the render width
func (p *Page) SetWidth(width int) { p.width = width }

// View implements tea.Model
func (p *Page) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Bell.String() + " Notifications"))
	sb.WriteString("\n")

	labels := make([]string, 0, len(tabs))
	for i, f := range tabs {
		label := strings.ToUpper(f.String()[:1]) + f.String()[1:]
		if i == p.tab {
			labels = append(labels, styles.ActiveTab.Render(label))
		} else {
			labels = append(labels, styles.Tab.Render(label))
		}
	}
	sb.WriteString(strings.Join(labels, " "))
	sb.WriteString("\n\n")

	switch {
	case p.state == notify.ListLoading && len(p.items) == 0:
		sb.WriteString(styles.Help.Render("Loading..."))
	case p.state == notify.ListError:
		sb.WriteString(styles.ErrorText.Render("Could not load notifications"))
	case len(p.items) == 0:
		sb.WriteString(styles.Help.Render(fmt.Sprintf("No %s notifications", p.filter())))
	default:
		for i, n := range p.items {
			sb.WriteString(p.renderItem(n, i == p.cursor))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (p *Page) renderItem(n model.Notification, selected bool) string {
	prefix := "  "
	if selected {
		prefix = styles.Selected.Render("> ")
	}
	title := n.Title
	if n.IsRead {
		title = styles.ReadItem.Render(title)
	} else {
		title = styles.UnreadItem.Render(icons.Unread.String() + " " + title)
	}
	line := prefix + title
	if ts := dateOnly(n.CreatedAt); ts != "" {
		line += "  " + styles.Help.UnsetMarginTop().Render(ts)
	}
	if selected && n.Message != "" {
		line += "\n    " + n.Message
	}
	return line
}

func dateOnly(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
