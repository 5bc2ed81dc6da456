// ABOUTME: Notification bell: header badge plus a popover of unread notifications
// ABOUTME: Owns its own synchronizer and closes the popover before navigating

package bell

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/notify"
	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/overlay"
	"github.com/markalston/placement-cli/internal/tui/styles"
	"github.com/markalston/placement-cli/internal/tui/widgets"
)

// ID names the bell overlay in overlay.ClosedMsg.
const ID = "bell"

// UpdateMsg carries a synchronizer snapshot into the Update loop.
type UpdateMsg struct {
	Snapshot notify.Snapshot
}

type listLoadedMsg struct {
	items []model.Notification
	state notify.ListState
}

type markedAllMsg struct {
	err error
}

// Bell is the header notification indicator.
type Bell struct {
	sync      *notify.Synchronizer
	ov        *overlay.Overlay
	unread    int
	items     []model.Notification
	state     notify.ListState
	cursor    int
	listening bool
}

// New creates a bell over sync.
func New(sync *notify.Synchronizer) *Bell {
	return &Bell{sync: sync, ov: overlay.New(ID)}
}

// Overlay exposes the popover state machine.
func (b *Bell) Overlay() *overlay.Overlay { return b.ov }

// Unread returns the count shown on the badge.
func (b *Bell) Unread() int { return b.unread }

// Mount starts polling and listening for updates.
func (b *Bell) Mount(ctx context.Context) tea.Cmd {
	b.sync.Mount(ctx)
	return b.listen()
}

// Unmount stops polling and hides the popover.
func (b *Bell) Unmount() {
	b.sync.Unmount()
	b.ov.Close()
	b.ov.Settle()
	b.unread = 0
	b.items = nil
}

func (b *Bell) listen() tea.Cmd {
	if b.listening {
		return nil
	}
	b.listening = true
	ch := b.sync.Updates()
	return func() tea.Msg {
		return UpdateMsg{Snapshot: <-ch}
	}
}

// Toggle opens the popover and loads unread notifications, or closes it.
func (b *Bell) Toggle() tea.Cmd {
	if b.ov.Visible() {
		return b.ov.Close()
	}
	b.ov.Open()
	b.cursor = 0
	b.state = notify.ListLoading
	return b.load()
}

func (b *Bell) load() tea.Cmd {
	return func() tea.Msg {
		items := b.sync.Open(context.Background(), notify.FilterUnread)
		return listLoadedMsg{items: items, state: b.sync.Snapshot().State}
	}
}

// Update handles bell messages, and keys while the popover is open.
func (b *Bell) Update(msg tea.Msg) (*Bell, tea.Cmd) {
	switch msg := msg.(type) {
	case UpdateMsg:
		b.listening = false
		b.unread = msg.Snapshot.Unread
		if !msg.Snapshot.Mounted {
			return b, nil
		}
		return b, b.listen()

	case listLoadedMsg:
		b.items = msg.items
		b.state = msg.state
		if b.cursor >= len(b.items) {
			b.cursor = max(0, len(b.items)-1)
		}
		return b, nil

	case markedAllMsg:
		if msg.err != nil {
			return b, nav.Failure(msg.err)
		}
		b.items = nil
		b.cursor = 0
		b.unread = b.sync.Unread()
		return b, nil

	case tea.KeyMsg:
		if !b.ov.Visible() {
			return b, nil
		}
		return b.updateKeys(msg)
	}
	return b, nil
}

func (b *Bell) updateKeys(msg tea.KeyMsg) (*Bell, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}
	case "down", "j":
		if b.cursor < len(b.items)-1 {
			b.cursor++
		}
	case "enter":
		if b.cursor >= len(b.items) {
			return b, nil
		}
		route, ok := b.sync.Activate(context.Background(), b.items[b.cursor])
		b.unread = b.sync.Unread()
		if !ok {
			route = ""
		}
		return b, b.ov.CloseThen(route)
	case "a":
		return b, func() tea.Msg {
			return markedAllMsg{err: b.sync.MarkAllRead(context.Background())}
		}
	case "esc", "n":
		return b, b.ov.Close()
	}
	return b, nil
}

// Badge renders the header indicator.
func (b *Bell) Badge() string {
	return widgets.UnreadBadge(b.unread)
}

// View renders the popover.
func (b *Bell) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(fmt.Sprintf("%s Notifications (%d unread)", icons.Bell, b.unread)))
	sb.WriteString("\n\n")

	switch {
	case b.state == notify.ListLoading:
		sb.WriteString(styles.Help.Render("Loading..."))
	case b.state == notify.ListError:
		sb.WriteString(styles.ErrorText.Render("Could not load notifications"))
	case len(b.items) == 0:
		sb.WriteString(styles.Help.Render("No unread notifications"))
	default:
		for i, n := range b.items {
			line := n.Title
			if n.IsRead {
				line = styles.ReadItem.Render(line)
			} else {
				line = styles.UnreadItem.Render(icons.Unread.String() + " " + line)
			}
			if i == b.cursor {
				line = styles.Selected.Render("> ") + line
			} else {
				line = "  " + line
			}
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(styles.Help.Render("enter open  a mark all read  esc close"))
	return styles.Overlay.Render(sb.String())
}
