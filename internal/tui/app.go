// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Routes paths through the access gate and hosts the bell and menu overlays

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/client"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/notify"
	"github.com/markalston/placement-cli/internal/session"
	"github.com/markalston/placement-cli/internal/tui/applications"
	"github.com/markalston/placement-cli/internal/tui/bell"
	"github.com/markalston/placement-cli/internal/tui/cv"
	"github.com/markalston/placement-cli/internal/tui/forms"
	"github.com/markalston/placement-cli/internal/tui/menu"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/notifications"
	"github.com/markalston/placement-cli/internal/tui/offers"
	"github.com/markalston/placement-cli/internal/tui/overlay"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenOffers
	ScreenOffer
	ScreenOfferEditor
	ScreenOfferApplications
	ScreenMyApplications
	ScreenDashboard
	ScreenCV
	ScreenNotifications
	ScreenLogin
	ScreenRegister
	ScreenRecovery
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before clamping the frame
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
	maxRedirects     = 5
)

const menuID = "menu"

// Options configures the TUI.
type Options struct {
	Session      *session.Manager
	API          *client.Client
	PollInterval time.Duration
	ConfigDir    string
}

// sessionChangedMsg is sent after the session manager reports a change
type sessionChangedMsg struct{}

// initializedMsg is sent when session initialization finishes
type initializedMsg struct{}

// loggedInMsg carries the outcome of a login or registration
type loggedInMsg struct {
	result   session.Result
	register bool
}

// App is the root model for the TUI
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	mgr    *session.Manager
	api    *client.Client

	session model.Session
	path    string
	history []string
	screen  Screen
	content tea.Model
	modal   *applications.Apply
	width   int
	height  int

	spinner   spinner.Model
	bell      *bell.Bell
	menu      *menu.Menu
	menuOv    *overlay.Overlay
	status    nav.StatusMsg
	lastEmail string
	crashed   string

	changes     chan struct{}
	unsubscribe func()
}

// New creates the TUI application. The session starts resolving on Init.
func New(opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		ctx:     ctx,
		cancel:  cancel,
		opts:    opts,
		mgr:     opts.Session,
		api:     opts.API,
		path:    string(access.Home),
		screen:  ScreenLoading,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Accent))),
		menuOv:  overlay.New(menuID),
		changes: make(chan struct{}, 1),
	}
	a.session = a.mgr.Snapshot()
	a.unsubscribe = a.mgr.OnChange(func(model.Session) {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	})
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.initialize(), a.waitForSession())
}

func (a *App) initialize() tea.Cmd {
	mgr, ctx := a.mgr, a.ctx
	return func() tea.Msg {
		mgr.Initialize(ctx)
		return initializedMsg{}
	}
}

func (a *App) waitForSession() tea.Cmd {
	ch := a.changes
	return func() tea.Msg {
		<-ch
		return sessionChangedMsg{}
	}
}

// Close stops background work. Safe to call more than once.
func (a *App) Close() {
	if a.bell != nil {
		a.bell.Unmount()
		a.bell = nil
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.cancel()
}

// Update implements tea.Model. A panic in a screen replaces the UI with a
// recovery screen instead of killing the terminal.
func (a *App) Update(msg tea.Msg) (m tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic", "panic", r, "stack", string(debug.Stack()))
			a.crashed = fmt.Sprint(r)
			a.screen = ScreenRecovery
			a.content = nil
			a.modal = nil
			m, cmd = a, nil
			if _, ok := msg.(sessionChangedMsg); ok {
				cmd = a.waitForSession()
			}
		}
	}()

	if a.crashed != "" {
		return a.updateRecovery(msg)
	}
	return a.update(msg)
}

func (a *App) updateRecovery(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			slog.Info("Retrying after panic")
			a.crashed = ""
			a.screen = ScreenLoading
			return a, tea.Batch(a.spinner.Tick, a.initialize())
		case "q", "ctrl+c":
			return a, tea.Quit
		}
	case sessionChangedMsg:
		a.session = a.mgr.Snapshot()
		return a, a.waitForSession()
	}
	return a, nil
}

func (a *App) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case spinner.TickMsg:
		if a.screen != ScreenLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sessionChangedMsg:
		return a, tea.Batch(a.sessionChanged(), a.waitForSession())

	case initializedMsg:
		return a, a.sessionChanged()

	case nav.NavigateMsg:
		return a, a.navigate(msg.Path, true)

	case nav.BackMsg:
		return a, a.back()

	case nav.StatusMsg:
		a.status = msg
		return a, nil

	case overlay.ClosedMsg:
		return a, a.settle(msg.ID)

	case bell.UpdateMsg:
		if a.bell == nil {
			return a, nil
		}
		var cmd tea.Cmd
		a.bell, cmd = a.bell.Update(msg)
		return a, cmd

	case menu.SelectedMsg:
		if msg.Route == menu.Logout {
			a.menuOv.Close()
			a.menuOv.Settle()
			return a, a.logout()
		}
		return a, a.menuOv.CloseThen(msg.Route)

	case menu.CancelledMsg:
		return a, a.menuOv.Close()

	case forms.LoginMsg:
		a.lastEmail = msg.Email
		mgr, ctx := a.mgr, a.ctx
		return a, func() tea.Msg {
			return loggedInMsg{result: mgr.Login(ctx, msg.Email, msg.Password)}
		}

	case forms.RegisterMsg:
		mgr, ctx := a.mgr, a.ctx
		return a, func() tea.Msg {
			return loggedInMsg{result: mgr.Register(ctx, msg.Form), register: true}
		}

	case loggedInMsg:
		return a, a.loggedIn(msg)

	case forms.CancelledMsg:
		if a.modal != nil {
			break
		}
		if a.screen == ScreenLogin || a.screen == ScreenRegister {
			return a, a.back()
		}

	case offers.ApplyRequestedMsg:
		a.modal = applications.NewApply(a.api, msg.Offer)
		return a, a.modal.Init()

	case applications.DoneMsg:
		a.modal = nil
		if msg.Applied {
			return a, nav.To(string(access.MyApplications))
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}

	var bellCmd tea.Cmd
	if a.bell != nil {
		a.bell, bellCmd = a.bell.Update(msg)
	}
	return a, tea.Batch(bellCmd, a.forward(msg))
}

// forward sends msg to the modal when one is open, otherwise to the screen.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	if a.modal != nil {
		_, cmd := a.modal.Update(msg)
		return cmd
	}
	if a.content == nil {
		return nil
	}
	var cmd tea.Cmd
	a.content, cmd = a.content.Update(msg)
	return cmd
}

func (a *App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.menuOv.Visible() {
		_, cmd := a.menu.Update(msg)
		return a, cmd
	}
	if a.bell != nil && a.bell.Overlay().Visible() {
		var cmd tea.Cmd
		a.bell, cmd = a.bell.Update(msg)
		return a, cmd
	}
	if a.capturing() {
		return a, a.forward(msg)
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "m":
		a.menu = menu.New(a.session)
		a.menuOv.Open()
		return a, nil
	case "n":
		if a.bell != nil {
			return a, a.bell.Toggle()
		}
		return a, nil
	case "esc", "b":
		return a, a.back()
	}
	return a, a.forward(msg)
}

// capturing reports whether the active screen needs every key, as forms and
// prompts do.
func (a *App) capturing() bool {
	if a.modal != nil {
		return true
	}
	switch c := a.content.(type) {
	case *forms.Login, *forms.Register, *offers.Editor:
		return true
	case *offers.List:
		return c.Searching()
	case *offers.Detail:
		return c.Confirming()
	case *applications.Mine:
		return c.Confirming()
	case *cv.Screen:
		return c.Picking()
	}
	return false
}

// settle finishes an overlay close and performs the navigation it deferred.
func (a *App) settle(id string) tea.Cmd {
	var ov *overlay.Overlay
	switch {
	case id == menuID:
		ov = a.menuOv
	case id == bell.ID && a.bell != nil:
		ov = a.bell.Overlay()
	default:
		return nil
	}
	route, ok := ov.Settle()
	if !ok {
		return nil
	}
	return a.navigate(route, true)
}

// sessionChanged refreshes the cached session, mounts or unmounts the bell
// and re-checks the current route.
func (a *App) sessionChanged() tea.Cmd {
	prev := a.session
	a.session = a.mgr.Snapshot()

	var cmds []tea.Cmd
	authed := a.session.Authenticated && !a.session.Loading
	switch {
	case authed && a.bell == nil:
		a.bell = bell.New(notify.New(a.api, notify.WithInterval(a.opts.PollInterval)))
		cmds = append(cmds, a.bell.Mount(a.ctx))
	case !a.session.Authenticated && a.bell != nil:
		a.bell.Unmount()
		a.bell = nil
	}

	if !a.session.Authenticated && a.menuOv.Visible() {
		a.menuOv.Close()
		a.menuOv.Settle()
	}

	if a.content == nil || prev.Loading != a.session.Loading ||
		prev.Authenticated != a.session.Authenticated || prev.Role() != a.session.Role() {
		if prev.Authenticated && !a.session.Authenticated {
			a.modal = nil
		}
		cmds = append(cmds, a.navigate(a.path, false))
	}
	return tea.Batch(cmds...)
}

func (a *App) loggedIn(msg loggedInMsg) tea.Cmd {
	if msg.result.Success {
		// The session change routes away from the guest-only form.
		return nav.Info("Welcome, " + msg.result.User.DisplayName())
	}
	switch f := a.content.(type) {
	case *forms.Login:
		if !msg.register {
			return f.SetError(msg.result.Error)
		}
	case *forms.Register:
		if msg.register {
			return f.SetError(msg.result.Error)
		}
	}
	return nav.Failure(fmt.Errorf("%s", msg.result.Error))
}

func (a *App) logout() tea.Cmd {
	mgr, ctx := a.mgr, a.ctx
	a.history = nil
	a.path = string(access.Home)
	return tea.Sequence(
		func() tea.Msg {
			mgr.Logout(ctx)
			return nil
		},
		nav.Info("Logged out"),
	)
}

// back returns to the previous route, or home when there is none.
func (a *App) back() tea.Cmd {
	if n := len(a.history); n > 0 {
		prev := a.history[n-1]
		a.history = a.history[:n-1]
		return a.navigate(prev, false)
	}
	if a.path == string(access.Home) {
		return nil
	}
	return a.navigate(string(access.Home), false)
}

// navigate shows path if the access gate allows it, following redirects.
func (a *App) navigate(path string, push bool) tea.Cmd {
	for range maxRedirects {
		d := access.Check(a.session, path)
		switch d.Kind {
		case access.Pending:
			a.path = path
			a.screen = ScreenLoading
			a.content = nil
			return a.spinner.Tick
		case access.Redirect:
			slog.Debug("Redirecting", "from", path, "to", d.Target)
			path = string(d.Target)
			continue
		}

		if push && a.content != nil && a.path != path {
			a.history = append(a.history, a.path)
		}
		a.path = path
		a.status = nav.StatusMsg{}
		return a.build(path)
	}
	slog.Error("Too many redirects", "path", path)
	a.path = string(access.Home)
	return a.build(a.path)
}

// build creates the screen for an allowed path.
func (a *App) build(path string) tea.Cmd {
	route, _ := access.Match(path)
	id, _ := strconv.Atoi(access.Param(route, path))
	admin := a.session.Role() == model.RoleAdmin

	switch route {
	case access.OfferDetail:
		a.show(ScreenOffer, offers.NewDetail(a.api, id, a.session))
	case access.OfferCreate:
		a.show(ScreenOfferEditor, offers.NewEditor(a.api, 0, admin))
	case access.OfferEdit:
		a.show(ScreenOfferEditor, offers.NewEditor(a.api, id, admin))
	case access.OfferApplications:
		a.show(ScreenOfferApplications, applications.NewForOffer(a.api, id))
	case access.MyApplications:
		a.show(ScreenMyApplications, applications.NewMine(a.api))
	case access.InternDashboard, access.CompanyDashboard, access.AdminDashboard:
		a.show(ScreenDashboard, newDashboardScreen(a.api, a.session.User, a.contentWidth(), a.contentHeight()))
	case access.CV:
		a.show(ScreenCV, cv.New(a.api, a.mgr, a.opts.ConfigDir))
	case access.Notifications:
		a.show(ScreenNotifications, notifications.New(notify.New(a.api)))
	case access.Login:
		a.show(ScreenLogin, forms.NewLogin(a.lastEmail))
	case access.Register:
		a.show(ScreenRegister, forms.NewRegister())
	default:
		a.show(ScreenOffers, offers.NewList(a.api, a.session.Role()))
	}
	a.resize()
	return a.content.Init()
}

func (a *App) show(s Screen, m tea.Model) {
	a.screen = s
	a.content = m
	a.modal = nil
}

type sizer interface{ SetSize(width, height int) }

type widther interface{ SetWidth(width int) }

func (a *App) resize() {
	switch c := a.content.(type) {
	case sizer:
		c.SetSize(a.contentWidth(), a.contentHeight())
	case widther:
		c.SetWidth(a.contentWidth())
	}
}

// contentWidth is the width available inside the frame
func (a *App) contentWidth() int {
	return max(minTerminalWidth, a.width) - panelPadding
}

// contentHeight calculates the height available for screen content
func (a *App) contentHeight() int {
	// Header, footer, the newlines around content and the status line.
	return max(10, a.height-5)
}

// View implements tea.Model
func (a *App) View() string {
	return a.wrapWithFrame(a.viewContent())
}

func (a *App) viewContent() string {
	switch {
	case a.screen == ScreenRecovery:
		return a.viewRecovery()
	case a.screen == ScreenLoading || a.content == nil:
		return "\n  " + a.spinner.View() + " Loading session..."
	}

	content := a.content.View()
	if a.modal != nil {
		content = a.modal.View()
	}

	switch {
	case a.menuOv.Visible() && a.menu != nil:
		return lipgloss.JoinHorizontal(lipgloss.Top, content, "  ", a.menu.View())
	case a.bell != nil && a.bell.Overlay().Visible():
		return lipgloss.JoinHorizontal(lipgloss.Top, content, "  ", a.bell.View())
	}
	return content
}

func (a *App) viewRecovery() string {
	body := styles.StatusCritical.Render("Something went wrong") + "\n\n" +
		styles.ErrorText.Render(a.crashed) + "\n\n" +
		styles.Help.Render("Press r to reload your session, q to quit. Details are in debug.log.")
	return styles.Panel.Width(a.contentWidth()).Render(body)
}

// Run starts the TUI and blocks until it exits.
func Run(opts Options) error {
	app := New(opts)
	defer app.Close()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(app.ctx),
	)
	_, err := p.Run()
	return err
}
