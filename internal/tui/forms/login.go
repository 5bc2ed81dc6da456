// ABOUTME: Login form collecting email and password
// ABOUTME: Emits LoginMsg; the caller performs the login and reports failures back

package forms

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/placement-cli/internal/tui/styles"
)

// LoginMsg carries submitted credentials.
type LoginMsg struct {
	Email    string
	Password string
}

// Login is the login screen form.
type Login struct {
	form     *huh.Form
	email    string
	password string
	err      string
	width    int
}

// NewLogin creates the form, prefilling email.
func NewLogin(email string) *Login {
	l := &Login{email: email}
	l.form = l.build()
	return l
}

func (l *Login) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&l.email).
				Validate(required("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password).
				Validate(required("Password")),
		).Title("Log in").
			Description("Enter to continue, esc to go back"),
	).WithTheme(Theme()).WithShowHelp(false)
}

// SetError shows msg above a fresh form, keeping the email and clearing the
// password.
func (l *Login) SetError(msg string) tea.Cmd {
	l.err = msg
	l.password = ""
	l.form = l.build()
	return l.form.Init()
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	return l.form.Init()
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return l, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd, done := update(l.form, msg)
	l.form = form
	if done {
		creds := LoginMsg{Email: strings.TrimSpace(l.email), Password: l.password}
		return l, func() tea.Msg { return creds }
	}
	return l, cmd
}

// SetWidth sets the rendering width.
func (l *Login) SetWidth(width int) {
	l.width = width
}

// View implements tea.Model
func (l *Login) View() string {
	return styles.Title.Render("Welcome back") + "\n\n" + errorLine(l.err) + l.form.View()
}
