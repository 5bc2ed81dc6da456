// ABOUTME: Two-step registration wizard for interns and companies
// ABOUTME: Collects account fields, then the role's profile, with a progress indicator

package forms

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/session"
)

// RegisterMsg carries a completed registration.
type RegisterMsg struct {
	Form session.RegistrationForm
}

var registerSteps = []string{"Account", "Profile"}

// Study levels offered to interns.
var studyLevels = []string{"Bac", "Bac+1", "Bac+2", "Bac+3", "Bac+4", "Bac+5"}

// Register is the registration wizard.
type Register struct {
	form  *huh.Form
	step  int
	width int
	err   string

	role   model.Role
	fields map[string]*string
}

// NewRegister creates the wizard on its first step.
func NewRegister() *Register {
	r := &Register{step: 1, role: model.RoleIntern, fields: map[string]*string{}}
	r.form = r.accountForm()
	return r
}

func (r *Register) field(key string) *string {
	if p, ok := r.fields[key]; ok {
		return p
	}
	p := new(string)
	r.fields[key] = p
	return p
}

func (r *Register) input(key, title string, req bool) *huh.Input {
	in := huh.NewInput().Title(title).Value(r.field(key))
	if req {
		in = in.Validate(required(title))
	}
	return in
}

func (r *Register) accountForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.Role]().
				Title("I am").
				Options(
					huh.NewOption("An intern looking for a placement", model.RoleIntern),
					huh.NewOption("A company offering placements", model.RoleCompany),
				).
				Value(&r.role),
			r.input("email", "Email", true),
			r.input("password", "Password", true).EchoMode(huh.EchoModePassword),
			r.input("password2", "Confirm password", true).EchoMode(huh.EchoModePassword),
		).Title("Step 1: Account").
			Description("Administrator accounts are created by the platform team"),
	).WithTheme(Theme()).WithShowHelp(false)
}

func (r *Register) profileForm() *huh.Form {
	var group *huh.Group
	if r.role == model.RoleCompany {
		group = huh.NewGroup(
			r.input("nom_entreprise", "Company name", true),
			r.input("secteur_activite", "Sector", false).Placeholder(session.DefaultSector),
			r.input("ville", "City", false),
			r.input("contact_nom", "Contact last name", false),
			r.input("contact_prenom", "Contact first name", false),
			r.input("telephone", "Phone", false),
		)
	} else {
		level := r.field("niveau_etude")
		if *level == "" {
			*level = studyLevels[2]
		}
		group = huh.NewGroup(
			r.input("nom", "Last name", true),
			r.input("prenom", "First name", true),
			r.input("domaine", "Field of study", false).Placeholder("e.g. Informatique"),
			huh.NewSelect[string]().
				Title("Study level").
				Options(huh.NewOptions(studyLevels...)...).
				Value(level),
			r.input("ville", "City", false),
			r.input("telephone", "Phone", false),
		)
	}
	return huh.NewForm(
		group.Title("Step 2: Profile").
			Description(r.role.Label()+" details"),
	).WithTheme(Theme()).WithShowHelp(false)
}

// Init implements tea.Model
func (r *Register) Init() tea.Cmd {
	return r.form.Init()
}

// Update implements tea.Model
func (r *Register) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		if r.step == 2 {
			r.step = 1
			r.form = r.accountForm()
			return r, r.form.Init()
		}
		return r, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd, done := update(r.form, msg)
	r.form = form
	if done {
		return r.advanceStep()
	}
	return r, cmd
}

func (r *Register) advanceStep() (tea.Model, tea.Cmd) {
	if r.step == 1 {
		r.step = 2
		r.err = ""
		r.form = r.profileForm()
		return r, r.form.Init()
	}
	out := RegisterMsg{Form: r.Value()}
	return r, func() tea.Msg { return out }
}

// Value returns the collected registration.
func (r *Register) Value() session.RegistrationForm {
	fields := make(map[string]string, len(r.fields))
	for k, p := range r.fields {
		v := *p
		if k != "password" && k != "password2" {
			v = strings.TrimSpace(v)
		}
		fields[k] = v
	}
	return session.RegistrationForm{Role: r.role, Fields: fields}
}

// SetError returns to the first step and shows msg.
func (r *Register) SetError(msg string) tea.Cmd {
	r.err = msg
	r.step = 1
	r.form = r.accountForm()
	return r.form.Init()
}

// SetWidth sets the rendering width.
func (r *Register) SetWidth(width int) {
	r.width = width
}

// View implements tea.Model
func (r *Register) View() string {
	return renderProgress(registerSteps, r.step, r.width) + "\n\n" + errorLine(r.err) + r.form.View()
}
