// ABOUTME: Route protection shared by TUI screens and CLI commands
// ABOUTME: Decides whether a session may render a route or must be redirected

package access

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/markalston/placement-cli/internal/model"
)

// Route is an application location such as "/offres/12".
type Route string

const (
	Home              Route = "/"
	Login             Route = "/login"
	Register          Route = "/register"
	Dashboard         Route = "/dashboard"
	InternDashboard   Route = "/dashboard/stagiaire"
	CompanyDashboard  Route = "/dashboard/entreprise"
	AdminDashboard    Route = "/dashboard/admin"
	Offers            Route = "/offres"
	OfferCreate       Route = "/offres/create"
	OfferDetail       Route = "/offres/:id"
	OfferEdit         Route = "/offres/:id/edit"
	OfferApplications Route = "/offres/:id/candidatures"
	MyApplications    Route = "/candidatures"
	CV                Route = "/cv"
	Notifications     Route = "/notifications"
)

// Kind is the outcome of an access decision.
type Kind int

const (
	// Pending means the session is still resolving; show a neutral loading state.
	Pending Kind = iota
	Redirect
	Render
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decision tells the caller what to show. Target is set only for Redirect.
type Decision struct {
	Kind   Kind
	Target Route
}

// Rule protects one route. An empty Allowed list admits any authenticated
// user. RedirectIfAuthenticated marks guest-only routes such as login.
type Rule struct {
	Allowed                 []model.Role
	RedirectIfAuthenticated bool
	Public                  bool
}

// Routes declares the protection of every known route.
var Routes = map[Route]Rule{
	Home:              {Public: true},
	Offers:            {Public: true},
	OfferDetail:       {Public: true},
	Login:             {RedirectIfAuthenticated: true},
	Register:          {RedirectIfAuthenticated: true},
	Dashboard:         {},
	InternDashboard:   {Allowed: []model.Role{model.RoleIntern}},
	CompanyDashboard:  {Allowed: []model.Role{model.RoleCompany}},
	AdminDashboard:    {Allowed: []model.Role{model.RoleAdmin}},
	OfferCreate:       {Allowed: []model.Role{model.RoleCompany}},
	OfferEdit:         {Allowed: []model.Role{model.RoleCompany, model.RoleAdmin}},
	OfferApplications: {Allowed: []model.Role{model.RoleCompany, model.RoleAdmin}},
	MyApplications:    {Allowed: []model.Role{model.RoleIntern}},
	CV:                {Allowed: []model.Role{model.RoleIntern}},
	Notifications:     {},
}

// DashboardPath returns the dashboard for role, or ok=false for an unknown role.
func DashboardPath(role model.Role) (Route, bool) {
	switch role {
	case model.RoleIntern:
		return InternDashboard, true
	case model.RoleCompany:
		return CompanyDashboard, true
	case model.RoleAdmin:
		return AdminDashboard, true
	default:
		return "", false
	}
}

// Decide applies the protection contract:
//  1. while loading, never redirect
//  2. guest-only routes send authenticated users to their dashboard
//  3. protected routes send anonymous users to login
//  4. a role outside allowed goes to the user's own dashboard
func Decide(s model.Session, allowed []model.Role, redirectIfAuthenticated bool) Decision {
	if s.Loading {
		return Decision{Kind: Pending}
	}

	authenticated := s.Authenticated && s.User != nil

	if redirectIfAuthenticated && authenticated {
		target, ok := DashboardPath(s.User.Role())
		if !ok {
			target = Dashboard
		}
		return Decision{Kind: Redirect, Target: target}
	}

	if !authenticated && !redirectIfAuthenticated {
		return Decision{Kind: Redirect, Target: Login}
	}

	if len(allowed) > 0 && authenticated && !slices.Contains(allowed, s.User.Role()) {
		target, ok := DashboardPath(s.User.Role())
		if !ok {
			target = Home
		}
		slog.Warn("Access denied",
			"role", s.User.Role(),
			"allowed", allowed,
			"redirect", target,
		)
		return Decision{Kind: Redirect, Target: target}
	}

	return Decision{Kind: Render}
}

// Check decides for a concrete path using the route table. Public routes
// always render; unknown paths redirect home.
func Check(s model.Session, path string) Decision {
	route, ok := Match(path)
	if !ok {
		return Decision{Kind: Redirect, Target: Home}
	}
	rule := Routes[route]
	if rule.Public {
		return Decision{Kind: Render}
	}
	d := Decide(s, rule.Allowed, rule.RedirectIfAuthenticated)
	if route == Dashboard && d.Kind == Render {
		target, ok := DashboardPath(s.User.Role())
		if !ok {
			target = Home
		}
		return Decision{Kind: Redirect, Target: target}
	}
	return d
}

// Match resolves path to its route pattern. Literal routes win over
// parameterized ones, so /offres/create is not an offer id.
func Match(path string) (Route, bool) {
	path = "/" + strings.Trim(path, "/")
	if _, ok := Routes[Route(path)]; ok {
		return Route(path), true
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for pattern := range Routes {
		pp := strings.Split(strings.TrimPrefix(string(pattern), "/"), "/")
		if len(pp) != len(parts) {
			continue
		}
		matched := true
		for i := range pp {
			if strings.HasPrefix(pp[i], ":") {
				if parts[i] == "" {
					matched = false
					break
				}
				continue
			}
			if pp[i] != parts[i] {
				matched = false
				break
			}
		}
		if matched {
			return pattern, true
		}
	}
	return "", false
}

// Param extracts the :id segment of path for a parameterized route.
func Param(route Route, path string) string {
	pp := strings.Split(strings.Trim(string(route), "/"), "/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(pp) != len(parts) {
		return ""
	}
	for i, seg := range pp {
		if seg == ":id" {
			return parts[i]
		}
	}
	return ""
}

// OfferPath builds /offres/{id}.
func OfferPath(id int) string {
	return strings.Replace(string(OfferDetail), ":id", strconv.Itoa(id), 1)
}

// OfferApplicationsPath builds /offres/{id}/candidatures.
func OfferApplicationsPath(id int) string {
	return strings.Replace(string(OfferApplications), ":id", strconv.Itoa(id), 1)
}

// OfferEditPath builds /offres/{id}/edit.
func OfferEditPath(id int) string {
	return strings.Replace(string(OfferEdit), ":id", strconv.Itoa(id), 1)
}
