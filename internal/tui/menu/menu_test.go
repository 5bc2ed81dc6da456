// ABOUTME: Tests for the navigation menu
// ABOUTME: Validates role-specific entries, disabled entries and selection

package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/model"
)

func session(role model.Role) model.Session {
	var u model.User
	switch role {
	case model.RoleIntern:
		u = model.InternUser{Account: model.Account{ID: 1}}
	case model.RoleCompany:
		u = model.CompanyUser{Account: model.Account{ID: 2}}
	case model.RoleAdmin:
		u = model.AdminUser{Account: model.Account{ID: 3}}
	}
	return model.Session{User: u, Authenticated: true}
}

func labels(m *Menu) []string {
	var out []string
	for _, o := range m.options {
		out = append(out, o.label)
	}
	return out
}

func TestMenuOptions(t *testing.T) {
	tests := []struct {
		name     string
		session  model.Session
		expected []string
	}{
		{"anonymous", model.Session{}, []string{"Offers", "Log in", "Register"}},
		{"intern", session(model.RoleIntern), []string{"Dashboard", "Offers", "My applications", "My CV", "Notifications", "Log out"}},
		{"company", session(model.RoleCompany), []string{"Dashboard", "Offers", "New offer", "Notifications", "Log out"}},
		{"admin", session(model.RoleAdmin), []string{"Dashboard", "Offers", "Notifications", "Log out"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := labels(New(tc.session))
			if len(got) != len(tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("expected %v, got %v", tc.expected, got)
					break
				}
			}
		})
	}
}

func TestMenuEntriesEnabledForOwnRole(t *testing.T) {
	m := New(session(model.RoleIntern))
	for _, o := range m.options {
		if !o.enabled {
			t.Errorf("expected %q to be enabled for an intern", o.label)
		}
	}
}

func TestMenuSelect(t *testing.T) {
	m := New(model.Session{})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(SelectedMsg)
	if !ok {
		t.Fatalf("expected SelectedMsg, got %T", cmd())
	}
	if msg.Route != "/login" {
		t.Errorf("expected /login, got %s", msg.Route)
	}
}

func TestMenuCursorStopsAtEnds(t *testing.T) {
	m := New(model.Session{})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("expected cursor 0, got %d", m.cursor)
	}
	for range 5 {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != len(m.options)-1 {
		t.Errorf("expected cursor at last entry, got %d", m.cursor)
	}
}

func TestMenuCancel(t *testing.T) {
	m := New(model.Session{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Errorf("expected CancelledMsg, got %T", cmd())
	}
}
