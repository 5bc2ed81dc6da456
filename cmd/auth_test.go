package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/markalston/placement-cli/internal/model"
)

func TestLogin_Success(t *testing.T) {
	e := newCLIEnv(t)
	loginEmail, loginPassword = "co@x.com", testPassword

	code, out := e.run(t, runLogin)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	if !strings.Contains(out, "Logged in as Acme (Company)") {
		t.Errorf("unexpected output %q", out)
	}
	if p, _ := e.store.Load(context.Background()); p == nil || !p.Complete() {
		t.Error("expected session to be persisted")
	}
}

func TestLogin_BadPassword(t *testing.T) {
	e := newCLIEnv(t)
	loginEmail, loginPassword = "co@x.com", "wrong-password"

	code, out := e.run(t, runLogin)
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.HasPrefix(out, "Error: ") {
		t.Errorf("expected error line, got %q", out)
	}
	if p, _ := e.store.Load(context.Background()); p != nil {
		t.Error("expected nothing persisted after a failed login")
	}
}

func TestLogin_MissingFlags(t *testing.T) {
	e := newCLIEnv(t)
	loginEmail = "co@x.com"

	if code, _ := e.run(t, runLogin); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestLogin_JSON(t *testing.T) {
	e := newCLIEnv(t)
	jsonOutput = true
	loginEmail, loginPassword = "lina@x.com", testPassword

	code, out := e.run(t, runLogin)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	var got struct {
		Success bool `json:"success"`
		User    struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if !got.Success || got.User.Email != "lina@x.com" || got.User.Role != string(model.RoleIntern) {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestRegister_Intern(t *testing.T) {
	e := newCLIEnv(t)
	registerRole = "intern"
	registerFields = map[string]string{
		"email": "new@x.com", "password": "secret123", "nom": "Durand", "prenom": "Ali",
	}

	code, out := e.run(t, runRegister)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	if !strings.Contains(out, "Registered and logged in as Ali Durand (Intern)") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newCLIEnv(t)
	registerRole = "ENTREPRISE"
	registerFields = map[string]string{"email": "co@x.com", "password": "secret123", "nom_entreprise": "Other"}

	if code, out := e.run(t, runRegister); code != 1 {
		t.Errorf("expected exit code 1, got %d: %s", code, out)
	}
}

func TestRegister_AdminRefused(t *testing.T) {
	e := newCLIEnv(t)
	registerRole = "ADMIN"
	registerFields = map[string]string{"email": "root@x.com", "password": "secret123"}

	code, out := e.run(t, runRegister)
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out, "not available") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseRegisterRole(t *testing.T) {
	tests := []struct {
		input    string
		expected model.Role
	}{
		{"intern", model.RoleIntern},
		{"Stagiaire", model.RoleIntern},
		{"company", model.RoleCompany},
		{" entreprise ", model.RoleCompany},
	}
	for _, tt := range tests {
		got, err := parseRegisterRole(tt.input)
		if err != nil || got != tt.expected {
			t.Errorf("parseRegisterRole(%q): expected %s, got %s (%v)", tt.input, tt.expected, got, err)
		}
	}
	if _, err := parseRegisterRole("pirate"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestWhoami(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "lina@x.com")

	code, out := e.run(t, runWhoami)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	for _, want := range []string{"Name:    Lina Benali", "Email:   lina@x.com", "Role:    Intern", "CV:      false"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
}

func TestLogout(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "lina@x.com")

	code, out := e.run(t, runLogout)
	if code != 0 || !strings.Contains(out, "Logged out") {
		t.Errorf("expected logout, got %d %q", code, out)
	}
	if p, _ := e.store.Load(context.Background()); p != nil {
		t.Error("expected stored session to be cleared")
	}

	code, out = e.run(t, runLogout)
	if code != 0 || !strings.Contains(out, "Not logged in") {
		t.Errorf("expected no-op logout, got %d %q", code, out)
	}
}

func TestTokenRefresh(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "co@x.com")

	code, out := e.run(t, runTokenRefresh)
	if code != 0 || !strings.Contains(out, "Access token refreshed") {
		t.Fatalf("expected refresh, got %d %q", code, out)
	}
	after, _ := e.store.Load(context.Background())
	if !after.Complete() || after.RefreshToken == "" {
		t.Errorf("expected refreshed session to keep both tokens, got %+v", after)
	}
}

func TestTokenRefresh_NotLoggedIn(t *testing.T) {
	e := newCLIEnv(t)

	if code, _ := e.run(t, runTokenRefresh); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}
