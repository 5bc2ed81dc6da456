package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/markalston/placement-cli/internal/client"
	"github.com/markalston/placement-cli/internal/model"
)

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	login           func(email, password string) (*client.AuthResponse, error)
	registerIntern  func(client.InternRegistration) (*client.AuthResponse, error)
	registerCompany func(client.CompanyRegistration) (*client.AuthResponse, error)
	profile         func(ctx context.Context) (model.User, error)
	refresh         func(string) (model.Credentials, error)

	profileCalls  atomic.Int32
	logoutCalls   atomic.Int32
	resets        atomic.Int32
	registerCalls atomic.Int32
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*client.AuthResponse, error) {
	return f.login(email, password)
}

func (f *fakeAPI) RegisterIntern(_ context.Context, reg client.InternRegistration) (*client.AuthResponse, error) {
	f.registerCalls.Add(1)
	return f.registerIntern(reg)
}

func (f *fakeAPI) RegisterCompany(_ context.Context, reg client.CompanyRegistration) (*client.AuthResponse, error) {
	f.registerCalls.Add(1)
	return f.registerCompany(reg)
}

func (f *fakeAPI) Logout(context.Context, string) error {
	f.logoutCalls.Add(1)
	return nil
}

func (f *fakeAPI) RefreshToken(_ context.Context, refresh string) (model.Credentials, error) {
	return f.refresh(refresh)
}

func (f *fakeAPI) Profile(ctx context.Context) (model.User, error) {
	f.profileCalls.Add(1)
	return f.profile(ctx)
}

func (f *fakeAPI) ResetUnauthorized() { f.resets.Add(1) }

func intern(id int) model.InternUser {
	return model.InternUser{
		Account: model.Account{ID: id, Email: "a@b.com", IsActive: true},
		Profile: model.InternProfile{FirstName: "Awa", LastName: "Diallo"},
	}
}

func authOK(u model.User) *client.AuthResponse {
	return &client.AuthResponse{
		User:   model.UserEnvelope{User: u},
		Tokens: model.Credentials{Access: "t1", Refresh: "t2"},
	}
}

func apiError(status int, body string) error {
	return &client.APIError{Status: status, Kind: client.KindValidation, Body: []byte(body)}
}

func unauthorized(body string) error {
	return &client.APIError{Status: 401, Kind: client.KindUnauthorized, Body: []byte(body)}
}

func TestLogin_SuccessPersistsCredentialsAndUser(t *testing.T) {
	store := NewMemoryStore()
	api := &fakeAPI{login: func(string, string) (*client.AuthResponse, error) { return authOK(intern(1)), nil }}
	m := NewManager(store, api)

	res := m.Login(context.Background(), "a@b.com", "pw")
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}

	s := m.Snapshot()
	if !s.Authenticated || s.Role() != model.RoleIntern {
		t.Errorf("unexpected session %+v", s)
	}
	if m.AccessToken() != "t1" {
		t.Errorf("expected access token t1, got %q", m.AccessToken())
	}

	p, _ := store.Load(context.Background())
	if !p.Complete() || p.AccessToken != "t1" || p.RefreshToken != "t2" {
		t.Errorf("expected credentials and user persisted together, got %+v", p)
	}
	if api.resets.Load() != 1 {
		t.Error("expected unauthorized guard to be re-armed after login")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := NewMemoryStore()
	api := &fakeAPI{login: func(string, string) (*client.AuthResponse, error) {
		return nil, unauthorized(`{"error":"Invalid credentials"}`)
	}}
	m := NewManager(store, api)

	res := m.Login(context.Background(), "a@b.com", "wrong")
	if res.Success || res.Error != "Invalid credentials" {
		t.Errorf("expected {false, Invalid credentials}, got %+v", res)
	}
	if m.Snapshot().Authenticated {
		t.Error("expected to remain unauthenticated")
	}
	if p, _ := store.Load(context.Background()); p != nil {
		t.Errorf("expected nothing persisted, got %+v", p)
	}
}

func TestLogin_MessagePrecedence(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "error wins over detail", err: unauthorized(`{"detail":"d","error":"e"}`), want: "e"},
		{name: "detail", err: unauthorized(`{"detail":"No active account"}`), want: "No active account"},
		{name: "message", err: apiError(400, `{"message":"Bad request"}`), want: "Bad request"},
		{name: "fallback", err: apiError(400, `{"email":["required"]}`), want: "Login failed. Please try again."},
		{name: "non-api error", err: errors.New("boom"), want: "Login failed. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{login: func(string, string) (*client.AuthResponse, error) { return nil, tt.err }}
			res := NewManager(NewMemoryStore(), api).Login(context.Background(), "a@b.com", "x")
			if res.Error != tt.want {
				t.Errorf("expected %q, got %q", tt.want, res.Error)
			}
		})
	}
}

func TestRegister_InternMapsFormAndLogsIn(t *testing.T) {
	var got client.InternRegistration
	api := &fakeAPI{registerIntern: func(reg client.InternRegistration) (*client.AuthResponse, error) {
		got = reg
		return authOK(intern(2)), nil
	}}
	store := NewMemoryStore()
	m := NewManager(store, api)

	res := m.Register(context.Background(), RegistrationForm{
		Role: model.RoleIntern,
		Fields: map[string]string{
			"email":      "x@y.com",
			"password":   "p",
			"password2":  "p",
			"first_name": "A",
			"last_name":  "B",
		},
	})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}

	want := client.InternRegistration{Email: "x@y.com", Password: "p", PasswordConfirm: "p", FirstName: "A", LastName: "B"}
	if got != want {
		t.Errorf("expected payload %+v, got %+v", want, got)
	}
	p, _ := store.Load(context.Background())
	if p.AccessToken != "t1" || p.RefreshToken != "t2" {
		t.Errorf("expected t1/t2 persisted, got %+v", p)
	}
	if s := m.Snapshot(); !s.Authenticated || s.Role() != model.RoleIntern {
		t.Errorf("unexpected session %+v", s)
	}
}

func TestRegister_CompanyDefaultsSector(t *testing.T) {
	var got client.CompanyRegistration
	api := &fakeAPI{registerCompany: func(reg client.CompanyRegistration) (*client.AuthResponse, error) {
		got = reg
		return authOK(model.CompanyUser{Account: model.Account{ID: 3, Email: "hr@acme.test"}}), nil
	}}
	m := NewManager(NewMemoryStore(), api)

	res := m.Register(context.Background(), RegistrationForm{
		Role:   model.RoleCompany,
		Fields: map[string]string{"email": "hr@acme.test", "password": "p", "password_confirm": "p", "company_name": "Acme"},
	})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if got.Sector != DefaultSector || got.CompanyName != "Acme" || got.PasswordConfirm != "p" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestRegister_FlattensFieldErrors(t *testing.T) {
	api := &fakeAPI{registerIntern: func(client.InternRegistration) (*client.AuthResponse, error) {
		return nil, apiError(400, `{"email":["This email is taken"],"password":["Too short"]}`)
	}}
	m := NewManager(NewMemoryStore(), api)

	res := m.Register(context.Background(), RegistrationForm{Role: model.RoleIntern, Fields: map[string]string{}})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "This email is taken, Too short" {
		t.Errorf("unexpected message %q", res.Error)
	}
}

func TestRegister_AdminRoleRejectedWithoutRequest(t *testing.T) {
	api := &fakeAPI{}
	res := NewManager(NewMemoryStore(), api).Register(context.Background(), RegistrationForm{Role: model.RoleAdmin})
	if res.Success || res.Error == "" {
		t.Errorf("expected failure, got %+v", res)
	}
	if api.registerCalls.Load() != 0 {
		t.Error("expected no backend call")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	api := &fakeAPI{login: func(string, string) (*client.AuthResponse, error) { return authOK(intern(1)), nil }}
	m := NewManager(store, api)
	ctx := context.Background()

	m.Login(ctx, "a@b.com", "pw")
	if _, err := os.Stat(store.Path()); err != nil {
		t.Fatalf("expected session file after login: %v", err)
	}

	for i := 0; i < 2; i++ {
		m.Logout(ctx)
		if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("logout %d: expected session file removed, got %v", i+1, err)
		}
		if s := m.Snapshot(); s.Authenticated || s.User != nil {
			t.Errorf("logout %d: expected empty session, got %+v", i+1, s)
		}
	}
	if api.logoutCalls.Load() != 1 {
		t.Errorf("expected one revocation call, got %d", api.logoutCalls.Load())
	}
}

func TestRestore_AcrossManagersWithoutNetwork(t *testing.T) {
	dir := t.TempDir()
	api := &fakeAPI{login: func(string, string) (*client.AuthResponse, error) { return authOK(intern(1)), nil }}
	NewManager(NewFileStore(dir), api).Login(context.Background(), "a@b.com", "pw")

	fresh := &fakeAPI{}
	m := NewManager(NewFileStore(dir), fresh)
	if !m.Restore(context.Background()) {
		t.Fatal("expected restore to succeed")
	}

	s := m.Snapshot()
	if !s.Authenticated || s.Role() != model.RoleIntern || !s.Loading {
		t.Errorf("unexpected restored session %+v", s)
	}
	if fresh.profileCalls.Load() != 0 {
		t.Error("restore must not contact the backend")
	}
}

func TestFileStore_Permissions(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested"))
	if err := store.Save(context.Background(), Persisted{AccessToken: "t1", User: []byte(`{}`)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600, got %o", info.Mode().Perm())
	}
}

func TestRestore_CorruptFileIsCleared(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewManager(store, &fakeAPI{})
	if m.Restore(context.Background()) {
		t.Fatal("expected restore to fail")
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected corrupt session file to be removed")
	}
}

func seededManager(t *testing.T, api *fakeAPI) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	p, err := newPersisted(model.Credentials{Access: "t1", Refresh: "t2"}, intern(1))
	if err != nil {
		t.Fatal(err)
	}
	store.Save(context.Background(), p)
	return NewManager(store, api), store
}

func TestInitialize_NoStoredSession(t *testing.T) {
	api := &fakeAPI{}
	m := NewManager(NewMemoryStore(), api)
	m.Initialize(context.Background())

	s := m.Snapshot()
	if s.Loading || s.Authenticated {
		t.Errorf("expected {loading=false, unauthenticated}, got %+v", s)
	}
	if api.profileCalls.Load() != 0 {
		t.Error("expected no revalidation without a stored session")
	}
}

func TestInitialize_UnauthorizedLogsOut(t *testing.T) {
	api := &fakeAPI{profile: func(context.Context) (model.User, error) { return nil, unauthorized(`{}`) }}
	m, store := seededManager(t, api)
	m.Initialize(context.Background())

	s := m.Snapshot()
	if s.Authenticated || s.Loading {
		t.Errorf("expected logged out and not loading, got %+v", s)
	}
	if p, _ := store.Load(context.Background()); p != nil {
		t.Errorf("expected store cleared, got %+v", p)
	}
}

func TestInitialize_TransientErrorKeepsCachedUser(t *testing.T) {
	api := &fakeAPI{profile: func(context.Context) (model.User, error) {
		return nil, &client.APIError{Status: 503, Kind: client.KindTransient}
	}}
	m, _ := seededManager(t, api)
	m.Initialize(context.Background())

	s := m.Snapshot()
	if !s.Authenticated || s.Loading || s.Role() != model.RoleIntern {
		t.Errorf("expected cached intern kept, got %+v", s)
	}
}

func TestInitialize_RefreshesUserFromProfile(t *testing.T) {
	updated := intern(1)
	updated.Profile.City = "Thiès"
	api := &fakeAPI{profile: func(context.Context) (model.User, error) { return updated, nil }}
	m, store := seededManager(t, api)
	m.Initialize(context.Background())

	u, ok := m.Snapshot().User.(model.InternUser)
	if !ok || u.Profile.City != "Thiès" {
		t.Errorf("expected refreshed user, got %+v", m.Snapshot().User)
	}
	p, _ := store.Load(context.Background())
	stored, _ := model.DecodeUser(p.User)
	if stored.(model.InternUser).Profile.City != "Thiès" {
		t.Error("expected refreshed user persisted")
	}
}

func TestInitialize_RestoreVisibleBeforeRevalidation(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{profile: func(ctx context.Context) (model.User, error) {
		<-release
		return intern(1), nil
	}}
	m, _ := seededManager(t, api)

	restored := make(chan model.Session, 8)
	m.OnChange(func(s model.Session) { restored <- s })

	done := make(chan struct{})
	go func() {
		m.Initialize(context.Background())
		close(done)
	}()

	select {
	case s := <-restored:
		if !s.Authenticated || !s.Loading {
			t.Errorf("expected authenticated while still loading, got %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("restore was not observable before revalidation finished")
	}

	close(release)
	<-done
	if m.Snapshot().Loading {
		t.Error("expected loading=false after initialize")
	}
}

func TestUpdateUser_LeavesCredentials(t *testing.T) {
	m, store := seededManager(t, &fakeAPI{})
	m.Restore(context.Background())

	u := intern(1)
	u.Profile.Domain = "Data"
	if err := m.UpdateUser(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := store.Load(context.Background())
	if p.AccessToken != "t1" || p.RefreshToken != "t2" {
		t.Errorf("expected credentials untouched, got %+v", p)
	}
	if m.Snapshot().User.(model.InternUser).Profile.Domain != "Data" {
		t.Error("expected cached user replaced")
	}

	if err := m.UpdateUser(context.Background(), model.AdminUser{}); err == nil {
		t.Error("expected role change to be rejected")
	}
}

func TestUpdateUser_RequiresSession(t *testing.T) {
	m := NewManager(NewMemoryStore(), &fakeAPI{})
	if err := m.UpdateUser(context.Background(), intern(1)); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestRefreshAccess(t *testing.T) {
	api := &fakeAPI{refresh: func(refresh string) (model.Credentials, error) {
		if refresh != "t2" {
			t.Errorf("expected refresh token t2, got %q", refresh)
		}
		return model.Credentials{Access: "t3"}, nil
	}}
	m, store := seededManager(t, api)
	m.Restore(context.Background())

	if err := m.RefreshAccess(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := store.Load(context.Background())
	if p.AccessToken != "t3" || p.RefreshToken != "t2" {
		t.Errorf("expected t3/t2, got %+v", p)
	}
}

func TestRefreshAccess_UnauthorizedExpires(t *testing.T) {
	api := &fakeAPI{refresh: func(string) (model.Credentials, error) { return model.Credentials{}, unauthorized(`{}`) }}
	m, _ := seededManager(t, api)
	m.Restore(context.Background())

	if err := m.RefreshAccess(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if m.Snapshot().Authenticated {
		t.Error("expected session to end")
	}
}
