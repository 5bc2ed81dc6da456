// ABOUTME: Session manager: single source of truth for who is logged in
// ABOUTME: Restores from the store, revalidates against the backend, and handles login/logout

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/markalston/placement-cli/internal/client"
	"github.com/markalston/placement-cli/internal/model"
)

// ErrNotAuthenticated is returned by operations that need a session.
var ErrNotAuthenticated = errors.New("not logged in")

// API is the backend surface the manager needs.
type API interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	RegisterIntern(ctx context.Context, reg client.InternRegistration) (*client.AuthResponse, error)
	RegisterCompany(ctx context.Context, reg client.CompanyRegistration) (*client.AuthResponse, error)
	Logout(ctx context.Context, refresh string) error
	RefreshToken(ctx context.Context, refresh string) (model.Credentials, error)
	Profile(ctx context.Context) (model.User, error)
	ResetUnauthorized()
}

// Result reports the outcome of Login and Register. Failures carry a
// human-readable message and never an error value.
type Result struct {
	Success bool
	User    model.User
	Error   string
}

// Manager owns the session state. It is safe for concurrent use.
type Manager struct {
	store Store
	api   API

	mu            sync.RWMutex
	creds         model.Credentials
	user          model.User
	authenticated bool
	loading       bool

	listenersMu sync.Mutex
	listeners   map[int]func(model.Session)
	nextID      int
}

// NewManager creates a manager in the loading state.
func NewManager(store Store, api API) *Manager {
	return &Manager{
		store:     store,
		api:       api,
		loading:   true,
		listeners: map[int]func(model.Session){},
	}
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.Session{User: m.user, Authenticated: m.authenticated, Loading: m.loading}
}

// AccessToken returns the current access token, or "".
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.Access
}

// Credentials returns the current token pair.
func (m *Manager) Credentials() model.Credentials {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds
}

// OnChange registers fn to receive every state change. The returned function
// unregisters it.
func (m *Manager) OnChange(fn func(model.Session)) func() {
	m.listenersMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.listenersMu.Unlock()

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

func (m *Manager) notify() {
	s := m.Snapshot()
	m.listenersMu.Lock()
	fns := make([]func(model.Session), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Restore loads the persisted session without contacting the backend. It
// reports whether a complete session was restored. Loading stays true.
func (m *Manager) Restore(ctx context.Context) bool {
	p, err := m.store.Load(ctx)
	if errors.Is(err, ErrCorruptSession) {
		slog.Warn("Discarding unreadable session", "error", err)
		m.Expire(ctx)
		return false
	}
	if err != nil {
		slog.Warn("Could not read saved session", "error", err)
		return false
	}
	if !p.Complete() {
		return false
	}

	u, err := model.DecodeUser(p.User)
	if err != nil {
		slog.Warn("Discarding session with invalid user", "error", err)
		m.Expire(ctx)
		return false
	}

	m.mu.Lock()
	m.creds = p.Credentials()
	m.user = u
	m.authenticated = true
	m.mu.Unlock()

	slog.Debug("Session restored", "role", u.Role())
	m.notify()
	return true
}

// Revalidate refreshes the user from the backend. A 401 ends the session;
// any other failure keeps the cached user and is returned.
func (m *Manager) Revalidate(ctx context.Context) error {
	u, err := m.api.Profile(ctx)
	if err != nil {
		if client.IsUnauthorized(err) {
			slog.Info("Stored session rejected, logging out")
			m.Expire(ctx)
			return err
		}
		slog.Warn("Could not revalidate session, keeping cached user", "error", err)
		return err
	}

	m.mu.Lock()
	if !m.authenticated {
		// Logged out while the profile request was in flight.
		m.mu.Unlock()
		return nil
	}
	p, err := newPersisted(m.creds, u)
	if err == nil {
		err = m.store.Save(ctx, p)
	}
	m.user = u
	m.mu.Unlock()

	if err != nil {
		slog.Warn("Could not persist refreshed user", "error", err)
	}
	m.notify()
	return nil
}

// Initialize restores the persisted session and then revalidates it. Loading
// is false when it returns, whichever path was taken.
func (m *Manager) Initialize(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		m.notify()
	}()

	if !m.Restore(ctx) {
		return
	}
	_ = m.Revalidate(ctx)
}

// Login authenticates with email and password.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		logAuthFailure("Login failed", err)
		return Result{Error: client.LoginMessage(err, "Login failed. Please try again.")}
	}
	if err := m.establish(ctx, resp); err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, User: resp.User.User}
}

// logAuthFailure keeps transport errors visible since the user only sees the
// generic message for them.
func logAuthFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if client.KindOf(err) == client.KindTransient {
		slog.Warn(msg, args...)
		return
	}
	slog.Debug(msg, args...)
}

// Register creates an account for form.Role and logs it in.
func (m *Manager) Register(ctx context.Context, form RegistrationForm) Result {
	var (
		resp *client.AuthResponse
		err  error
	)
	switch form.Role {
	case model.RoleIntern:
		resp, err = m.api.RegisterIntern(ctx, form.intern())
	case model.RoleCompany:
		resp, err = m.api.RegisterCompany(ctx, form.company())
	default:
		return Result{Error: fmt.Sprintf("Registration is not available for role %q", form.Role)}
	}
	if err != nil {
		logAuthFailure("Registration failed", err, "role", form.Role)
		return Result{Error: client.RegisterMessage(err, "Registration failed. Please try again.")}
	}
	if err := m.establish(ctx, resp); err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, User: resp.User.User}
}

func (m *Manager) establish(ctx context.Context, resp *client.AuthResponse) error {
	p, err := newPersisted(resp.Tokens, resp.User.User)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	m.mu.Lock()
	if err := m.store.Save(ctx, p); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("saving session: %w", err)
	}
	m.creds = resp.Tokens
	m.user = resp.User.User
	m.authenticated = true
	m.loading = false
	m.mu.Unlock()

	m.api.ResetUnauthorized()
	slog.Info("Logged in", "role", resp.User.User.Role())
	m.notify()
	return nil
}

// Logout revokes the refresh token on a best-effort basis and clears the
// session. Calling it when logged out is a no-op beyond clearing the store.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.RLock()
	refresh := m.creds.Refresh
	m.mu.RUnlock()

	if refresh != "" {
		if err := m.api.Logout(ctx, refresh); err != nil {
			slog.Debug("Token revocation failed", "error", err)
		}
	}
	m.Expire(ctx)
}

// Expire clears the session locally without contacting the backend.
func (m *Manager) Expire(ctx context.Context) {
	m.mu.Lock()
	if err := m.store.Clear(ctx); err != nil {
		slog.Warn("Could not clear stored session", "error", err)
	}
	m.creds = model.Credentials{}
	m.user = nil
	m.authenticated = false
	m.mu.Unlock()
	m.notify()
}

// UpdateUser replaces the cached user and persists it. Credentials are left
// untouched.
func (m *Manager) UpdateUser(ctx context.Context, u model.User) error {
	if u == nil {
		return fmt.Errorf("update user: nil user")
	}

	m.mu.Lock()
	if !m.authenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	if u.Role() != m.user.Role() {
		m.mu.Unlock()
		return fmt.Errorf("update user: role cannot change from %s to %s", m.user.Role(), u.Role())
	}
	p, err := newPersisted(m.creds, u)
	if err == nil {
		err = m.store.Save(ctx, p)
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("update user: %w", err)
	}
	m.user = u
	m.mu.Unlock()

	m.notify()
	return nil
}

// RefreshAccess exchanges the refresh token for a new access token. A 401
// ends the session.
func (m *Manager) RefreshAccess(ctx context.Context) error {
	m.mu.RLock()
	creds := m.creds
	m.mu.RUnlock()
	if creds.Refresh == "" {
		return ErrNotAuthenticated
	}

	fresh, err := m.api.RefreshToken(ctx, creds.Refresh)
	if err != nil {
		if client.IsUnauthorized(err) {
			m.Expire(ctx)
		}
		return err
	}
	if fresh.Refresh == "" {
		fresh.Refresh = creds.Refresh
	}

	m.mu.Lock()
	if !m.authenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	p, err := newPersisted(fresh, m.user)
	if err == nil {
		err = m.store.Save(ctx, p)
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("saving refreshed token: %w", err)
	}
	m.creds = fresh
	m.mu.Unlock()

	m.notify()
	return nil
}
