// ABOUTME: In-memory placement backend used by tests and the dev-server command
// ABOUTME: Serves the REST API under /api with a chi router and JWT authentication

package fakeapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markalston/placement-cli/internal/model"
)

// PageSize is the number of items per page on paginated lists.
const PageSize = 10

// Server is an in-memory implementation of the placement REST API. It is safe
// for concurrent use.
type Server struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	now        func() time.Time

	mu            sync.Mutex
	seq           int
	accounts      map[int]*account
	interns       map[int]*model.InternProfile
	companies     map[int]*model.CompanyProfile
	offers        map[int]*offerRow
	applications  map[int]*applicationRow
	notifications map[int]*notificationRow
	cvs           map[int][]byte
	revoked       map[string]bool
	failures      map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HS256 signing key. A random key is used otherwise.
func WithSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// WithTokenTTL sets access and refresh token lifetimes.
func WithTokenTTL(access, refresh time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = access
		s.refreshTTL = refresh
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBcryptCost sets the password hashing cost. Tests use the minimum.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// New creates an empty backend.
func New(opts ...Option) *Server {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	s := &Server{
		secret:        secret,
		accessTTL:     15 * time.Minute,
		refreshTTL:    24 * time.Hour,
		bcryptCost:    10,
		now:           time.Now,
		accounts:      map[int]*account{},
		interns:       map[int]*model.InternProfile{},
		companies:     map[int]*model.CompanyProfile{},
		offers:        map[int]*offerRow{},
		applications:  map[int]*applicationRow{},
		notifications: map[int]*notificationRow{},
		cvs:           map[int][]byte{},
		revoked:       map[string]bool{},
		failures:      map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailPath makes every request to path (under /api) answer with status until
// cleared with status 0.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// Handler returns the HTTP handler serving /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(logRequest)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.injectFailures)
		r.Use(s.authenticate)

		r.Post("/auth/register/stagiaire/", s.handleRegisterIntern)
		r.Post("/auth/register/entreprise/", s.handleRegisterCompany)
		r.Post("/auth/login/", s.handleLogin)
		r.Post("/auth/token/refresh/", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/logout/", s.handleLogout)
			r.Get("/auth/profile/", s.handleProfile)
			r.Patch("/auth/profile/stagiaire/update/", s.handleUpdateIntern)
			r.Put("/auth/profile/stagiaire/update/", s.handleUpdateIntern)
			r.Patch("/auth/profile/entreprise/update/", s.handleUpdateCompany)
			r.Put("/auth/profile/entreprise/update/", s.handleUpdateCompany)
			r.Get("/auth/cv/view/", s.handleViewCV)
			r.Get("/auth/cv/view/{internID}/", s.handleViewCV)

			r.Route("/auth/admin", func(r chi.Router) {
				r.Use(requireRole(model.RoleAdmin))
				r.Get("/users/", s.handleAdminUsers)
				r.Get("/users/{id}/", s.handleAdminUser)
				r.Patch("/users/{id}/", s.handleAdminPatchUser)
				r.Delete("/users/{id}/", s.handleAdminDeleteUser)
				r.Get("/stagiaires/", s.handleAdminInterns)
				r.Get("/stagiaires/{id}/", s.handleAdminIntern)
				r.Patch("/stagiaires/{id}/", s.handleAdminPatchIntern)
				r.Delete("/stagiaires/{id}/", s.handleAdminDeleteProfile(model.RoleIntern))
				r.Get("/entreprises/", s.handleAdminCompanies)
				r.Get("/entreprises/{id}/", s.handleAdminCompany)
				r.Patch("/entreprises/{id}/", s.handleAdminPatchCompany)
				r.Delete("/entreprises/{id}/", s.handleAdminDeleteProfile(model.RoleCompany))
			})

			r.Post("/stages/offres/", s.handleCreateOffer)
			r.Get("/stages/offres/my-offres/", s.handleMyOffers)
			r.Put("/stages/offres/{id}/", s.handleUpdateOffer)
			r.Patch("/stages/offres/{id}/", s.handleUpdateOffer)
			r.Delete("/stages/offres/{id}/", s.handleDeleteOffer)

			r.Get("/stages/candidatures/", s.handleListApplications)
			r.Post("/stages/candidatures/", s.handleCreateApplication)
			r.Get("/stages/candidatures/my-candidatures/", s.handleMyApplications)
			r.Get("/stages/candidatures/offre/{id}/candidatures/", s.handleOfferApplications)
			r.Get("/stages/candidatures/{id}/", s.handleGetApplication)
			r.Put("/stages/candidatures/{id}/", s.handleUpdateApplication)
			r.Patch("/stages/candidatures/{id}/", s.handleUpdateApplication)
			r.Delete("/stages/candidatures/{id}/", s.handleDeleteApplication)
			r.Post("/stages/candidatures/{id}/accept/", s.handleDecision(model.StatusAccepted))
			r.Post("/stages/candidatures/{id}/reject/", s.handleDecision(model.StatusRejected))

			r.Get("/notifications/", s.handleListNotifications)
			r.Get("/notifications/unread-count/", s.handleUnreadCount)
			r.Post("/notifications/mark-all-as-read/", s.handleMarkAllRead)
			r.Get("/notifications/{id}/", s.handleGetNotification)
			r.Post("/notifications/{id}/mark-as-read/", s.handleMarkRead)
		})

		r.Get("/stages/offres/", s.handleListOffers)
		r.Get("/stages/offres/{id}/", s.handleGetOffer)
	})

	r.Get("/media/cv/{internID}/{name}", s.handleMediaCV)

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// logRequest logs each request with the caller's X-Request-ID.
func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		slog.Debug("Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, ok := s.failures[strings.TrimPrefix(r.URL.Path, "/api")]
		s.mu.Unlock()
		if ok {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type accountKey struct{}

// authenticate resolves the bearer token, if any. An invalid token is a 401
// even on public endpoints.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		c, err := s.parse(token, tokenAccess)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}

		s.mu.Lock()
		a, ok := s.accounts[c.UserID]
		var snapshot account
		if ok {
			snapshot = *a
		}
		s.mu.Unlock()
		if !ok || !snapshot.IsActive {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "User not found",
				"code":   "user_not_found",
			})
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, &snapshot)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller(r) == nil {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a := caller(r); a == nil || a.Role != role {
				writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// caller returns the authenticated account, or nil for anonymous requests.
func caller(r *http.Request) *account {
	a, _ := r.Context().Value(accountKey{}).(*account)
	return a
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func writeFieldErrors(w http.ResponseWriter, errs model.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string][]string(errs))
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(v)
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	return id, err == nil && id > 0
}

func paginate[T any](r *http.Request, items []T) model.Page[T] {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	start := (page - 1) * PageSize
	end := min(start+PageSize, len(items))
	out := model.Page[T]{Count: len(items), Results: []T{}}
	if start < len(items) {
		out.Results = items[start:end]
	}
	if end < len(items) {
		next := pageURL(r, page+1)
		out.Next = &next
	}
	if page > 1 && start <= len(items) {
		prev := pageURL(r, page-1)
		out.Previous = &prev
	}
	return out
}

func pageURL(r *http.Request, page int) string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func notFound(w http.ResponseWriter) {
	writeDetail(w, http.StatusNotFound, "Not found.")
}
