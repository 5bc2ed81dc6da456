// ABOUTME: Tests for the placement API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/markalston/placement-cli/internal/model"
)

const loginBody = `{
	"message": "ok",
	"user": {"id": 1, "email": "a@b.com", "role": "STAGIAIRE", "is_active": true,
		"stagiaire_profile": {"nom": "Diallo", "prenom": "Awa"}},
	"tokens": {"refresh": "t2", "access": "t1"}
}`

func TestLogin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login/" {
			t.Errorf("expected path /api/auth/login/, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.com" || body["password"] != "pw" {
			t.Errorf("unexpected body %v", body)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, loginBody)
	}))
	defer server.Close()

	c := New(server.URL + "/api")
	resp, err := c.Login(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Tokens.Access != "t1" || resp.Tokens.Refresh != "t2" {
		t.Errorf("unexpected tokens %+v", resp.Tokens)
	}
	if resp.User.User.Role() != model.RoleIntern {
		t.Errorf("expected STAGIAIRE, got %s", resp.User.User.Role())
	}
}

func TestLogin_UnauthorizedDoesNotTearDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Invalid credentials"}`)
	}))
	defer server.Close()

	var fired atomic.Int32
	c := New(server.URL)
	c.OnUnauthorized(func() { fired.Add(1) })

	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if got := LoginMessage(err, "fallback"); got != "Invalid credentials" {
		t.Errorf("expected 'Invalid credentials', got %q", got)
	}
	if fired.Load() != 0 {
		t.Error("login 401 must not trigger session teardown")
	}
}

func TestLoginMessage_TransportErrorUsesFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url).Login(context.Background(), "a@b.com", "pw")
	if KindOf(err) != KindTransient {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := LoginMessage(err, "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := RegisterMessage(err, "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer t1" {
			t.Errorf("expected bearer header, got %q", got)
		}
		io.WriteString(w, `{"unread_count": 4}`)
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetTokenSource(TokenFunc(func() string { return "t1" }))

	n, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4, got %d", n)
	}
}

func TestUnauthorized_FiresOncePerBurst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"token expired"}`)
	}))
	defer server.Close()

	var fired atomic.Int32
	c := New(server.URL)
	c.OnUnauthorized(func() { fired.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.UnreadCount(context.Background())
		}()
	}
	wg.Wait()

	if fired.Load() != 1 {
		t.Errorf("expected exactly one teardown, got %d", fired.Load())
	}

	c.ResetUnauthorized()
	c.MarkAllRead(context.Background())
	if fired.Load() != 2 {
		t.Errorf("expected teardown to re-arm after reset, got %d", fired.Load())
	}
}

func TestProfileUnauthorized_LeftToCaller(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	var fired atomic.Int32
	c := New(server.URL)
	c.OnUnauthorized(func() { fired.Add(1) })

	_, err := c.Profile(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if fired.Load() != 0 {
		t.Error("profile 401 must be handled by the caller")
	}
}

func TestViewCV_ForbiddenTearsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var fired atomic.Int32
	c := New(server.URL)
	c.OnUnauthorized(func() { fired.Add(1) })

	if _, err := c.ViewCV(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
	if fired.Load() != 1 {
		t.Errorf("expected blob 403 to tear down the session, got %d calls", fired.Load())
	}
}

func TestConnectionError_IsTransient(t *testing.T) {
	c := New("http://localhost:99999")
	_, err := c.UnreadCount(context.Background())
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	if KindOf(err) != KindTransient {
		t.Errorf("expected transient kind, got %s", KindOf(err))
	}
	if !strings.Contains(err.Error(), "cannot connect to backend") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		io.WriteString(w, `{"unread_count": 1}`)
	}))
	defer server.Close()

	c := New(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.UnreadCount(ctx)
	if KindOf(err) != KindCanceled {
		t.Errorf("expected canceled kind, got %v", err)
	}
}

func TestServerError_IsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.ListNotifications(context.Background(), nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindTransient || apiErr.Status != 500 {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if err.Error() != "backend error: internal error" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestListNotifications_FilterAndShapes(t *testing.T) {
	tests := []struct {
		name      string
		isRead    *bool
		wantQuery string
		body      string
	}{
		{name: "unread paginated", isRead: ptr(false), wantQuery: "is_read=false", body: `{"count":1,"results":[{"id":1,"is_read":false}]}`},
		{name: "read bare", isRead: ptr(true), wantQuery: "is_read=true", body: `[{"id":1,"is_read":true}]`},
		{name: "all", wantQuery: "", body: `[{"id":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.RawQuery != tt.wantQuery {
					t.Errorf("expected query %q, got %q", tt.wantQuery, r.URL.RawQuery)
				}
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			items, err := New(server.URL).ListNotifications(context.Background(), tt.isRead)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != 1 {
				t.Errorf("expected 1 item, got %d", len(items))
			}
		})
	}
}

func TestRegisterMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string body", body: `"Server is busy"`, want: "Server is busy"},
		{name: "error key", body: `{"error":"Already registered"}`, want: "Already registered"},
		{name: "detail key", body: `{"detail":"Bad input"}`, want: "Bad input"},
		{name: "field errors", body: `{"email":["Email taken"],"password":["Too short","Too common"]}`, want: "Email taken, Too short, Too common"},
		{name: "field errors keep document order", body: `{"password":["Too short"],"email":["Email taken"]}`, want: "Too short, Email taken"},
		{name: "empty object", body: `{}`, want: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{Status: 400, Kind: KindValidation, Body: []byte(tt.body)}
			if got := RegisterMessage(err, "fallback"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUploadCV_Multipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		file, header, err := r.FormFile("cv_file")
		if err != nil {
			t.Fatalf("expected cv_file part: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "cv.pdf" || string(data) != "%PDF-1.4" {
			t.Errorf("unexpected upload %s %q", header.Filename, data)
		}
		io.WriteString(w, `{"nom":"Diallo","prenom":"Awa","cv_file":"/media/cvs/cv.pdf"}`)
	}))
	defer server.Close()

	profile, err := New(server.URL).UploadCV(context.Background(), "/tmp/cv.pdf", strings.NewReader("%PDF-1.4"), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.HasCV() {
		t.Error("expected profile to report a CV")
	}
}

func TestCheckCV(t *testing.T) {
	if err := CheckCV("resume.docx", 100); err == nil {
		t.Error("expected non-PDF to be rejected")
	}
	if err := CheckCV("resume.PDF", MaxCVSize+1); err == nil {
		t.Error("expected oversize CV to be rejected")
	}
	if err := CheckCV("resume.PDF", MaxCVSize); err != nil {
		t.Errorf("expected 10 MB PDF to pass, got %v", err)
	}
}

func TestListOffers_CachedUntilMutation(t *testing.T) {
	var listCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listCalls.Add(1)
			if r.URL.Query().Get("ville") != "Dakar" {
				t.Errorf("expected ville filter, got %q", r.URL.RawQuery)
			}
			io.WriteString(w, `{"count":1,"results":[{"id":1,"titre":"Go intern"}]}`)
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id":2,"titre":"New"}`)
		}
	}))
	defer server.Close()

	c := New(server.URL, WithOfferCacheTTL(time.Minute))
	defer c.Close()
	ctx := context.Background()
	filter := model.OfferFilter{City: "Dakar"}

	for i := 0; i < 2; i++ {
		page, err := c.ListOffers(ctx, filter)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Results) != 1 {
			t.Fatalf("expected 1 offer, got %d", len(page.Results))
		}
	}
	if listCalls.Load() != 1 {
		t.Errorf("expected second list to be cached, got %d calls", listCalls.Load())
	}

	if _, err := c.CreateOffer(ctx, model.OfferInput{Title: "New"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.ListOffers(ctx, filter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listCalls.Load() != 2 {
		t.Errorf("expected cache to be purged after create, got %d calls", listCalls.Load())
	}
}

func TestAcceptApplication_DecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stages/candidatures/9/accept/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"message":"ok","candidature":{"id":9,"statut":"ACCEPTEE"}}`)
	}))
	defer server.Close()

	app, err := New(server.URL).AcceptApplication(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Status != model.StatusAccepted {
		t.Errorf("expected ACCEPTEE, got %s", app.Status)
	}
}

func TestSOCKS5DialContext_Rejects(t *testing.T) {
	dir := t.TempDir()
	key := filepath.Join(dir, "id_rsa")
	if err := os.WriteFile(key, []byte("not-a-key"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		proxy string
	}{
		{name: "traversal", proxy: "ssh+socks5://user@host:22?private-key=../../../etc/passwd"},
		{name: "missing key", proxy: "ssh+socks5://user@host:22"},
		{name: "directory key", proxy: "ssh+socks5://user@host:22?private-key=" + dir},
		{name: "wrong scheme", proxy: "http://user@host:22?private-key=" + key},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SOCKS5DialContext(tt.proxy); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := SOCKS5DialContext("ssh+socks5://user@host:22?private-key=" + key); err != nil {
		t.Errorf("expected valid proxy URL to build a dialer lazily, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
