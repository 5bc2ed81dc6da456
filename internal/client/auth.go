// ABOUTME: Authentication and profile endpoints of the placement API
// ABOUTME: Covers login, registration, logout, token refresh, profile and CV management

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/markalston/placement-cli/internal/model"
)

// MaxCVSize is the largest CV the backend accepts.
const MaxCVSize = 10 << 20

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Message string             `json:"message"`
	User    model.UserEnvelope `json:"user"`
	Tokens  model.Credentials  `json:"tokens"`
}

// InternRegistration is the payload for POST /auth/register/stagiaire/.
type InternRegistration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	LastName        string `json:"nom"`
	FirstName       string `json:"prenom"`
	Phone           string `json:"telephone"`
	Address         string `json:"adresse"`
	City            string `json:"ville"`
	StudyLevel      string `json:"niveau_etude"`
	Domain          string `json:"domaine"`
}

// CompanyRegistration is the payload for POST /auth/register/entreprise/.
type CompanyRegistration struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	PasswordConfirm  string `json:"password_confirm"`
	CompanyName      string `json:"nom_entreprise"`
	Sector           string `json:"secteur_activite"`
	Phone            string `json:"telephone"`
	Address          string `json:"adresse"`
	City             string `json:"ville"`
	ContactLastName  string `json:"contact_nom"`
	ContactFirstName string `json:"contact_prenom"`
}

func (r *AuthResponse) validate() error {
	if r.User.User == nil || r.Tokens.Access == "" {
		return fmt.Errorf("invalid response from backend: missing user or tokens")
	}
	return nil
}

// Login calls POST /auth/login/
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login/",
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterIntern calls POST /auth/register/stagiaire/
func (c *Client) RegisterIntern(ctx context.Context, reg InternRegistration) (*AuthResponse, error) {
	return c.register(ctx, "/auth/register/stagiaire/", reg)
}

// RegisterCompany calls POST /auth/register/entreprise/
func (c *Client) RegisterCompany(ctx context.Context, reg CompanyRegistration) (*AuthResponse, error) {
	return c.register(ctx, "/auth/register/entreprise/", reg)
}

func (c *Client) register(ctx context.Context, path string, payload any) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: payload}, &out); err != nil {
		return nil, err
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout calls POST /auth/logout/ to revoke the refresh token.
func (c *Client) Logout(ctx context.Context, refresh string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout/",
		body:   map[string]string{"refresh_token": refresh},
	}, nil)
}

// RefreshToken exchanges a refresh token for a new access token. The refresh
// token in the result is empty unless the backend rotates it.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (model.Credentials, error) {
	var out model.Credentials
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/token/refresh/",
		body:   map[string]string{"refresh": refresh},
	}, &out)
	if err != nil {
		return model.Credentials{}, err
	}
	if out.Access == "" {
		return model.Credentials{}, fmt.Errorf("invalid response from backend: missing access token")
	}
	return out, nil
}

// Profile calls GET /auth/profile/
func (c *Client) Profile(ctx context.Context) (model.User, error) {
	data, err := c.doRaw(ctx, request{method: http.MethodGet, path: "/auth/profile/"})
	if err != nil {
		return nil, err
	}
	u, err := model.DecodeUser(data)
	if err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	return u, nil
}

// UpdateInternProfile calls PATCH /auth/profile/stagiaire/update/ with the
// given fields.
func (c *Client) UpdateInternProfile(ctx context.Context, fields map[string]any) (*model.InternProfile, error) {
	var out model.InternProfile
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/auth/profile/stagiaire/update/",
		body:   fields,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCompanyProfile calls PATCH /auth/profile/entreprise/update/ with the
// given fields.
func (c *Client) UpdateCompanyProfile(ctx context.Context, fields map[string]any) (*model.CompanyProfile, error) {
	var out model.CompanyProfile
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/auth/profile/entreprise/update/",
		body:   fields,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckCV verifies that a file can be uploaded as a CV.
func CheckCV(name string, size int64) error {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return fmt.Errorf("CV must be a PDF file")
	}
	if size > MaxCVSize {
		return fmt.Errorf("CV must be at most 10 MB, got %.1f MB", float64(size)/(1<<20))
	}
	if size == 0 {
		return fmt.Errorf("CV file is empty")
	}
	return nil
}

// UploadCV sends a PDF as the intern's cv_file via a multipart PATCH.
func (c *Client) UploadCV(ctx context.Context, name string, r io.Reader, size int64) (*model.InternProfile, error) {
	if err := CheckCV(name, size); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("cv_file", filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(r, MaxCVSize+1)); err != nil {
		return nil, fmt.Errorf("failed to read CV: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	var out model.InternProfile
	err = c.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/auth/profile/stagiaire/update/",
		raw:         &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCV clears the intern's cv_file.
func (c *Client) DeleteCV(ctx context.Context) (*model.InternProfile, error) {
	return c.UpdateInternProfile(ctx, map[string]any{"cv_file": nil})
}

// ViewCV downloads a CV. A zero internID fetches the caller's own CV; admins
// may pass an intern profile ID.
func (c *Client) ViewCV(ctx context.Context, internID int) ([]byte, error) {
	path := "/auth/cv/view/"
	if internID > 0 {
		path = fmt.Sprintf("/auth/cv/view/%d/", internID)
	}
	return c.doRaw(ctx, request{method: http.MethodGet, path: path, blob: true})
}

