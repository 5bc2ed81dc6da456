// ABOUTME: Administrator endpoints for managing accounts and profiles
// ABOUTME: Lists, updates and deletes users, interns and companies

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/markalston/placement-cli/internal/model"
)

// AdminResource names an admin-managed collection.
type AdminResource string

const (
	AdminUsers     AdminResource = "users"
	AdminInterns   AdminResource = "stagiaires"
	AdminCompanies AdminResource = "entreprises"
)

// ListUsers calls GET /auth/admin/users/
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	data, err := c.doRaw(ctx, request{method: http.MethodGet, path: "/auth/admin/users/"})
	if err != nil {
		return nil, err
	}
	page, err := model.DecodeList[json.RawMessage](data)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(page.Results))
	for _, raw := range page.Results {
		u, err := model.DecodeUser(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid response from backend: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// ListInterns calls GET /auth/admin/stagiaires/
func (c *Client) ListInterns(ctx context.Context) ([]model.InternProfile, error) {
	data, err := c.doRaw(ctx, request{method: http.MethodGet, path: "/auth/admin/stagiaires/"})
	if err != nil {
		return nil, err
	}
	page, err := model.DecodeList[model.InternProfile](data)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ListCompanies calls GET /auth/admin/entreprises/
func (c *Client) ListCompanies(ctx context.Context) ([]model.CompanyProfile, error) {
	data, err := c.doRaw(ctx, request{method: http.MethodGet, path: "/auth/admin/entreprises/"})
	if err != nil {
		return nil, err
	}
	page, err := model.DecodeList[model.CompanyProfile](data)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// SetUserActive calls PATCH /auth/admin/users/{id}/ to enable or disable an
// account.
func (c *Client) SetUserActive(ctx context.Context, id int, active bool) (model.User, error) {
	data, err := c.doRaw(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/auth/admin/users/%d/", id),
		body:   map[string]bool{"is_active": active},
	})
	if err != nil {
		return nil, err
	}
	u, err := model.DecodeUser(data)
	if err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	return u, nil
}

// AdminDelete calls DELETE /auth/admin/{resource}/{id}/
func (c *Client) AdminDelete(ctx context.Context, resource AdminResource, id int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/auth/admin/%s/%d/", resource, id),
	}, nil)
}
