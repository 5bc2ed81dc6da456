// ABOUTME: Internship offer and application endpoints of the placement API
// ABOUTME: Offer list responses are cached per query and invalidated on any mutation

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/markalston/placement-cli/internal/model"
)

func offerQuery(f model.OfferFilter) url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.City != "" {
		q.Set("ville", f.City)
	}
	if f.Domain != "" {
		q.Set("domaine", f.Domain)
	}
	if f.Active != nil {
		q.Set("est_active", strconv.FormatBool(*f.Active))
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// ListOffers calls GET /stages/offres/
func (c *Client) ListOffers(ctx context.Context, f model.OfferFilter) (model.Page[model.Offer], error) {
	q := offerQuery(f)
	key := "offers?" + q.Encode()
	if c.offers != nil {
		if page, ok := c.offers.Get(key); ok {
			return page, nil
		}
	}

	page, err := c.listOffers(ctx, "/stages/offres/", q)
	if err != nil {
		return page, err
	}
	if c.offers != nil {
		c.offers.Set(key, page)
	}
	return page, nil
}

// MyOffers calls GET /stages/offres/my-offres/
func (c *Client) MyOffers(ctx context.Context) (model.Page[model.Offer], error) {
	return c.listOffers(ctx, "/stages/offres/my-offres/", nil)
}

func (c *Client) listOffers(ctx context.Context, path string, q url.Values) (model.Page[model.Offer], error) {
	data, err := c.doRaw(ctx, request{method: http.MethodGet, path: path, query: q})
	if err != nil {
		return model.Page[model.Offer]{}, err
	}
	return model.DecodeList[model.Offer](data)
}

// GetOffer calls GET /stages/offres/{id}/
func (c *Client) GetOffer(ctx context.Context, id int) (*model.Offer, error) {
	var out model.Offer
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/stages/offres/%d/", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOffer calls POST /stages/offres/
func (c *Client) CreateOffer(ctx context.Context, in model.OfferInput) (*model.Offer, error) {
	var out model.Offer
	if err := c.do(ctx, request{method: http.MethodPost, path: "/stages/offres/", body: in}, &out); err != nil {
		return nil, err
	}
	c.invalidateOffers()
	return &out, nil
}

// UpdateOffer calls PUT /stages/offres/{id}/
func (c *Client) UpdateOffer(ctx context.Context, id int, in model.OfferInput) (*model.Offer, error) {
	var out model.Offer
	if err := c.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/stages/offres/%d/", id), body: in}, &out); err != nil {
		return nil, err
	}
	c.invalidateOffers()
	return &out, nil
}

// DeleteOffer calls DELETE /stages/offres/{id}/
func (c *Client) DeleteOffer(ctx context.Context, id int) error {
	if err := c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/stages/offres/%d/", id)}, nil); err != nil {
		return err
	}
	c.invalidateOffers()
	return nil
}

func (c *Client) invalidateOffers() {
	if c.offers != nil {
		c.offers.Purge()
	}
}

// ListApplications calls GET /stages/candidatures/, optionally for one offer.
func (c *Client) ListApplications(ctx context.Context, offerID int) (model.Page[model.Application], error) {
	var q url.Values
	if offerID > 0 {
		q = url.Values{"offre_id": {strconv.Itoa(offerID)}}
	}
	return c.listApplications(ctx, "/stages/candidatures/", q)
}

// MyApplications calls GET /stages/candidatures/my-candidatures/
func (c *Client) MyApplications(ctx context.Context) (model.Page[model.Application], error) {
	return c.listApplications(ctx, "/stages/candidatures/my-candidatures/", nil)
}

// ApplicationsForOffer calls GET /stages/candidatures/offre/{id}/candidatures/
func (c *Client) ApplicationsForOffer(ctx context.Context, offerID int) (model.Page[model.Application], error) {
	return c.listApplications(ctx, fmt.Sprintf("/stages/candidatures/offre/%d/candidatures/", offerID), nil)
}

func (c *Client) listApplications(ctx context.Context, path string, q url.Values) (model.Page[model.Application], error) {
	data, err := c.doRaw(ctx, request{method: http.MethodGet, path: path, query: q})
	if err != nil {
		return model.Page[model.Application]{}, err
	}
	return model.DecodeList[model.Application](data)
}

// GetApplication calls GET /stages/candidatures/{id}/
func (c *Client) GetApplication(ctx context.Context, id int) (*model.Application, error) {
	var out model.Application
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/stages/candidatures/%d/", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Apply calls POST /stages/candidatures/
func (c *Client) Apply(ctx context.Context, in model.ApplicationInput) (*model.Application, error) {
	var out model.Application
	if err := c.do(ctx, request{method: http.MethodPost, path: "/stages/candidatures/", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCoverLetter calls PATCH /stages/candidatures/{id}/
func (c *Client) UpdateCoverLetter(ctx context.Context, id int, letter string) (*model.Application, error) {
	var out model.Application
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/stages/candidatures/%d/", id),
		body:   map[string]string{"lettre_motivation": letter},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WithdrawApplication calls DELETE /stages/candidatures/{id}/
func (c *Client) WithdrawApplication(ctx context.Context, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/stages/candidatures/%d/", id)}, nil)
}

type decisionResponse struct {
	Message     string            `json:"message"`
	Application model.Application `json:"candidature"`
}

// AcceptApplication calls POST /stages/candidatures/{id}/accept/
func (c *Client) AcceptApplication(ctx context.Context, id int) (*model.Application, error) {
	return c.decide(ctx, id, "accept")
}

// RejectApplication calls POST /stages/candidatures/{id}/reject/
func (c *Client) RejectApplication(ctx context.Context, id int) (*model.Application, error) {
	return c.decide(ctx, id, "reject")
}

func (c *Client) decide(ctx context.Context, id int, action string) (*model.Application, error) {
	var out decisionResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/stages/candidatures/%d/%s/", id, action),
	}, &out)
	if err != nil {
		return nil, err
	}
	// Accepting changes places_prises on the offer.
	c.invalidateOffers()
	return &out.Application, nil
}
