// ABOUTME: Notification endpoints of the placement API
// ABOUTME: Unread count, filtered listing and read-state updates

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/markalston/placement-cli/internal/model"
)

// UnreadCount calls GET /notifications/unread-count/
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/notifications/unread-count/"}, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// ListNotifications calls GET /notifications/. A nil isRead lists everything.
func (c *Client) ListNotifications(ctx context.Context, isRead *bool) ([]model.Notification, error) {
	var q url.Values
	if isRead != nil {
		q = url.Values{"is_read": {strconv.FormatBool(*isRead)}}
	}
	data, err := c.doRaw(ctx, request{method: http.MethodGet, path: "/notifications/", query: q})
	if err != nil {
		return nil, err
	}
	page, err := model.DecodeList[model.Notification](data)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// GetNotification calls GET /notifications/{id}/
func (c *Client) GetNotification(ctx context.Context, id int) (*model.Notification, error) {
	var out model.Notification
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/notifications/%d/", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead calls POST /notifications/{id}/mark-as-read/
func (c *Client) MarkRead(ctx context.Context, id int) error {
	return c.do(ctx, request{method: http.MethodPost, path: fmt.Sprintf("/notifications/%d/mark-as-read/", id)}, nil)
}

// MarkAllRead calls POST /notifications/mark-all-as-read/
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/notifications/mark-all-as-read/"}, nil)
}
