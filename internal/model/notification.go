// ABOUTME: Notification records delivered by the backend
// ABOUTME: Defines notification types and the paginated list envelope

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NotificationType identifies the event a notification reports.
type NotificationType string

const (
	NotifNewApplication      NotificationType = "NOUVELLE_CANDIDATURE"
	NotifApplicationAccepted NotificationType = "CANDIDATURE_ACCEPTEE"
	NotifApplicationRejected NotificationType = "CANDIDATURE_REFUSEE"
	NotifOfferApproved       NotificationType = "OFFRE_VALIDEE"
	NotifOfferRejected       NotificationType = "OFFRE_REFUSEE"
	NotifNewIntern           NotificationType = "NOUVEAU_STAGIAIRE"
)

// Notification is a single message addressed to the current user.
type Notification struct {
	ID                int              `json:"id"`
	Type              NotificationType `json:"type"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	IsRead            bool             `json:"is_read"`
	RelatedObjectType string           `json:"related_object_type,omitempty"`
	RelatedObjectID   *int             `json:"related_object_id,omitempty"`
	CreatedAt         string           `json:"created_at"`
}

// Page is the backend's paginated list envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// DecodeList accepts either a paginated envelope or a bare JSON array.
func DecodeList[T any](data []byte) (Page[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, fmt.Errorf("decoding list: %w", err)
		}
		return Page[T]{Count: len(items), Results: items}, nil
	}

	var page Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return Page[T]{}, fmt.Errorf("decoding list: %w", err)
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return page, nil
}
