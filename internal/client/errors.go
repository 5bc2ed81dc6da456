// ABOUTME: Typed API errors classified by kind (unauthorized, validation, transient)
// ABOUTME: Extracts human-readable messages from the backend's error bodies

package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an API failure by how callers should react to it.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindTransient
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusTooManyRequests, status >= 500:
		return KindTransient
	default:
		return KindUnknown
	}
}

// APIError is returned for every failed API call.
type APIError struct {
	Status int
	Kind   Kind
	Path   string
	// Body is the raw response body, if any.
	Body []byte

	msg string
	err error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		if e.err != nil {
			return fmt.Sprintf("%s: %v", e.msg, e.err)
		}
		return e.msg
	}
	if msg := e.Message(); msg != "" {
		return "backend error: " + msg
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.err }

// Message returns the most specific human-readable message in the body:
// error, then detail, then message, then every field message joined.
// Transport failures return their description.
func (e *APIError) Message() string {
	if e.Status == 0 {
		return e.msg
	}
	if msg := firstKey(e.Body, "error", "detail", "message"); msg != "" {
		return msg
	}
	if s, ok := bodyString(e.Body); ok {
		return s
	}
	return strings.Join(FieldMessages(e.Body), ", ")
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// LoginMessage picks the message shown after a failed login: error, then
// detail, then message, then fallback. Transport failures get the fallback.
func LoginMessage(err error, fallback string) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return fallback
	}
	if apiErr.Status == 0 {
		return fallback
	}
	if msg := firstKey(apiErr.Body, "error", "detail", "message"); msg != "" {
		return msg
	}
	return fallback
}

// RegisterMessage picks the message shown after a failed registration: a
// plain-string body, then error, then detail, then every field message joined
// with ", ", then fallback.
func RegisterMessage(err error, fallback string) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return fallback
	}
	if apiErr.Status == 0 {
		return fallback
	}
	if s, ok := bodyString(apiErr.Body); ok && s != "" {
		return s
	}
	if msg := firstKey(apiErr.Body, "error", "detail"); msg != "" {
		return msg
	}
	if msgs := FieldMessages(apiErr.Body); len(msgs) > 0 {
		return strings.Join(msgs, ", ")
	}
	return fallback
}

// FieldMessages flattens a {"field": ["msg", ...]} body into its messages in
// document order.
func FieldMessages(body []byte) []string {
	var msgs []string
	for _, f := range orderedFields(body) {
		msgs = append(msgs, flatten(f.value)...)
	}
	return msgs
}

// FieldErrors returns the body as a field-to-messages map.
func FieldErrors(body []byte) map[string][]string {
	out := map[string][]string{}
	for _, f := range orderedFields(body) {
		if m := flatten(f.value); len(m) > 0 {
			out[f.key] = m
		}
	}
	return out
}

type field struct {
	key   string
	value json.RawMessage
}

// orderedFields decodes a top-level JSON object preserving key order.
func orderedFields(body []byte) []field {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	var fields []field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fields
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fields
		}
		fields = append(fields, field{key: key, value: raw})
	}
	return fields
}

// flatten turns a string, list, or nested object into its string leaves.
func flatten(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, flatten(item)...)
		}
		return out
	}

	var out []string
	for _, f := range orderedFields(raw) {
		out = append(out, flatten(f.value)...)
	}
	return out
}

func firstKey(body []byte, keys ...string) string {
	fields := orderedFields(body)
	for _, k := range keys {
		for _, f := range fields {
			if f.key != k {
				continue
			}
			if msgs := flatten(f.value); len(msgs) > 0 {
				return strings.Join(msgs, ", ")
			}
		}
	}
	return ""
}

func bodyString(body []byte) (string, bool) {
	var s string
	if err := json.Unmarshal(body, &s); err != nil {
		return "", false
	}
	return s, true
}
