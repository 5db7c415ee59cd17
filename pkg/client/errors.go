package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
	ErrInvalid      = errors.New("api: invalid request")
	ErrUpstream     = errors.New("api: upstream error")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
	cause  error
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Detail)
}

func (e *APIError) Unwrap() error { return e.cause }

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, Status: status, Detail: parseDetail(body)}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.cause = ErrUnauthorized
	case status == http.StatusNotFound:
		e.cause = ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.cause = ErrInvalid
	default:
		e.cause = ErrUpstream
	}
	return e
}

// parseDetail extracts FastAPI's {"detail": ...}. String details are
// returned as-is; structured ones (validation errors) as compact JSON.
// Non-JSON bodies are returned trimmed.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
