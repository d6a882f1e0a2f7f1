// Package client is a typed client for the shop back-office API. Every call
// goes through an authenticated session, which attaches and refreshes the
// admin's access token.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/shopadmin-dev/shopadmin/internal/session"
)

// Session sends authenticated requests. *session.Manager satisfies it.
type Session interface {
	Do(req *http.Request) (*http.Response, error)
	Logout()
}

// APIError is returned for any non-2xx answer other than 401
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	if reason := e.Reason(); reason != "" {
		msg += " (" + reason + ")"
	}
	return msg
}

// Reason returns the explanation carried by the error body: its detail
// message, or each field error as "field: message" ordered by field.
func (e *APIError) Reason() string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal([]byte(e.Body), &body); err != nil {
		return ""
	}
	if raw, ok := body["detail"]; ok {
		var detail string
		if err := json.Unmarshal(raw, &detail); err == nil {
			return detail
		}
	}

	fields := make([]string, 0, len(body))
	for field := range body {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		var messages []string
		if err := json.Unmarshal(body[field], &messages); err != nil || len(messages) == 0 {
			continue
		}
		parts = append(parts, field+": "+strings.Join(messages, " "))
	}
	return strings.Join(parts, "; ")
}

// Client represents an HTTP client for the back-office API
type Client struct {
	session Session
	logger  zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the structured logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new API client on top of an authenticated session
func New(s Session, opts ...Option) *Client {
	c := &Client{
		session: s,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "apiclient").Logger()
	return c
}

// ListParams are the query parameters shared by list endpoints
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Ordering string
	Filters  map[string]string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", fmt.Sprint(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", fmt.Sprint(p.PageSize))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Ordering != "" {
		q.Set("ordering", p.Ordering)
	}
	for key, value := range p.Filters {
		if value != "" {
			q.Set(key, value)
		}
	}
	return q
}

// request sends one call and decodes a JSON answer into out (when non-nil).
// A 401 that survives the session's refresh ends the session.
func (c *Client) request(method, path string, query url.Values, body, out interface{}) error {
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := ulid.Make().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")

	logger := c.logger.With().Str("method", method).Str("path", path).Str("request_id", requestID).Logger()

	resp, err := c.session.Do(req)
	if err != nil {
		if errors.Is(err, session.ErrAuthenticationRequired) {
			return err
		}
		logger.Debug().Err(err).Msg("API request failed")
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		logger.Info().Msg("API rejected the session")
		c.session.Logout()
		return session.ErrAuthenticationRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Debug().Int("status", resp.StatusCode).Msg("API request unsuccessful")
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(raw),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
