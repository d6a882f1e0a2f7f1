// Package session keeps the admin credential pair for one API origin and
// wraps outgoing requests so callers never send an expired access token.
//
// A Manager is constructed once and handed to every component that talks to
// the API. All state lives in the credential store; nothing is cached in
// memory, so concurrent readers always see the last completed write.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/shopadmin-dev/shopadmin/internal/credstore"
)

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
	userKey         = "admin_user"

	loginPath   = "/auth/login/"
	refreshPath = "/auth/refresh/"

	networkErrorMessage = "Network error"
	loginFailedMessage  = "Login failed"
)

// Manager owns the credential lifecycle: login, logout, expiry detection,
// refresh and the authenticated request wrapper.
type Manager struct {
	baseURL    *url.URL
	store      credstore.Store
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
	onLogout   func()

	refreshGroup singleflight.Group
	scheduler    *refreshScheduler
}

// Option configures a Manager
type Option func(*Manager)

// WithHTTPClient sets the client used for every request
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithLogger sets the structured logger
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the wall clock used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogoutHook registers a callback run after every logout. The CLI uses
// it to point the user back at the login command.
func WithLogoutHook(fn func()) Option {
	return func(m *Manager) {
		m.onLogout = fn
	}
}

// New creates a Manager for the API at baseURL. Credentials are kept in store,
// scoped to the origin of baseURL.
func New(baseURL string, store credstore.Store, opts ...Option) (*Manager, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	origin := u.Scheme + "://" + u.Host
	m := &Manager{
		baseURL: u,
		store:   credstore.Scoped(store, origin),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("component", "session").Str("origin", origin).Logger()
	m.scheduler = newRefreshScheduler(m)

	return m, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// errorResponse covers both error shapes the API produces
type errorResponse struct {
	Detail         string   `json:"detail"`
	NonFieldErrors []string `json:"non_field_errors"`
}

// Login authenticates with the API and stores the returned credential.
// Failures are returned as *AuthError; nothing is stored on failure.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (*User, error) {
	body, err := json.Marshal(loginRequest{Email: identifier, Password: secret})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.resolve(loginPath), bytes.NewReader(body))
	if err != nil {
		return nil, &AuthError{Kind: NetworkFailure, Message: networkErrorMessage, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Login request failed")
		return nil, &AuthError{Kind: NetworkFailure, Message: networkErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		message := rejectionMessage(resp.Body, loginFailedMessage)
		m.logger.Info().Int("status", resp.StatusCode).Str("reason", message).Msg("Login rejected")
		return nil, &AuthError{Kind: AuthRejected, Message: message, StatusCode: resp.StatusCode}
	}

	var loginResp loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, &AuthError{Kind: NetworkFailure, Message: networkErrorMessage, Err: err}
	}
	if loginResp.Access == "" || loginResp.Refresh == "" || loginResp.User == nil {
		return nil, &AuthError{Kind: TokenInvalid, Message: loginFailedMessage, StatusCode: resp.StatusCode}
	}

	if err := m.setCredential(loginResp.Access, loginResp.Refresh, loginResp.User); err != nil {
		m.clearCredential()
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}

	m.logger.Info().
		Int("user_id", loginResp.User.ID).
		Str("email", loginResp.User.Email).
		Str("role", string(loginResp.User.Role())).
		Msg("Logged in")

	m.scheduler.reschedule()

	return loginResp.User, nil
}

// Logout clears the stored credential, cancels the background refresh and
// runs the logout hook. Safe to call without a credential.
func (m *Manager) Logout() {
	m.scheduler.cancel()
	m.clearCredential()
	m.logger.Info().Msg("Session cleared")

	if m.onLogout != nil {
		m.onLogout()
	}
}

// IsAuthenticated reports whether a full credential is stored and belongs to
// an Admin or SuperAdmin. Token expiry is deliberately not checked here; an
// expired access token is recovered (or the session ended) on the next Do.
func (m *Manager) IsAuthenticated() bool {
	if m.get(accessTokenKey) == "" || m.get(refreshTokenKey) == "" {
		return false
	}
	user := m.CurrentUser()
	return user != nil && user.Role().Privileged()
}

// CurrentUser returns the stored profile, or nil when none is stored
func (m *Manager) CurrentUser() *User {
	raw := m.get(userKey)
	if raw == "" {
		return nil
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.logger.Warn().Err(err).Msg("Stored user profile is unreadable")
		return nil
	}
	return &user
}

// IsTokenExpired reports whether token's exp claim lies in the past.
// Tokens that cannot be decoded are treated as expired.
func (m *Manager) IsTokenExpired(token string) bool {
	return isExpired(token, m.now())
}

// AccessTokenExpiry returns the expiry of the stored access token
func (m *Manager) AccessTokenExpiry() (time.Time, bool) {
	token := m.get(accessTokenKey)
	if token == "" {
		return time.Time{}, false
	}
	exp, err := tokenExpiry(token)
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token. On any failure the session is ended and ok is false; it never
// returns an error. Concurrent callers share a single in-flight refresh.
// The refresh token is kept unless the server rotates it by returning a
// replacement, which is then stored in its place.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, bool) {
	// The shared refresh must not be aborted by whichever caller happened to
	// start it.
	detached := context.WithoutCancel(ctx)

	result, _, _ := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		return m.refresh(detached), nil
	})

	token, _ := result.(string)
	return token, token != ""
}

func (m *Manager) refresh(ctx context.Context) string {
	refreshToken := m.get(refreshTokenKey)
	if refreshToken == "" || m.IsTokenExpired(refreshToken) {
		m.logger.Info().Str("reason", SessionExpired.String()).Msg("Refresh token missing or expired")
		m.Logout()
		return ""
	}

	body, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to marshal refresh request")
		m.Logout()
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.resolve(refreshPath), bytes.NewReader(body))
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to create refresh request")
		m.Logout()
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Warn().Err(err).Str("reason", NetworkFailure.String()).Msg("Token refresh failed")
		m.Logout()
		return ""
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		m.logger.Warn().
			Int("status", resp.StatusCode).
			Str("reason", rejectionMessage(resp.Body, "refresh rejected")).
			Msg("Token refresh rejected")
		m.Logout()
		return ""
	}

	var refreshResp refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshResp); err != nil || refreshResp.Access == "" {
		m.logger.Warn().Err(err).Str("reason", TokenInvalid.String()).Msg("Token refresh returned no access token")
		m.Logout()
		return ""
	}

	if err := m.store.Set(accessTokenKey, refreshResp.Access); err != nil {
		m.logger.Error().Err(err).Msg("Failed to save refreshed access token")
		m.Logout()
		return ""
	}

	// Servers that rotate refresh tokens return the replacement alongside the
	// access token; the old one is no longer accepted.
	if refreshResp.Refresh != "" && refreshResp.Refresh != refreshToken {
		if err := m.store.Set(refreshTokenKey, refreshResp.Refresh); err != nil {
			m.logger.Error().Err(err).Msg("Failed to save rotated refresh token")
			m.Logout()
			return ""
		}
	}

	m.logger.Debug().Msg("Access token refreshed")
	m.scheduler.reschedule()

	return refreshResp.Access
}

// Do sends req with the current access token, refreshing it first when it
// is missing or expired. A 401 answer triggers exactly one refresh and, if
// that yields a token, exactly one retry whose response is returned as-is.
// If the refresh fails the original 401 response is returned.
//
// Relative request URLs are resolved against the Manager's base URL.
// Headers set on req take precedence over the defaults.
func (m *Manager) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	token := m.get(accessTokenKey)
	if token == "" || m.IsTokenExpired(token) {
		refreshed, ok := m.RefreshAccessToken(ctx)
		if !ok {
			return nil, ErrAuthenticationRequired
		}
		token = refreshed
	}

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	first, err := m.prepare(req, getBody, token, false)
	if err != nil {
		return nil, err
	}

	resp, err := m.httpClient.Do(first)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	m.logger.Debug().Str("url", first.URL.String()).Msg("Access token rejected, refreshing")

	refreshed, ok := m.RefreshAccessToken(ctx)
	if !ok {
		return resp, nil
	}

	retry, err := m.prepare(req, getBody, refreshed, true)
	if err != nil {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return m.httpClient.Do(retry)
}

// prepare builds the outgoing copy of req carrying token. The retry always
// carries the refreshed token even if the caller set Authorization itself.
func (m *Manager) prepare(req *http.Request, getBody func() (io.ReadCloser, error), token string, forceToken bool) (*http.Request, error) {
	out := req.Clone(req.Context())

	if !out.URL.IsAbs() {
		out.URL = m.baseURL.ResolveReference(out.URL)
		out.Host = ""
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Content-Type", "application/json")
	for key, values := range req.Header {
		header[key] = append([]string(nil), values...)
	}
	if forceToken {
		header.Set("Authorization", "Bearer "+token)
	}
	out.Header = header

	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		out.Body = body
		out.GetBody = getBody
	}

	return out, nil
}

// replayableBody returns a function producing fresh copies of req's body so
// it can be sent twice. The body is buffered when req cannot rewind it.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func (m *Manager) setCredential(access, refresh string, user *User) error {
	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := m.store.Set(accessTokenKey, access); err != nil {
		return err
	}
	if err := m.store.Set(refreshTokenKey, refresh); err != nil {
		return err
	}
	return m.store.Set(userKey, string(profile))
}

func (m *Manager) clearCredential() {
	for _, key := range []string{accessTokenKey, refreshTokenKey, userKey} {
		if err := m.store.Delete(key); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to clear stored credential")
		}
	}
}

// get reads a stored value, treating read failures as absence
func (m *Manager) get(key string) string {
	value, err := m.store.Get(key)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to read stored credential")
		}
		return ""
	}
	return value
}

func (m *Manager) resolve(path string) string {
	return m.baseURL.ResolveReference(&url.URL{Path: path}).String()
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// rejectionMessage extracts the server-provided reason from an error body
func rejectionMessage(body io.Reader, fallback string) string {
	var errResp errorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return fallback
	}
	if errResp.Detail != "" {
		return errResp.Detail
	}
	if len(errResp.NonFieldErrors) > 0 && errResp.NonFieldErrors[0] != "" {
		return errResp.NonFieldErrors[0]
	}
	return fallback
}
