package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shopadmin-dev/shopadmin/internal/config"
)

const (
	testAdminEmail    = "admin@shop.test"
	testAdminPassword = "admin123"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "shop.sqlite")},
		Server:   config.ServerConfig{Address: "127.0.0.1:0", AllowedOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Seed: config.SeedConfig{
			AdminEmail:    testAdminEmail,
			AdminPassword: testAdminPassword,
			DemoData:      true,
		},
		Logging: config.LoggingConfig{Level: "disabled", Format: "console"},
	}
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(testConfig(t), zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func loginAdmin(t *testing.T, srv *Server) LoginResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/auth/login/", "", LoginRequest{Email: testAdminEmail, Password: testAdminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[LoginResponse](t, rec)
}
