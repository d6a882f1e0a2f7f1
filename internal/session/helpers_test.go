package session

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/shopadmin-dev/shopadmin/internal/credstore"
)

var testSecret = []byte("session-test-secret")

// signToken creates an HS256 token expiring at exp
func signToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

// fakeAPI is a scripted stand-in for the back-office API
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	loginStatus   int
	loginBody     interface{}
	refreshStatus int
	refreshBody   interface{}
	refreshDelay  time.Duration
	// resourceStatuses are returned in order by /api/orders/, the last one repeats
	resourceStatuses []int
	seenAuth         []string
	seenBodies       []string
	seenHeaders      []http.Header

	loginCalls    atomic.Int32
	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{
		t:                t,
		loginStatus:      http.StatusOK,
		refreshStatus:    http.StatusOK,
		resourceStatuses: []int{http.StatusOK},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", api.handleLogin)
	mux.HandleFunc("/auth/refresh/", api.handleRefresh)
	mux.HandleFunc("/api/orders/", api.handleOrders)

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	return api
}

func (a *fakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	a.loginCalls.Add(1)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.t.Errorf("failed to decode login request: %v", err)
	}

	a.mu.Lock()
	status, body := a.loginStatus, a.loginBody
	a.mu.Unlock()

	writeJSON(w, status, body)
}

func (a *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.refreshCalls.Add(1)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.t.Errorf("failed to decode refresh request: %v", err)
	}

	a.mu.Lock()
	status, body, delay := a.refreshStatus, a.refreshBody, a.refreshDelay
	a.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	writeJSON(w, status, body)
}

func (a *fakeAPI) handleOrders(w http.ResponseWriter, r *http.Request) {
	call := int(a.resourceCalls.Add(1))

	a.mu.Lock()
	a.seenAuth = append(a.seenAuth, r.Header.Get("Authorization"))
	a.seenHeaders = append(a.seenHeaders, r.Header.Clone())
	body, _ := io.ReadAll(r.Body)
	a.seenBodies = append(a.seenBodies, string(body))
	status := a.resourceStatuses[len(a.resourceStatuses)-1]
	if call <= len(a.resourceStatuses) {
		status = a.resourceStatuses[call-1]
	}
	a.mu.Unlock()

	if status == http.StatusUnauthorized {
		writeJSON(w, status, map[string]string{"detail": "Given token not valid for any token type"})
		return
	}
	writeJSON(w, status, map[string]interface{}{"count": 1, "results": []interface{}{map[string]int{"id": 7}}})
}

func (a *fakeAPI) setLogin(status int, body interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginStatus, a.loginBody = status, body
}

func (a *fakeAPI) setRefresh(status int, body interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshStatus, a.refreshBody = status, body
}

func (a *fakeAPI) setResourceStatuses(statuses ...int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resourceStatuses = statuses
}

func (a *fakeAPI) authHeaders() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.seenAuth...)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func staffUser() *User {
	return &User{ID: 1, Email: "admin@shop.test", Username: "admin", FirstName: "Asha", IsStaff: true}
}

// newTestManager returns a Manager wired to api and the raw store behind it
func newTestManager(t *testing.T, api *fakeAPI, opts ...Option) (*Manager, *credstore.Memory) {
	t.Helper()

	store := credstore.NewMemory()
	m, err := New(api.server.URL, store, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	return m, store
}

// seedCredential stores a credential directly, bypassing Login
func seedCredential(t *testing.T, m *Manager, access, refresh string, user *User) {
	t.Helper()
	require.NoError(t, m.setCredential(access, refresh, user))
}
