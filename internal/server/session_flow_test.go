package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
	"github.com/shopadmin-dev/shopadmin/internal/credstore"
	"github.com/shopadmin-dev/shopadmin/internal/session"
)

// TestSessionFlow drives the session manager and API client against the
// real handlers
func TestSessionFlow(t *testing.T) {
	srv := setupTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	store := credstore.NewMemory()
	manager, err := session.New(ts.URL, store)
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	ctx := context.Background()

	_, err = manager.Login(ctx, testAdminEmail, "wrong")
	require.Error(t, err)
	assert.True(t, session.IsKind(err, session.AuthRejected))
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.False(t, manager.IsAuthenticated())

	user, err := manager.Login(ctx, testAdminEmail, testAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, session.RoleSuperAdmin, user.Role())
	assert.True(t, manager.IsAuthenticated())

	api := client.New(manager)
	overview, err := api.DashboardOverview()
	require.NoError(t, err)
	assert.Equal(t, 8, overview.TotalProducts)

	// Refresh rotates the stored refresh token
	_, ok := manager.RefreshAccessToken(ctx)
	require.True(t, ok)
	_, err = api.OrderStatistics()
	require.NoError(t, err)

	// Server-side time moves past the access token lifetime: the API
	// answers 401, the session refreshes and the call is retried
	expiry, ok := manager.AccessTokenExpiry()
	require.True(t, ok)
	srv.tokens.SetClock(func() time.Time { return expiry.Add(time.Second) })

	msg, err := api.UpdateOrderStatus(3, client.OrderCompleted)
	require.NoError(t, err)
	assert.Equal(t, "Order status updated", msg.Message)
	assert.True(t, manager.IsAuthenticated())

	// Once the refresh token is past its lifetime too the session ends
	srv.tokens.SetClock(func() time.Time { return expiry.Add(2 * time.Hour) })

	_, err = api.ListOrders(client.ListParams{})
	assert.ErrorIs(t, err, session.ErrAuthenticationRequired)
	assert.False(t, manager.IsAuthenticated())
	assert.Equal(t, 0, store.Len())
}

func TestSessionFlow_CustomerCannotLogin(t *testing.T) {
	srv := setupTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	manager, err := session.New(ts.URL, credstore.NewMemory())
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	_, err = manager.Login(context.Background(), "priya@example.com", "customer123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access denied. Admin privileges required.")
	assert.False(t, manager.IsAuthenticated())
}
