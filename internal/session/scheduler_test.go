package session

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpirySchedule_Next(t *testing.T) {
	api := newFakeAPI(t)
	now := time.Now().Truncate(time.Second)
	m, _ := newTestManager(t, api, WithClock(func() time.Time { return now }))
	schedule := expirySchedule{m: m}

	assert.True(t, schedule.Next(now).IsZero(), "no token, never fires")

	seedCredential(t, m, signToken(t, "1", now.Add(time.Hour)), signToken(t, "1", now.Add(24*time.Hour)), staffUser())
	assert.Equal(t, now.Add(55*time.Minute), schedule.Next(now))

	seedCredential(t, m, signToken(t, "1", now.Add(2*time.Minute)), signToken(t, "1", now.Add(24*time.Hour)), staffUser())
	assert.Equal(t, now.Add(time.Minute), schedule.Next(now))
}

func TestExpirySchedule_UsesManagerClock(t *testing.T) {
	api := newFakeAPI(t)
	managerNow := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	m, _ := newTestManager(t, api, WithClock(func() time.Time { return managerNow }))

	// The token expires an hour after the manager's clock, which is already
	// in the past on the wall clock.
	seedCredential(t, m, signToken(t, "1", managerNow.Add(time.Hour)), signToken(t, "1", managerNow.Add(24*time.Hour)), staffUser())

	cronNow := time.Now().Truncate(time.Second)
	assert.Equal(t, cronNow.Add(55*time.Minute), expirySchedule{m: m}.Next(cronNow))

	m.Start()
	next, ok := m.NextRefresh()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(55*time.Minute), next, 2*time.Second)
}

func TestScheduler_StartSchedulesFromStoredToken(t *testing.T) {
	api := newFakeAPI(t)
	m, _ := newTestManager(t, api)

	exp := time.Now().Add(time.Hour)
	seedCredential(t, m, signToken(t, "1", exp), signToken(t, "1", time.Now().Add(24*time.Hour)), staffUser())

	_, ok := m.NextRefresh()
	assert.False(t, ok, "nothing scheduled before Start")

	m.Start()

	next, ok := m.NextRefresh()
	require.True(t, ok)
	assert.WithinDuration(t, exp.Add(-5*time.Minute), next, 2*time.Second)
}

func TestScheduler_NothingScheduledWithoutToken(t *testing.T) {
	api := newFakeAPI(t)
	m, _ := newTestManager(t, api)

	m.Start()

	_, ok := m.NextRefresh()
	assert.False(t, ok)
}

func TestScheduler_LoginSchedulesAndLogoutCancels(t *testing.T) {
	api := newFakeAPI(t)
	exp := time.Now().Add(30 * time.Minute)
	api.setLogin(http.StatusOK, map[string]interface{}{
		"access":  signToken(t, "1", exp),
		"refresh": signToken(t, "1", time.Now().Add(24*time.Hour)),
		"user":    staffUser(),
	})

	m, _ := newTestManager(t, api)
	m.Start()

	_, err := m.Login(context.Background(), "admin@shop.test", "secret")
	require.NoError(t, err)

	next, ok := m.NextRefresh()
	require.True(t, ok)
	assert.WithinDuration(t, exp.Add(-5*time.Minute), next, 2*time.Second)

	m.Logout()
	_, ok = m.NextRefresh()
	assert.False(t, ok, "logout cancels the pending refresh")
}

func TestScheduler_RefreshReschedules(t *testing.T) {
	api := newFakeAPI(t)
	newExp := time.Now().Add(2 * time.Hour)
	api.setRefresh(http.StatusOK, map[string]string{"access": signToken(t, "new", newExp)})

	m, _ := newTestManager(t, api)
	seedCredential(t, m, signToken(t, "old", time.Now().Add(10*time.Minute)), signToken(t, "1", time.Now().Add(24*time.Hour)), staffUser())
	m.Start()

	m.scheduler.run()

	assert.Equal(t, int32(1), api.refreshCalls.Load())
	next, ok := m.NextRefresh()
	require.True(t, ok)
	assert.WithinDuration(t, newExp.Add(-5*time.Minute), next, 2*time.Second)
}

func TestScheduler_FailedRunEndsSession(t *testing.T) {
	api := newFakeAPI(t)
	api.setRefresh(http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted"})

	m, store := newTestManager(t, api)
	seedCredential(t, m, signToken(t, "old", time.Now().Add(10*time.Minute)), signToken(t, "1", time.Now().Add(24*time.Hour)), staffUser())
	m.Start()

	m.scheduler.run()

	assert.Equal(t, 0, store.Len())
	_, ok := m.NextRefresh()
	assert.False(t, ok)
}

func TestScheduler_CloseStops(t *testing.T) {
	api := newFakeAPI(t)
	m, _ := newTestManager(t, api)
	seedCredential(t, m, signToken(t, "1", time.Now().Add(time.Hour)), signToken(t, "1", time.Now().Add(24*time.Hour)), staffUser())

	m.Start()
	_, ok := m.NextRefresh()
	require.True(t, ok)

	m.Close()
	_, ok = m.NextRefresh()
	assert.False(t, ok)

	// Closing twice is harmless
	m.Close()
}
