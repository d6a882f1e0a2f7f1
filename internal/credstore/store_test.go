package credstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	keyring.MockInit()

	sqliteStore, err := NewSQLite(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"memory":  NewMemory(),
		"sqlite":  sqliteStore,
		"keyring": NewKeyring("shopadmin-test"),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("access_token")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set("access_token", "first"))
			value, err := store.Get("access_token")
			require.NoError(t, err)
			assert.Equal(t, "first", value)

			// Overwrite keeps a single entry
			require.NoError(t, store.Set("access_token", "second"))
			value, err = store.Get("access_token")
			require.NoError(t, err)
			assert.Equal(t, "second", value)

			require.NoError(t, store.Delete("access_token"))
			_, err = store.Get("access_token")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting twice is fine
			assert.NoError(t, store.Delete("access_token"))
		})
	}
}

func TestScoped_IsolatesOrigins(t *testing.T) {
	inner := NewMemory()
	prod := Scoped(inner, "https://shop.example.com/")
	staging := Scoped(inner, "https://staging.example.com")

	require.NoError(t, prod.Set("refresh_token", "prod-refresh"))
	require.NoError(t, staging.Set("refresh_token", "staging-refresh"))

	value, err := prod.Get("refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "prod-refresh", value)

	require.NoError(t, staging.Delete("refresh_token"))
	value, err = prod.Get("refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "prod-refresh", value)
	assert.Equal(t, 1, inner.Len())

	raw, err := inner.Get("https://shop.example.com|refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "prod-refresh", raw)
}

func TestOpen(t *testing.T) {
	store, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	store, err = Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &Keyring{}, store)

	store, err = Open("sqlite", filepath.Join(t.TempDir(), "nested", "creds.db"))
	require.NoError(t, err)
	assert.NoError(t, Close(store))

	_, err = Open("sqlite", "")
	assert.Error(t, err)

	_, err = Open("etcd", "")
	assert.EqualError(t, err, `unknown credential store "etcd" (expected keyring, sqlite or memory)`)
}
