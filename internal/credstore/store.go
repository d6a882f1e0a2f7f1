// Package credstore persists session credentials on the local machine.
//
// Entries are plain key/value strings. Callers scope keys per API origin with
// Scoped so that logging in to one server never clobbers another.
package credstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no value is stored under the key
var ErrNotFound = errors.New("credential not found")

// Backend names accepted by Open
const (
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Store defines durable key/value storage for credentials.
// Delete of a missing key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Open returns the store implementation for the named backend.
// path is only used by the sqlite backend.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendKeyring:
		return NewKeyring(DefaultService), nil
	case BackendSQLite:
		return NewSQLite(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q (expected keyring, sqlite or memory)", backend)
	}
}

// Close releases resources held by the store, if it holds any
func Close(store Store) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

type scopedStore struct {
	inner  Store
	prefix string
}

// Scoped namespaces every key of store under origin (e.g. "https://shop.example.com")
func Scoped(store Store, origin string) Store {
	return &scopedStore{
		inner:  store,
		prefix: strings.TrimSuffix(origin, "/") + "|",
	}
}

func (s *scopedStore) Get(key string) (string, error) {
	return s.inner.Get(s.prefix + key)
}

func (s *scopedStore) Set(key, value string) error {
	return s.inner.Set(s.prefix+key, value)
}

func (s *scopedStore) Delete(key string) error {
	return s.inner.Delete(s.prefix + key)
}

func (s *scopedStore) Close() error {
	return Close(s.inner)
}
