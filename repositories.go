package main

import "errors"

// ErrKeyNotFound is returned by Get for keys that were never set.
var ErrKeyNotFound = errors.New("key not found")

// Storage keys. The record shapes under them must stay
// backward-compatible across reads; there is no migration step.
const (
	keyFavorites       = "radioFavorites"
	keyCurrentUser     = "currentUser"
	keyUsers           = "users"
	keyPreferences     = "userPreferences"
	keyContactMessages = "contactMessages"
)

// KeyValueRepository persists JSON-serialized blobs under fixed keys.
// No transactions, no schema versioning; every write replaces the
// previous value wholesale.
type KeyValueRepository interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	close()
}
