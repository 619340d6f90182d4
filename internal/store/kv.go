// Package store provides the durable key-value layer backing transfer state
// across daemon restarts.
package store

import "errors"

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// KV is a keyed byte-value namespace. Implementations are substitutable:
// the daemon uses FileStore, tests may use anything satisfying this.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	ListKeys() ([]string, error)
}
