// Package history persists the list of completed quizzes behind a narrow
// read-all/write-all key-value store.
package history

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Read when the key holds nothing.
var ErrNotFound = errors.New("history key not found")

// ErrUnavailable marks a history that could not be read from its store.
var ErrUnavailable = errors.New("history store unavailable")

// Store reads and writes a whole serialized history under a key.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, payload []byte) error
}
