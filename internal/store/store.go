package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("store: not found")

// Well-known keys.
const (
	KeyToken = "token"
)

// LocalStorage is the client's persistent key/value storage.
type LocalStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
