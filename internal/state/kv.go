// Package state is the persistence port for per-user learner state
// (lesson progress, certificates). Callers store opaque JSON values under
// string keys; backends are swappable via config.
package state

import (
	"context"
	"errors"
)

var ErrNoKey = errors.New("key not found")

type KV interface {
	// Get returns the stored value, or ErrNoKey.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
