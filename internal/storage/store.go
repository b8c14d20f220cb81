// Package storage defines the durable key-value byte store the cart engine
// persists itself to.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("record not found")

// DurableStore is a client-scoped byte sink. The engine is the only writer,
// so implementations only need last-writer-wins semantics; they never have a
// write-write conflict to resolve.
type DurableStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
