// Package settings stores singleton records addressed by a fixed name instead
// of an auto-assigned identifier. Values are opaque bytes (JSON in practice)
// and are never encrypted.
package settings

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when name is absent.
	Get(ctx context.Context, name string) ([]byte, error)
	Set(ctx context.Context, name string, value []byte) error
	// Delete is idempotent.
	Delete(ctx context.Context, name string) error
}
