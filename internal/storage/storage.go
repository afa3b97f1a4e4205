// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/citypulse/client/pkg/core"
)

// Backend is the interface all share store implementations must satisfy.
// Unknown ids are reported as core.ErrLookupMiss.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// CreateShare stores req under a fresh short id.
	CreateShare(ctx context.Context, req core.ShareRequest) (core.SharedLocation, error)
	GetShare(ctx context.Context, id string) (core.SharedLocation, error)
	// ShareIDs lists every id, oldest share first.
	ShareIDs(ctx context.Context) ([]string, error)
}
