// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/citypulse/client/pkg/core"
)

// Backend keeps shared locations in memory for the life of the process.
type Backend struct {
	mu    sync.RWMutex
	byID  map[string]core.SharedLocation
	order []string
	now   func() time.Time
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{byID: make(map[string]core.SharedLocation), now: time.Now}
}

func (b *Backend) Init() error {
	return nil
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) CreateShare(_ context.Context, req core.ShareRequest) (core.SharedLocation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()[:8]
	for b.byID[id].ID != "" {
		id = uuid.NewString()[:8]
	}
	loc := core.SharedLocation{
		ID:          id,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Date:        req.Date,
		Time:        req.Time,
		Cuisine:     req.Cuisine,
		Severity:    req.Severity,
		Website:     req.Website,
		Citation:    req.Citation,
		SharedAt:    b.now().Format(core.SharedAtLayout),
	}
	b.byID[id] = loc
	b.order = append(b.order, id)
	return loc, nil
}

func (b *Backend) GetShare(_ context.Context, id string) (core.SharedLocation, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	loc, ok := b.byID[id]
	if !ok {
		return core.SharedLocation{}, fmt.Errorf("shared location %s: %w", id, core.ErrLookupMiss)
	}
	return loc, nil
}

func (b *Backend) ShareIDs(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string{}, b.order...), nil
}
