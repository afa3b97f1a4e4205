// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/citypulse/client/internal/config"
	"github.com/citypulse/client/internal/database"
	gormstorage "github.com/citypulse/client/internal/storage/gorm"
	"github.com/citypulse/client/internal/storage/memory"
)

// NewBackend creates a share store based on configuration. The caller
// runs Init before use.
func NewBackend(cfg config.DBConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), nil
	case "sqlite", "postgres", "":
		return gormstorage.New(database.NewManager(log, cfg)), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
