// internal/storage/gorm/gorm.go
package gormstorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/citypulse/client/internal/database"
	"github.com/citypulse/client/pkg/core"
)

// SharedLocation is the persisted form of a shared record.
type SharedLocation struct {
	ID          string `gorm:"primaryKey;size:8"`
	Name        string
	Type        string `gorm:"index"`
	Description string
	Address     string
	Latitude    *float64
	Longitude   *float64
	Date        string
	Time        string
	Cuisine     string
	Severity    string
	Website     string
	Citation    datatypes.JSON
	SharedAt    time.Time `gorm:"index"`
}

// TableName sets the table name.
func (SharedLocation) TableName() string {
	return "shared_locations"
}

// Core converts the row into its wire form.
func (s SharedLocation) Core() core.SharedLocation {
	out := core.SharedLocation{
		ID:          s.ID,
		Name:        s.Name,
		Type:        core.Category(s.Type),
		Description: s.Description,
		Address:     s.Address,
		Date:        s.Date,
		Time:        s.Time,
		Cuisine:     s.Cuisine,
		Severity:    s.Severity,
		Website:     s.Website,
		SharedAt:    s.SharedAt.Format(core.SharedAtLayout),
	}
	if s.Latitude != nil {
		out.Latitude = core.NewCoordinate(*s.Latitude)
	}
	if s.Longitude != nil {
		out.Longitude = core.NewCoordinate(*s.Longitude)
	}
	if len(s.Citation) > 0 {
		var c core.Citation
		if err := json.Unmarshal(s.Citation, &c); err == nil {
			out.Citation = &c
		}
	}
	return out
}

// Backend persists shared locations through a database.Manager.
type Backend struct {
	mgr *database.Manager
	db  *gorm.DB
	now func() time.Time
}

// New creates a gorm backend. Init connects and migrates.
func New(mgr *database.Manager) *Backend {
	return &Backend{mgr: mgr, now: time.Now}
}

func (b *Backend) Init() error {
	if err := b.mgr.Connect(); err != nil {
		return fmt.Errorf("connect share store: %w", err)
	}
	if err := b.mgr.Setup(&SharedLocation{}); err != nil {
		return fmt.Errorf("migrate share store: %w", err)
	}
	b.db = b.mgr.DB
	return nil
}

func (b *Backend) Close() error {
	return b.mgr.Close()
}

func (b *Backend) CreateShare(ctx context.Context, req core.ShareRequest) (core.SharedLocation, error) {
	row := SharedLocation{
		ID:          uuid.NewString()[:8],
		Name:        req.Name,
		Type:        string(req.Type),
		Description: req.Description,
		Address:     req.Address,
		Date:        req.Date,
		Time:        req.Time,
		Cuisine:     req.Cuisine,
		Severity:    req.Severity,
		Website:     req.Website,
		SharedAt:    b.now(),
	}
	if req.Latitude.Valid {
		v := req.Latitude.Value
		row.Latitude = &v
	}
	if req.Longitude.Valid {
		v := req.Longitude.Value
		row.Longitude = &v
	}
	if req.Citation != nil {
		raw, err := json.Marshal(req.Citation)
		if err != nil {
			return core.SharedLocation{}, fmt.Errorf("encode citation: %w", err)
		}
		row.Citation = datatypes.JSON(raw)
	}

	if err := b.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.SharedLocation{}, fmt.Errorf("insert shared location: %w", err)
	}
	return row.Core(), nil
}

func (b *Backend) GetShare(ctx context.Context, id string) (core.SharedLocation, error) {
	var row SharedLocation
	err := b.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.SharedLocation{}, fmt.Errorf("shared location %s: %w", id, core.ErrLookupMiss)
	}
	if err != nil {
		return core.SharedLocation{}, fmt.Errorf("load shared location %s: %w", id, err)
	}
	return row.Core(), nil
}

func (b *Backend) ShareIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := b.db.WithContext(ctx).Model(&SharedLocation{}).
		Order("shared_at").Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list shared locations: %w", err)
	}
	return ids, nil
}
