package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/client/internal/config"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestConnect_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shares.db")
	m := NewManager(zerolog.Nop(), config.DBConfig{Type: "sqlite", SQLitePath: path})

	require.NoError(t, m.Connect())
	t.Cleanup(func() { _ = m.Close() })
	assert.Equal(t, "sqlite", m.Driver)

	require.NoError(t, m.Setup(&widget{}))
	require.NoError(t, m.DB.Create(&widget{Name: "pin"}).Error)

	var got widget
	require.NoError(t, m.DB.First(&got).Error)
	assert.Equal(t, "pin", got.Name)
}

func TestConnect_PostgresFallsBackToSQLite(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "nobody",
		Password: "nothing",
		Database: "none",
	})

	require.NoError(t, m.Connect())
	t.Cleanup(func() { _ = m.Close() })
	assert.Equal(t, "sqlite", m.Driver)
}

func TestSetup_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.DBConfig{})
	assert.Error(t, m.Setup(&widget{}))
	assert.NoError(t, m.Close())
}
