package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/citypulse/client/internal/config"
)

// memoryDSN is a private in-memory database, shared between the pool's
// connections.
const memoryDSN = "file:citypulse?mode=memory&cache=shared"

// Manager handles the share store database connection.
type Manager struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	Driver string
	Logger zerolog.Logger

	cfg config.DBConfig
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger, cfg config.DBConfig) *Manager {
	return &Manager{Logger: log, cfg: cfg}
}

// Connect opens the configured database. A Postgres connection that
// cannot be opened or pinged falls back to SQLite.
func (m *Manager) Connect() error {
	var err error

	if m.cfg.Type == "postgres" {
		m.DB, err = m.postgres()
		if err == nil {
			m.SqlDB, err = m.DB.DB()
		}
		if err == nil {
			err = m.SqlDB.Ping()
		}
		if err == nil {
			m.Driver = "postgres"
			m.SqlDB.SetMaxOpenConns(10)
			m.Logger.Info().Str("host", m.cfg.Host).Msg("Connected to Postgres")
			return nil
		}
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
	}

	m.DB, err = m.sqlite(m.cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}
	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	m.Driver = "sqlite"
	return nil
}

func (m *Manager) postgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		m.cfg.Host,
		m.cfg.Port,
		m.cfg.Username,
		m.cfg.Password,
		m.cfg.Database,
	)

	m.Logger.Debug().Str("host", m.cfg.Host).Str("database", m.cfg.Database).
		Msg("Connecting to Postgres DB")

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// sqlite opens path, or an in-memory database when path is empty.
func (m *Manager) sqlite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = memoryDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if path == "" {
		m.Logger.Info().Msg("Using local SQLite DB in memory")
	} else {
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	if path == "" {
		pragmas[0] = "PRAGMA journal_mode = MEMORY;"
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// Setup migrates the given models.
func (m *Manager) Setup(models ...any) error {
	if m.DB == nil {
		return errors.New("database not connected")
	}

	start := time.Now()
	if err := m.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	m.Logger.Info().Dur("duration", time.Since(start)).Str("driver", m.Driver).
		Msg("Database setup complete")
	return nil
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}
