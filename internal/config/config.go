package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "citypulse.cfg.json"

// ErrNotFound is returned by Load when the directory has no config file.
// Defaults are still in effect.
var ErrNotFound = errors.New("config file not found")

// SessionConfig holds the map session settings
type SessionConfig struct {
	FallbackLat float64
	FallbackLng float64
	GeoClue     bool
	DesktopID   string
	FitPadding  int
	JitterSpan  float64
	AlertJitter float64
}

// SuggestConfig holds search suggestion settings
type SuggestConfig struct {
	MinChars  int
	Debounce  time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// ServerConfig holds the development backend settings
type ServerConfig struct {
	Listen   string
	Fixtures string
	Radius   float64
}

// DBConfig holds the share store database settings
type DBConfig struct {
	Type       string
	Host       string
	Port       string
	Username   string
	Password   string
	Database   string
	SQLitePath string
}

// InfluxConfig holds the cycle telemetry sink settings
type InfluxConfig struct {
	Enabled   bool
	Host      string
	Port      string
	Protocol  string
	Token     string
	Org       string
	Bucket    string
	BackupDir string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", ErrNotFound)
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./citypulselogs")

	viper.SetDefault("api.serverUrl", "http://localhost:5001")
	viper.SetDefault("api.timeout", "30s")

	viper.SetDefault("session.fallbackLat", 37.8052)
	viper.SetDefault("session.fallbackLng", -122.4254)
	viper.SetDefault("session.geoclue", false)
	viper.SetDefault("session.desktopId", "citypulse")

	viper.SetDefault("suggest.minChars", 4)
	viper.SetDefault("suggest.debounce", "500ms")
	viper.SetDefault("suggest.cacheSize", 32)
	viper.SetDefault("suggest.cacheTTL", "5m")

	viper.SetDefault("registry.jitterSpan", 0.01)
	viper.SetDefault("registry.alertJitterSpan", 0.005)

	viper.SetDefault("map.fitPadding", 50)

	viper.SetDefault("server.listen", ":5001")
	viper.SetDefault("server.fixtures", "")
	viper.SetDefault("server.radius", 5000.0)

	viper.SetDefault("db.type", "sqlite")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "citypulse")
	viper.SetDefault("db.sqlitePath", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "citypulse")
	viper.SetDefault("influx.bucket", "citypulse")
	viper.SetDefault("influx.backupDir", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "citypulse")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetSessionConfig returns the map session configuration
func GetSessionConfig() SessionConfig {
	return SessionConfig{
		FallbackLat: viper.GetFloat64("session.fallbackLat"),
		FallbackLng: viper.GetFloat64("session.fallbackLng"),
		GeoClue:     viper.GetBool("session.geoclue"),
		DesktopID:   viper.GetString("session.desktopId"),
		FitPadding:  viper.GetInt("map.fitPadding"),
		JitterSpan:  viper.GetFloat64("registry.jitterSpan"),
		AlertJitter: viper.GetFloat64("registry.alertJitterSpan"),
	}
}

// GetSuggestConfig returns the search suggestion configuration
func GetSuggestConfig() SuggestConfig {
	return SuggestConfig{
		MinChars:  viper.GetInt("suggest.minChars"),
		Debounce:  viper.GetDuration("suggest.debounce"),
		CacheSize: viper.GetInt("suggest.cacheSize"),
		CacheTTL:  viper.GetDuration("suggest.cacheTTL"),
	}
}

// GetServerConfig returns the development backend configuration
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Listen:   viper.GetString("server.listen"),
		Fixtures: viper.GetString("server.fixtures"),
		Radius:   viper.GetFloat64("server.radius"),
	}
}

// GetDBConfig returns the share store database configuration
func GetDBConfig() DBConfig {
	return DBConfig{
		Type:       viper.GetString("db.type"),
		Host:       viper.GetString("db.host"),
		Port:       viper.GetString("db.port"),
		Username:   viper.GetString("db.username"),
		Password:   viper.GetString("db.password"),
		Database:   viper.GetString("db.database"),
		SQLitePath: viper.GetString("db.sqlitePath"),
	}
}

// GetInfluxConfig returns the cycle telemetry sink configuration
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:   viper.GetBool("influx.enabled"),
		Host:      viper.GetString("influx.host"),
		Port:      viper.GetString("influx.port"),
		Protocol:  viper.GetString("influx.protocol"),
		Token:     viper.GetString("influx.token"),
		Org:       viper.GetString("influx.org"),
		Bucket:    viper.GetString("influx.bucket"),
		BackupDir: viper.GetString("influx.backupDir"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
