package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/citypulse/client/internal/config"
	"github.com/citypulse/client/internal/discovery"
)

// Measurement is the measurement name of discovery cycle points.
const Measurement = "discovery_cycle"

// ErrDisabled is returned by Open when the sink is turned off in config.
var ErrDisabled = errors.New("influx sink disabled")

var _ discovery.CycleSink = (*Sink)(nil)

// Sink records discovery cycles in InfluxDB. When the server cannot be
// reached at startup, points go to a gzip line-protocol backup file instead.
type Sink struct {
	mu sync.Mutex

	client influxdb2.Client
	writer influxdb2_api.WriteAPI

	backup     *gzip.Writer
	backupFile io.Closer

	valid  bool
	logger zerolog.Logger
}

// Open connects to InfluxDB using cfg. backupPath is used when the server
// does not answer a ping.
func Open(ctx context.Context, log zerolog.Logger, cfg config.InfluxConfig, backupPath string) (*Sink, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", cfg.Protocol, cfg.Host, cfg.Port),
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(100).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		log.Warn().Err(err).Str("backupPath", backupPath).
			Msg("InfluxDB unreachable, writing cycles to backup file")
		return NewBackup(log, backupPath)
	}

	s := &Sink{client: client, logger: log, valid: true}
	if err := s.ensureBucket(ctx, cfg.Org, cfg.Bucket); err != nil {
		client.Close()
		return nil, err
	}

	s.writer = client.WriteAPI(cfg.Org, cfg.Bucket)
	errorsCh := s.writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			log.Error().Err(writeErr).Str("bucket", cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()

	log.Info().Str("bucket", cfg.Bucket).Msg("InfluxDB sink initialized")
	return s, nil
}

// NewBackup creates a sink that only appends to the gzip backup at path.
func NewBackup(log zerolog.Logger, path string) (*Sink, error) {
	if path == "" {
		return nil, errors.New("influx backup path is empty")
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("error creating backup file: %w", err)
	}
	return &Sink{backup: gzip.NewWriter(file), backupFile: file, logger: log}, nil
}

func (s *Sink) ensureBucket(ctx context.Context, orgName, bucket string) error {
	org, err := s.client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		s.logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		org, err = s.client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			return fmt.Errorf("create organization %s: %w", orgName, err)
		}
	}

	if _, err := s.client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
		return nil
	}

	s.logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = s.client.BucketsAPI().CreateBucketWithName(ctx, org, bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 30, // 30 days
	})
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Backup reports whether points go to the backup file.
func (s *Sink) Backup() bool {
	return !s.valid
}

// RecordCycle writes one point per completed cycle. Write failures are
// logged; telemetry never interrupts a session.
func (s *Sink) RecordCycle(c discovery.Cycle) {
	if err := s.WritePoint(CyclePoint(c)); err != nil {
		s.logger.Error().Err(err).Str("kind", string(c.Kind)).Msg("Error recording cycle")
	}
}

// WritePoint writes a point to InfluxDB or the backup file.
func (s *Sink) WritePoint(point *influxdb2_write.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.valid {
		s.writer.WritePoint(point)
		return nil
	}
	if s.backup == nil {
		return errors.New("influx sink closed")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := s.backup.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the connection or file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.valid {
		s.writer.Flush()
		s.client.Close()
		s.valid = false
		return nil
	}
	if s.backup == nil {
		return nil
	}
	err := s.backup.Close()
	if cerr := s.backupFile.Close(); err == nil {
		err = cerr
	}
	s.backup = nil
	return err
}

// CyclePoint converts a cycle into a line-protocol point tagged by kind
// and outcome.
func CyclePoint(c discovery.Cycle) *influxdb2_write.Point {
	point := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("kind", string(c.Kind)).
		AddTag("outcome", string(c.Outcome)).
		AddField("results", c.Results).
		AddField("duration_ms", float64(c.Duration)/float64(time.Millisecond)).
		SetTime(c.Started)
	if c.Query != "" {
		point.AddField("query", c.Query)
	}
	if c.Err != nil {
		point.AddField("error", c.Err.Error())
	}
	return point
}
