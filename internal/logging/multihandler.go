package logging

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/citypulse/client/internal/logging"

// Sink is one named log destination (stdout, file, graylog, otel).
type Sink struct {
	Name    string
	Handler slog.Handler
}

// sinkStats is shared by a MultiHandler and every handler derived from it.
type sinkStats struct {
	mu       sync.Mutex
	failures map[string]int64
	counter  metric.Int64Counter
}

func (s *sinkStats) fail(name string) {
	s.mu.Lock()
	s.failures[name]++
	s.mu.Unlock()
	if s.counter != nil {
		s.counter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("sink", name)))
	}
}

// MultiHandler fans log records out to every sink. A failing sink never
// blocks the others; its failures are counted instead.
type MultiHandler struct {
	sinks []Sink
	stats *sinkStats
}

// NewMultiHandler creates a handler that writes to all provided sinks.
// Sinks without a handler are skipped.
func NewMultiHandler(sinks ...Sink) *MultiHandler {
	valid := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s.Handler != nil {
			valid = append(valid, s)
		}
	}
	stats := &sinkStats{failures: make(map[string]int64)}
	stats.counter, _ = otel.Meter(instrumentationName).Int64Counter(
		"logging.sink.failures",
		metric.WithDescription("Records a log sink failed to write"),
	)
	return &MultiHandler{sinks: valid, stats: stats}
}

// Names lists the sinks in fan-out order.
func (m *MultiHandler) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}

// Failures returns the failed writes per sink name.
func (m *MultiHandler) Failures() map[string]int64 {
	m.stats.mu.Lock()
	defer m.stats.mu.Unlock()
	return maps.Clone(m.stats.failures)
}

// Enabled returns true if any sink is enabled for the given level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range m.sinks {
		if s.Handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to every enabled sink.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, s := range m.sinks {
		if !s.Handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handler.Handle(ctx, r.Clone()); err != nil {
			m.stats.fail(s.Name)
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) derive(f func(slog.Handler) slog.Handler) *MultiHandler {
	sinks := make([]Sink, len(m.sinks))
	for i, s := range m.sinks {
		sinks[i] = Sink{Name: s.Name, Handler: f(s.Handler)}
	}
	return &MultiHandler{sinks: sinks, stats: m.stats}
}
