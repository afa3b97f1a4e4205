package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// SlogManager manages slog-based logging with optional OTel and Graylog output.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider

	graylog MessageWriter
	context ContextProvider
	sinks   *MultiHandler
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// SetGraylog routes records to a GELF writer on the next Setup.
func (m *SlogManager) SetGraylog(w MessageWriter) {
	m.graylog = w
}

// SetContext stamps the attributes returned by p onto every record
// logged after the next Setup.
func (m *SlogManager) SetContext(p ContextProvider) {
	m.context = p
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. Records go to file when one is
// given, otherwise to stdout. If provider is nil, OTel logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	lvl := parseLevel(level)
	m.logProvider = provider

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var sinks []Sink

	if file != nil {
		sinks = append(sinks, Sink{Name: "file", Handler: slog.NewTextHandler(file, handlerOpts)})
	} else {
		sinks = append(sinks, Sink{Name: "stdout", Handler: slog.NewTextHandler(osStdout, handlerOpts)})
	}

	if m.graylog != nil {
		sinks = append(sinks, Sink{Name: "graylog", Handler: NewGELFHandler(m.graylog, lvl)})
	}

	if provider != nil {
		otelHandler := otelslog.NewHandler("citypulse", otelslog.WithLoggerProvider(provider))
		sinks = append(sinks, Sink{Name: "otel", Handler: otelHandler})
	}

	m.sinks = NewMultiHandler(sinks...)
	m.logger = slog.New(NewContextHandler(m.sinks, m.context))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// SinkFailures reports failed writes per sink since the last Setup.
func (m *SlogManager) SinkFailures() map[string]int64 {
	if m.sinks == nil {
		return nil
	}
	return m.sinks.Failures()
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
