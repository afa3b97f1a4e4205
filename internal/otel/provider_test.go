package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), Config{Enabled: false, Command: "discover"})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Nil(t, p.Resource())
	assert.Equal(t, noop.Meter{}, p.Meter("citypulse"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(context.Background(), Config{Enabled: true})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_EnabledWithLogFile(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(context.Background(), Config{
		Enabled:   true,
		LogWriter: &buf,
		Command:   "search",
		ServerURL: "http://localhost:5001",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.True(t, p.Enabled())
	assert.NotNil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("citypulse"))
	assert.NoError(t, p.Flush(context.Background()))

	set := p.Resource().Set()
	name, ok := set.Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "citypulse", name.AsString())
	cmd, ok := set.Value(attribute.Key("citypulse.command"))
	require.True(t, ok)
	assert.Equal(t, "search", cmd.AsString())
	url, ok := set.Value(attribute.Key("citypulse.api.server_url"))
	require.True(t, ok)
	assert.Equal(t, "http://localhost:5001", url.AsString())
}

func TestSessionAttrs_OmitsEmpty(t *testing.T) {
	attrs := sessionAttrs(Config{ServiceName: "citypulse-dev"})

	require.Len(t, attrs, 1)
	assert.Equal(t, "citypulse-dev", attrs[0].Value.AsString())
}
