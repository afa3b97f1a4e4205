package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/client/internal/server"
	"github.com/citypulse/client/internal/storage/memory"
)

func devServer(t *testing.T) *httptest.Server {
	t.Helper()
	fixtures, err := server.LoadFixtures("")
	require.NoError(t, err)

	store := memory.New()
	require.NoError(t, store.Init())

	ts := httptest.NewServer(server.New(server.NewIndex(fixtures), store, 0, zerolog.Nop()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func runCLI(t *testing.T, serverURL string, args ...string) string {
	t.Helper()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(append(args,
		"--server", serverURL,
		"--config-dir", t.TempDir(),
		"--logs-dir", t.TempDir(),
		"--log-level", "error",
		"--lat", "37.8052",
		"--lng", "-122.4254",
	))
	require.NoError(t, root.ExecuteContext(context.Background()))
	return out.String()
}

func TestSearchCommand(t *testing.T) {
	ts := devServer(t)

	out := runCLI(t, ts.URL, "search", "Jazz", "Night")

	assert.Contains(t, out, "Welcome to CityPulse")
	assert.Contains(t, out, "[0] 🎵 Event: Jazz Night at the Marina")
}

func TestSearchCommand_NoResults(t *testing.T) {
	ts := devServer(t)

	out := runCLI(t, ts.URL, "search", "tacos")

	assert.Contains(t, out, `No results found for "tacos". Try a different search term.`)
	assert.NotContains(t, out, "[0]")
}

func TestDiscoverCommand_GeoJSON(t *testing.T) {
	ts := devServer(t)
	path := filepath.Join(t.TempDir(), "map.geojson")

	out := runCLI(t, ts.URL, "discover", "--geojson", path)
	assert.Contains(t, out, "Jazz Night at the Marina")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	// export runs before teardown, so the markers are still on the map
	assert.NotEmpty(t, fc.Features)
}

func TestDetailCommand(t *testing.T) {
	ts := devServer(t)

	out := runCLI(t, ts.URL, "detail", "Greens", "--platform", "ios")

	assert.Contains(t, out, "Personalized Recommendations")
	assert.Contains(t, out, "<strong>Greens</strong>")
	assert.Contains(t, out, "Directions (app): maps://")
	assert.Contains(t, out, "Directions (web): https://maps.google.com/maps?daddr=")
}

func TestShareAndOpenShared(t *testing.T) {
	ts := devServer(t)

	out := runCLI(t, ts.URL, "share", "Greens")
	assert.Contains(t, out, "Share link: "+ts.URL+"/shared/")

	out = runCLI(t, ts.URL, "shared", "nope1234")
	assert.Contains(t, out, "Shared location not found or has expired.")
}

func TestSuggestCommand(t *testing.T) {
	ts := devServer(t)

	out := runCLI(t, ts.URL, "suggest", "ital", "--delay", "0", "--keys", "ArrowDown,Enter")

	assert.Contains(t, out, "Italian restaurants")
	assert.Contains(t, out, "> Italian restaurants")
}
