package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/citypulse/client/internal/api"
	"github.com/citypulse/client/internal/eventloop/eventlooptest"
	"github.com/citypulse/client/internal/geolocate"
	"github.com/citypulse/client/internal/mapview"
	"github.com/citypulse/client/internal/registry"
	"github.com/citypulse/client/internal/suggest"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/internal/view"
	"github.com/citypulse/client/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	marina   = core.LatLng{Lat: 37.8052, Lng: -122.4254}
	downtown = core.LatLng{Lat: 37.7890, Lng: -122.4010}
)

type fakeBackend struct {
	nearby      core.CategorizedResult
	search      map[string]core.CategorizedResult
	suggestions map[string][]string
	searched    []string
	shared      map[string]core.SharedLocation
}

func (f *fakeBackend) LocalData(ctx context.Context, p core.LatLng) (core.CategorizedResult, error) {
	return f.nearby, nil
}

func (f *fakeBackend) SearchLocal(ctx context.Context, p core.LatLng, q string) (core.CategorizedResult, error) {
	f.searched = append(f.searched, q)
	return f.search[q], nil
}

func (f *fakeBackend) Suggestions(ctx context.Context, q string, p core.LatLng) ([]string, error) {
	return f.suggestions[q], nil
}

func (f *fakeBackend) Insights(ctx context.Context, r core.InsightsRequest) (string, error) {
	return "Try the *late* set", nil
}

func (f *fakeBackend) Share(ctx context.Context, r core.ShareRequest) (api.ShareResult, error) {
	return api.ShareResult{LocationID: "ab12cd34", URL: "http://localhost:5001/shared/ab12cd34"}, nil
}

func (f *fakeBackend) SharedLocation(ctx context.Context, id string) (core.SharedLocation, error) {
	loc, ok := f.shared[id]
	if !ok {
		return core.SharedLocation{}, fmt.Errorf("%s: %w", id, core.ErrLookupMiss)
	}
	return loc, nil
}

type harness struct {
	s       *Session
	sched   *eventlooptest.Scheduler
	backend *fakeBackend
	m       *mapview.Headless
	surface *ui.Recorder
}

func newHarness(t *testing.T, locator geolocate.Provider) *harness {
	t.Helper()
	h := &harness{
		sched: eventlooptest.New(),
		backend: &fakeBackend{
			search:      map[string]core.CategorizedResult{},
			suggestions: map[string][]string{},
			shared:      map[string]core.SharedLocation{},
		},
		m:       mapview.NewHeadless(800, 600, marina, DefaultZoom),
		surface: ui.NewRecorder(),
	}
	s, err := New(Deps{
		Scheduler:  h.sched,
		Backend:    h.backend,
		Map:        h.m,
		Surface:    h.surface,
		Geolocator: locator,
	}, Config{
		Fallback:   marina,
		FitPadding: 50,
		Suggest:    suggest.Config{MinChars: 4, Debounce: 500 * time.Millisecond},
		Registry:   registry.Options{Seed: 1},
	})
	require.NoError(t, err)
	h.s = s
	return h
}

func TestStart_DeviceFix(t *testing.T) {
	h := newHarness(t, geolocate.Fixed(downtown))

	_, ok := h.s.Location()
	assert.False(t, ok, "no location before the fix arrives")
	h.s.Start()
	assert.True(t, h.s.Busy())
	h.sched.ResolveAll()

	p, ok := h.s.Location()
	require.True(t, ok)
	assert.Equal(t, downtown, p)
	assert.Equal(t, SourceDevice, h.s.LocationSource())
	assert.Equal(t, downtown, h.m.Viewport().Center)
	require.Equal(t, 1, h.m.MarkerCount(), "user pin")
	assert.Equal(t, core.CategoryUser, h.m.Markers()[0].Category())
	assert.Equal(t, MsgWelcome, h.surface.LastNotice())
}

func TestStart_FallbackOnFailure(t *testing.T) {
	h := newHarness(t, geolocate.Unavailable{})

	h.s.Start()
	h.sched.ResolveAll()

	p, ok := h.s.Location()
	require.True(t, ok)
	assert.Equal(t, marina, p)
	assert.Equal(t, SourceFallback, h.s.LocationSource())
	assert.Equal(t, 0, h.m.MarkerCount())
}

func TestDiscover_BeforeLocation(t *testing.T) {
	h := newHarness(t, geolocate.Unavailable{})

	err := h.s.Discover()

	assert.ErrorIs(t, err, core.ErrLocationUnavailable)
	assert.NotEmpty(t, h.surface.LastAlert())
}

func TestEndToEnd_DiscoverOpenInsightsShare(t *testing.T) {
	h := newHarness(t, geolocate.Fixed(marina))
	h.backend.nearby = core.CategorizedResult{
		Events: []core.Item{{
			Name:        "Jazz Night",
			Description: "Live jazz",
			Latitude:    core.NewCoordinate(37.81),
			Longitude:   core.NewCoordinate(-122.41),
		}},
	}
	h.s.Start()
	h.sched.ResolveAll()

	require.NoError(t, h.s.Discover())
	h.sched.ResolveAll()
	assert.False(t, h.s.Busy())
	assert.Equal(t, 2, h.m.MarkerCount(), "user pin plus one event")

	records := h.s.Registry.Records()
	require.Len(t, records, 1)
	id := records[0].ID

	require.NoError(t, h.s.ActivateMarker(id))
	require.Len(t, h.surface.Popups, 1)
	assert.Equal(t, id, h.surface.Popups[0].RecordID)
	assert.Equal(t, view.ActionLearnMore, h.surface.Popups[0].Action)

	require.NoError(t, h.s.LearnMore(h.surface.Popups[0].RecordID))
	require.NotNil(t, h.surface.Modal)
	assert.Equal(t, "🎵 Jazz Night", h.surface.Modal.Title)

	require.NoError(t, h.s.FetchInsights())
	h.sched.ResolveAll()
	assert.Equal(t, `<p class="text-dark">Try the <em>late</em> set</p>`, h.surface.Insights.HTML)

	require.NoError(t, h.s.ShareCurrent())
	h.sched.ResolveAll()
	assert.Equal(t, []string{"http://localhost:5001/shared/ab12cd34"}, h.surface.ShareLinks)

	d, err := h.s.Directions(view.PlatformDesktop)
	require.NoError(t, err)
	assert.Equal(t, "https://maps.google.com/maps?daddr=Jazz%20Night", d.Web)
}

func TestTypingSuggestionThenSearch(t *testing.T) {
	h := newHarness(t, geolocate.Fixed(marina))
	h.backend.suggestions["coffee"] = []string{"coffee shops", "coffee roasters"}
	h.backend.search["coffee roasters"] = core.CategorizedResult{Restaurants: []core.Item{{Name: "Roastery"}}}
	h.s.Start()
	h.sched.ResolveAll()

	h.s.Input("coffee")
	assert.True(t, h.s.Busy())
	h.sched.Advance(500 * time.Millisecond)
	h.sched.ResolveAll()
	require.True(t, h.surface.SuggestionsOpen)

	h.s.Key(suggest.KeyArrowDown)
	h.s.Key(suggest.KeyArrowDown)
	h.s.Key(suggest.KeyEnter)
	h.sched.ResolveAll()

	assert.Equal(t, []string{"coffee roasters"}, h.backend.searched)
	assert.Equal(t, "coffee roasters", h.surface.Input)
	require.Len(t, h.s.Registry.Records(), 1)
	assert.Equal(t, "Roastery", h.s.Registry.Records()[0].Name)
}

func TestQuickSearch(t *testing.T) {
	h := newHarness(t, geolocate.Fixed(marina))
	h.s.Start()
	h.sched.ResolveAll()

	require.NoError(t, h.s.QuickSearch("live music"))
	h.sched.ResolveAll()

	assert.Equal(t, "live music", h.surface.Input)
	assert.Equal(t, []string{"live music"}, h.backend.searched)
	assert.Equal(t, `No results found for "live music". Try a different search term.`, h.surface.LastNotice())
}

func TestSearchUsesTypedText(t *testing.T) {
	h := newHarness(t, geolocate.Fixed(marina))
	h.s.Start()
	h.sched.ResolveAll()

	h.s.Input("  ")
	assert.ErrorIs(t, h.s.Search(), core.ErrEmptyQuery)

	h.s.Input("tacos")
	require.NoError(t, h.s.Search())
	h.sched.ResolveAll()
	assert.Equal(t, []string{"tacos"}, h.backend.searched)
}

func TestOpenShared(t *testing.T) {
	h := newHarness(t, geolocate.Fixed(marina))
	h.backend.shared["ab12cd34"] = core.SharedLocation{
		Name:      "Taqueria",
		Type:      core.CategoryRestaurant,
		Latitude:  core.NewCoordinate(37.79),
		Longitude: core.NewCoordinate(-122.40),
	}

	require.NoError(t, h.s.OpenShared("ab12cd34"))
	h.sched.ResolveAll()

	p, ok := h.m.Popup()
	require.True(t, ok)
	assert.Equal(t, "Taqueria", p.Popup.Title)
}

func TestClose_IgnoresLateResponses(t *testing.T) {
	h := newHarness(t, geolocate.Fixed(marina))
	h.backend.nearby = core.CategorizedResult{Events: []core.Item{{Name: "Jazz Night"}}}
	h.s.Start()
	h.sched.ResolveAll()

	require.NoError(t, h.s.Discover())
	h.s.Close()
	h.sched.ResolveAll()

	assert.Equal(t, 0, h.m.MarkerCount())
	assert.True(t, errors.Is(h.s.Discover(), ErrClosed))
	assert.ErrorIs(t, h.s.OpenShared("x"), ErrClosed)
}
