package registry

import (
	"math"
	"strings"
	"testing"

	"github.com/citypulse/client/internal/mapview"
	"github.com/citypulse/client/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = core.LatLng{Lat: 37.8052, Lng: -122.4254}

func newTestRegistry(t *testing.T) (*Registry, *mapview.Headless) {
	t.Helper()
	m := mapview.NewHeadless(800, 600, origin, 15)
	return New(m, Options{Seed: 42}), m
}

func mixedResult() core.CategorizedResult {
	return core.CategorizedResult{
		Events: []core.Item{
			{Name: "Jazz Night", Latitude: core.NewCoordinate(37.80), Longitude: core.NewCoordinate(-122.42)},
			{Name: "Open Mic"},
		},
		Restaurants: []core.Item{
			{Name: "Taqueria", Cuisine: "Mexican"},
		},
		Alerts: []core.Item{
			{Title: "Road closure"},
		},
	}
}

func TestRegistry_AddFromResult(t *testing.T) {
	r, m := newTestRegistry(t)

	records := r.AddFromResult(mixedResult(), origin)

	require.Len(t, records, 4)
	assert.Equal(t, 4, r.MarkerCount())
	assert.Equal(t, 4, r.StoreSize())
	assert.Equal(t, 4, m.MarkerCount())

	assert.Equal(t, core.LatLng{Lat: 37.80, Lng: -122.42}, records[0].Position)
	assert.False(t, records[0].Synthesized)
	assert.True(t, records[1].Synthesized)
	assert.Equal(t, "Road closure", records[3].Name)
}

func TestRegistry_RecordIDs(t *testing.T) {
	r, _ := newTestRegistry(t)

	records := r.AddFromResult(mixedResult(), origin)

	seen := map[string]bool{}
	for _, rec := range records {
		assert.True(t, strings.HasPrefix(rec.ID, string(rec.Category)+"_"), rec.ID)
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}

	next := r.AddFromResult(mixedResult(), origin)
	for _, rec := range next {
		assert.False(t, seen[rec.ID], "id %s reused across cycles", rec.ID)
	}
}

func TestRegistry_JitterWithinSpan(t *testing.T) {
	r, _ := newTestRegistry(t)

	result := core.CategorizedResult{}
	for i := 0; i < 50; i++ {
		result.Events = append(result.Events, core.Item{Name: "e"})
		result.Alerts = append(result.Alerts, core.Item{Title: "a"})
	}
	records := r.AddFromResult(result, origin)

	positions := map[core.LatLng]bool{}
	for _, rec := range records {
		limit := 0.005
		if rec.Category == core.CategoryAlert {
			limit = 0.0025
		}
		assert.LessOrEqual(t, math.Abs(rec.Position.Lat-origin.Lat), limit)
		assert.LessOrEqual(t, math.Abs(rec.Position.Lng-origin.Lng), limit)
		positions[rec.Position] = true
	}
	assert.Len(t, positions, 100, "jittered placements should be distinct")
}

func TestRegistry_StoreDefaults(t *testing.T) {
	r, _ := newTestRegistry(t)

	records := r.AddFromResult(mixedResult(), origin)

	ev := records[0]
	assert.Equal(t, DateNotSpecified, ev.Date)
	assert.Equal(t, TimeNotSpecified, ev.Time)
	assert.Equal(t, AddressNotSpecified, ev.Address)

	rest := records[2]
	assert.Equal(t, "Mexican", rest.Cuisine)
	assert.Equal(t, OpenToday, rest.Date)
	assert.Equal(t, HoursTBD, rest.Time)
	assert.Equal(t, AddressNotSpecified, rest.Address)

	alert := records[3]
	assert.Equal(t, SeverityNormal, alert.Severity)
	assert.Equal(t, AlertCurrent, alert.Date)
	assert.Equal(t, AlertOngoing, alert.Time)
	assert.Empty(t, alert.Address)
}

func TestRegistry_ClearKeepsStore(t *testing.T) {
	r, m := newTestRegistry(t)

	records := r.AddFromResult(mixedResult(), origin)
	r.Clear()

	assert.Equal(t, 0, r.MarkerCount())
	assert.Equal(t, 0, m.MarkerCount())
	_, ok := r.Lookup(records[0].ID)
	assert.True(t, ok, "records stay readable after Clear")
}

func TestRegistry_NewCycleReplacesStore(t *testing.T) {
	r, m := newTestRegistry(t)

	first := r.AddFromResult(mixedResult(), origin)
	second := r.AddFromResult(core.CategorizedResult{Events: []core.Item{{Name: "Solo"}}}, origin)

	require.Len(t, second, 1)
	assert.Equal(t, 1, r.StoreSize())
	assert.Equal(t, 1, m.MarkerCount())
	_, ok := r.Lookup(first[0].ID)
	assert.False(t, ok)
}

func TestRegistry_LookupMiss(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, ok := r.Lookup("event_nope_0")
	assert.False(t, ok)
}

func TestRegistry_MarkerClickOpensPopup(t *testing.T) {
	r, m := newTestRegistry(t)

	var opened []core.Popup
	r.OnPopup(func(p core.Popup) { opened = append(opened, p) })
	records := r.AddFromResult(mixedResult(), origin)

	require.NoError(t, r.Activate(records[2].ID))

	p, ok := m.Popup()
	require.True(t, ok)
	assert.Equal(t, "Taqueria", p.Popup.Title)
	require.Len(t, opened, 1)
	assert.Equal(t, records[2].ID, opened[0].RecordID)

	assert.ErrorIs(t, r.Activate("missing"), core.ErrLookupMiss)
}

func TestRegistry_FitBounds(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.AddFromResult(mixedResult(), origin)
	b, ok := r.FitBounds(origin)
	require.True(t, ok)
	assert.True(t, b.Contains(origin))
	assert.True(t, b.Contains(core.LatLng{Lat: 37.80, Lng: -122.42}))

	r.AddFromResult(core.CategorizedResult{Events: []core.Item{{Name: "Open Mic"}}}, origin)
	_, ok = r.FitBounds(origin)
	assert.False(t, ok, "jittered records do not count")
}

func TestRegistry_EmptyResult(t *testing.T) {
	r, m := newTestRegistry(t)

	r.AddFromResult(mixedResult(), origin)
	records := r.AddFromResult(core.CategorizedResult{}, origin)

	assert.Empty(t, records)
	assert.Equal(t, 0, r.MarkerCount())
	assert.Equal(t, 0, m.MarkerCount())
	assert.Empty(t, r.Records())
}
