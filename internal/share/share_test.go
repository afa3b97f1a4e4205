package share

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/citypulse/client/internal/api"
	"github.com/citypulse/client/internal/eventloop/eventlooptest"
	"github.com/citypulse/client/internal/mapview"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var marina = core.LatLng{Lat: 37.8052, Lng: -122.4254}

type fakeBackend struct {
	shared   map[string]core.SharedLocation
	shareErr error
	loadErr  error
	requests []core.ShareRequest
}

func (f *fakeBackend) Share(ctx context.Context, r core.ShareRequest) (api.ShareResult, error) {
	f.requests = append(f.requests, r)
	if f.shareErr != nil {
		return api.ShareResult{}, f.shareErr
	}
	return api.ShareResult{LocationID: "ab12cd34", URL: "http://localhost:5001/shared/ab12cd34"}, nil
}

func (f *fakeBackend) SharedLocation(ctx context.Context, id string) (core.SharedLocation, error) {
	if f.loadErr != nil {
		return core.SharedLocation{}, f.loadErr
	}
	loc, ok := f.shared[id]
	if !ok {
		return core.SharedLocation{}, fmt.Errorf("shared location %s: %w", id, core.ErrLookupMiss)
	}
	return loc, nil
}

func newTestService(t *testing.T) (*Service, *eventlooptest.Scheduler, *fakeBackend, *mapview.Headless, *ui.Recorder) {
	t.Helper()
	sched := eventlooptest.New()
	backend := &fakeBackend{shared: map[string]core.SharedLocation{}}
	m := mapview.NewHeadless(800, 600, marina, 15)
	surface := ui.NewRecorder()
	s := New(Deps{Scheduler: sched, Backend: backend, Map: m, Surface: surface, Fallback: marina})
	return s, sched, backend, m, surface
}

func TestShare_ShowsLink(t *testing.T) {
	s, sched, backend, _, surface := newTestService(t)

	s.Share(core.DetailRecord{ID: "event_1", Name: "Jazz Night", Category: core.CategoryEvent, Position: marina})
	assert.True(t, s.Busy())
	sched.ResolveAll()

	assert.False(t, s.Busy())
	assert.Equal(t, []string{"http://localhost:5001/shared/ab12cd34"}, surface.ShareLinks)
	require.Len(t, backend.requests, 1)
	assert.Equal(t, "Jazz Night", backend.requests[0].Name)
	assert.Equal(t, marina.Lat, backend.requests[0].Latitude.Value)
}

func TestShare_Failure(t *testing.T) {
	s, sched, backend, _, surface := newTestService(t)
	backend.shareErr = core.ErrNetworkFailure

	s.Share(core.DetailRecord{Name: "Jazz Night"})
	sched.ResolveAll()

	assert.Equal(t, MsgShareFailed, surface.LastAlert())
	assert.Empty(t, surface.ShareLinks)
}

func TestOpen_CentresAndPins(t *testing.T) {
	s, sched, backend, m, surface := newTestService(t)
	backend.shared["ab12cd34"] = core.SharedLocation{
		ID:        "ab12cd34",
		Name:      "Taqueria",
		Type:      core.CategoryRestaurant,
		Cuisine:   "Mexican",
		Latitude:  core.NewCoordinate(37.79),
		Longitude: core.NewCoordinate(-122.40),
		SharedAt:  "2024-05-01 10:00:00.123456",
	}

	s.Open("ab12cd34")
	sched.ResolveAll()

	assert.Equal(t, mapview.Viewport{Center: core.LatLng{Lat: 37.79, Lng: -122.40}, Zoom: SharedZoom}, m.Viewport())
	assert.Equal(t, 1, m.MarkerCount())
	p, ok := m.Popup()
	require.True(t, ok)
	assert.Equal(t, "Taqueria", p.Popup.Title)
	assert.Equal(t, "📍 Shared Location: Taqueria (shared on 5/1/2024)", surface.LastNotice())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "ab12cd34", last.ID)
}

func TestOpen_ReplacesPreviousPin(t *testing.T) {
	s, sched, backend, m, _ := newTestService(t)
	backend.shared["a"] = core.SharedLocation{Name: "A", Type: core.CategoryEvent}
	backend.shared["b"] = core.SharedLocation{Name: "B", Type: core.CategoryAlert}

	s.Open("a")
	s.Open("b")
	sched.ResolveAll()

	assert.Equal(t, 1, m.MarkerCount())
}

func TestOpen_NoCoordinatesUsesFallback(t *testing.T) {
	s, sched, backend, m, _ := newTestService(t)
	backend.shared["a"] = core.SharedLocation{Name: "A", Type: core.CategoryEvent}

	s.Open("a")
	sched.ResolveAll()

	assert.Equal(t, marina, m.Viewport().Center)
}

func TestOpen_NotFound(t *testing.T) {
	s, sched, _, m, surface := newTestService(t)

	s.Open("missing")
	sched.ResolveAll()

	assert.Equal(t, MsgNotFound, surface.LastNotice())
	assert.Equal(t, 0, m.MarkerCount())
}

func TestOpen_NetworkFailure(t *testing.T) {
	s, sched, backend, _, surface := newTestService(t)
	backend.loadErr = errors.New("connection refused")

	s.Open("a")
	sched.ResolveAll()

	assert.Equal(t, MsgLoadFailed, surface.LastNotice())
}

func TestSharedDate(t *testing.T) {
	assert.Equal(t, "5/1/2024", SharedDate("2024-05-01 10:00:00.123456"))
	assert.Equal(t, "12/31/2023", SharedDate("2023-12-31T23:00:00Z"))
	assert.Equal(t, "yesterday", SharedDate("yesterday"))
}
