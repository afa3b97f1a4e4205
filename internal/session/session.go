// Package session wires the map session together: location, marker registry,
// suggestions, discovery, detail and sharing. A Session is the single owner
// of that state; there are no package-level singletons.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/citypulse/client/internal/detail"
	"github.com/citypulse/client/internal/discovery"
	"github.com/citypulse/client/internal/eventloop"
	"github.com/citypulse/client/internal/geolocate"
	"github.com/citypulse/client/internal/mapview"
	"github.com/citypulse/client/internal/registry"
	"github.com/citypulse/client/internal/share"
	"github.com/citypulse/client/internal/suggest"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/internal/view"
	"github.com/citypulse/client/pkg/core"
	"github.com/oklog/ulid/v2"
)

// ErrClosed is returned by actions on a closed session.
var ErrClosed = errors.New("session closed")

// MsgWelcome is shown once the session has a location.
const MsgWelcome = "🌆 Welcome to CityPulse! Discover what's happening around you right now."

// DefaultZoom is the zoom level of a fresh map.
const DefaultZoom = 15

// Backend is everything the session asks of the server.
type Backend interface {
	discovery.Source
	suggest.Fetcher
	detail.InsightsFetcher
	share.Backend
}

// Config tunes a Session.
type Config struct {
	Fallback   core.LatLng
	FitPadding int
	Suggest    suggest.Config
	Registry   registry.Options
}

// Deps are the collaborators of a Session.
type Deps struct {
	Scheduler  eventloop.Scheduler
	Backend    Backend
	Map        mapview.Map
	Surface    ui.Surface
	Geolocator geolocate.Provider
	Sinks      []discovery.CycleSink
	Logger     *slog.Logger
}

// Session is one user's map session. All methods must be called on the event
// loop that drives its Scheduler.
type Session struct {
	ID string

	d        Deps
	cfg      Config
	logger   *slog.Logger
	location *Location

	Registry  *registry.Registry
	Suggest   *suggest.Session
	Discovery *discovery.Orchestrator
	Detail    *detail.Session
	Share     *share.Service

	userPin  mapview.Marker
	locating bool
	closed   bool
}

// New builds a Session. Call Start to locate the user.
func New(d Deps, cfg Config) (*Session, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Geolocator == nil {
		d.Geolocator = geolocate.Unavailable{}
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.New(rand.NewSource(time.Now().UnixNano()))).String()
	s := &Session{
		ID:       id,
		d:        d,
		cfg:      cfg,
		logger:   d.Logger.With("session", id),
		location: NewLocation(),
	}

	s.Registry = registry.New(d.Map, cfg.Registry)
	s.Registry.OnPopup(d.Surface.ShowPopup)

	s.Share = share.New(share.Deps{
		Scheduler: d.Scheduler,
		Backend:   d.Backend,
		Map:       d.Map,
		Surface:   d.Surface,
		Fallback:  cfg.Fallback,
		Logger:    s.logger,
	})

	s.Detail = detail.New(detail.Deps{
		Scheduler: d.Scheduler,
		Records:   s.Registry,
		Insights:  d.Backend,
		Sharer:    s.Share,
		Surface:   d.Surface,
		Logger:    s.logger,
	})

	var err error
	s.Discovery, err = discovery.New(discovery.Deps{
		Scheduler: d.Scheduler,
		Source:    d.Backend,
		Registry:  s.Registry,
		Map:       d.Map,
		Surface:   d.Surface,
		Location:  s.location.Get,
		Sinks:     d.Sinks,
		Logger:    s.logger,
	}, cfg.FitPadding)
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	s.Suggest, err = suggest.New(suggest.Deps{
		Scheduler: d.Scheduler,
		Fetcher:   d.Backend,
		Surface:   d.Surface,
		Location:  s.location.Get,
		Search:    func(q string) { _ = s.Discovery.Search(q) },
		Logger:    s.logger,
	}, cfg.Suggest)
	if err != nil {
		return nil, fmt.Errorf("creating suggestions: %w", err)
	}

	return s, nil
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Location returns the session location, if known.
func (s *Session) Location() (core.LatLng, bool) {
	return s.location.Get()
}

// LocationSource reports where the session location came from.
func (s *Session) LocationSource() LocationSource {
	return s.location.Source()
}

// Start asks the geolocator for a fix. On failure the configured fallback
// becomes the session location; a later successful fix replaces it.
func (s *Session) Start() {
	if s.closed || s.locating {
		return
	}
	s.locating = true
	var (
		p   core.LatLng
		err error
	)
	s.d.Scheduler.Go(func(ctx context.Context) {
		p, err = s.d.Geolocator.Locate(ctx)
	}, func() {
		s.locating = false
		if s.closed {
			return
		}
		if err != nil {
			s.logger.Info("geolocation failed, using default location", "error", err)
			if _, ok := s.location.Get(); !ok {
				s.location.Set(s.cfg.Fallback, SourceFallback)
			}
			s.d.Surface.Notice(MsgWelcome)
			return
		}
		s.location.Set(p, SourceDevice)
		s.d.Map.SetCenter(p, DefaultZoom)
		if s.userPin != nil {
			s.userPin.Remove()
		}
		s.userPin = s.d.Map.AddMarker(p, mapview.MarkerOptions{Category: core.CategoryUser, Title: "You are here"})
		s.logger.Info("located", "lat", p.Lat, "lng", p.Lng)
		s.d.Surface.Notice(MsgWelcome)
	})
}

// Input forwards a change of the search box text.
func (s *Session) Input(text string) {
	if s.closed {
		return
	}
	s.Suggest.Input(text)
}

// Key forwards a key press in the search box.
func (s *Session) Key(k suggest.Key) {
	if s.closed {
		return
	}
	s.Suggest.Key(k)
}

// ClickOutside dismisses the suggestion list.
func (s *Session) ClickOutside() {
	s.Suggest.ClickOutside()
}

// SelectSuggestion commits the suggestion at index i.
func (s *Session) SelectSuggestion(i int) error {
	if s.closed {
		return ErrClosed
	}
	return s.Suggest.Select(i)
}

// Discover starts a nearby discovery.
func (s *Session) Discover() error {
	if s.closed {
		return ErrClosed
	}
	return s.Discovery.Discover()
}

// Search searches for the current search box text.
func (s *Session) Search() error {
	if s.closed {
		return ErrClosed
	}
	return s.Discovery.Search(s.Suggest.Text())
}

// QuickSearch fills the search box with q and searches for it.
func (s *Session) QuickSearch(q string) error {
	if s.closed {
		return ErrClosed
	}
	s.Suggest.SetText(q)
	return s.Discovery.Search(q)
}

// ActivateMarker opens the popup of the record's marker.
func (s *Session) ActivateMarker(id string) error {
	if s.closed {
		return ErrClosed
	}
	return s.Registry.Activate(id)
}

// LearnMore opens the detail modal for a record, as the popup action does.
func (s *Session) LearnMore(id string) error {
	if s.closed {
		return ErrClosed
	}
	return s.Detail.Open(id)
}

// FetchInsights requests insights for the open modal.
func (s *Session) FetchInsights() error {
	if s.closed {
		return ErrClosed
	}
	return s.Detail.FetchInsights()
}

// Directions returns directions to the open record.
func (s *Session) Directions(p view.Platform) (view.Directions, error) {
	return s.Detail.Directions(p)
}

// ShareCurrent shares the open record.
func (s *Session) ShareCurrent() error {
	if s.closed {
		return ErrClosed
	}
	return s.Detail.Share()
}

// OpenShared loads a location shared by someone else.
func (s *Session) OpenShared(id string) error {
	if s.closed {
		return ErrClosed
	}
	s.Share.Open(id)
	return nil
}

// Busy reports whether any asynchronous work is outstanding.
func (s *Session) Busy() bool {
	if s.locating || s.Discovery.Busy() || s.Detail.Busy() || s.Share.Busy() {
		return true
	}
	switch s.Suggest.Snapshot().State {
	case suggest.Debouncing, suggest.Fetching:
		return true
	}
	return false
}

// Close tears the session down. Responses still in flight are ignored.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.Suggest.Close()
	s.Discovery.Close()
	s.Detail.Close()
	s.Share.Close()
	s.Registry.Clear()
	if s.userPin != nil {
		s.userPin.Remove()
		s.userPin = nil
	}
	s.logger.Debug("session closed")
}
