// Package share creates share links for records and opens locations other
// users shared.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/citypulse/client/internal/api"
	"github.com/citypulse/client/internal/eventloop"
	"github.com/citypulse/client/internal/geo"
	"github.com/citypulse/client/internal/mapview"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/internal/view"
	"github.com/citypulse/client/pkg/core"
)

// User-facing messages.
const (
	MsgShareFailed = "Failed to create shareable link. Please try again."
	MsgNotFound    = "Shared location not found or has expired."
	MsgLoadFailed  = "Failed to load shared location."
)

// SharedZoom is the zoom level a shared location opens at.
const SharedZoom = 16

// Backend stores and serves shared locations.
type Backend interface {
	Share(ctx context.Context, r core.ShareRequest) (api.ShareResult, error)
	SharedLocation(ctx context.Context, id string) (core.SharedLocation, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Scheduler eventloop.Scheduler
	Backend   Backend
	Map       mapview.Map
	Surface   ui.Surface
	// Fallback positions a shared location that carries no coordinates.
	Fallback core.LatLng
	Logger   *slog.Logger
}

// Service must only be used from the event loop.
type Service struct {
	d       Deps
	pending int
	closed  bool
	pin     mapview.Marker
	last    *core.SharedLocation
}

// New creates a Service.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{d: d}
}

// Busy reports whether a share or load is in flight.
func (s *Service) Busy() bool {
	return s.pending > 0
}

// Last returns the most recently opened shared location.
func (s *Service) Last() (core.SharedLocation, bool) {
	if s.last == nil {
		return core.SharedLocation{}, false
	}
	return *s.last, true
}

// Close removes the shared pin and ignores responses still in flight.
func (s *Service) Close() {
	s.closed = true
	if s.pin != nil {
		s.pin.Remove()
		s.pin = nil
	}
}

// Share stores rec on the backend and shows the resulting link.
func (s *Service) Share(rec core.DetailRecord) {
	req := core.ShareRequestFrom(rec)
	var (
		res api.ShareResult
		err error
	)
	s.pending++
	s.d.Scheduler.Go(func(ctx context.Context) {
		res, err = s.d.Backend.Share(ctx, req)
	}, func() {
		s.pending--
		if s.closed {
			return
		}
		if err != nil {
			s.d.Logger.Error("share failed", "record", rec.ID, "error", err)
			s.d.Surface.Alert(MsgShareFailed)
			return
		}
		s.d.Logger.Info("location shared", "record", rec.ID, "locationId", res.LocationID)
		s.d.Surface.ShowShareLink(res.URL)
	})
}

// Open loads a shared location, centres the map on it and opens its popup.
func (s *Service) Open(id string) {
	var (
		loc core.SharedLocation
		err error
	)
	s.pending++
	s.d.Scheduler.Go(func(ctx context.Context) {
		loc, err = s.d.Backend.SharedLocation(ctx, id)
	}, func() {
		s.pending--
		if s.closed {
			return
		}
		switch {
		case errors.Is(err, core.ErrLookupMiss):
			s.d.Surface.Notice(MsgNotFound)
			return
		case err != nil:
			s.d.Logger.Error("loading shared location failed", "id", id, "error", err)
			s.d.Surface.Notice(MsgLoadFailed)
			return
		}
		s.show(loc)
	})
}

func (s *Service) show(loc core.SharedLocation) {
	pos := s.d.Fallback
	if loc.Latitude.Valid && loc.Longitude.Valid {
		p := core.LatLng{Lat: loc.Latitude.Value, Lng: loc.Longitude.Value}
		if geo.Validate(p) == nil {
			pos = p
		}
	}

	if s.pin != nil {
		s.pin.Remove()
	}
	s.d.Map.SetCenter(pos, SharedZoom)
	s.pin = s.d.Map.AddMarker(pos, mapview.MarkerOptions{Category: loc.Type, Title: loc.Name})
	popup := view.SharedPopup(loc)
	s.d.Map.OpenPopup(s.pin, popup)
	s.last = &loc

	s.d.Surface.Notice(Banner(loc))
	s.d.Surface.ShowPopup(popup)
}

// Banner is the header line shown above a shared location.
func Banner(loc core.SharedLocation) string {
	msg := "📍 Shared Location: " + loc.Name
	if loc.SharedAt != "" {
		msg += fmt.Sprintf(" (shared on %s)", SharedDate(loc.SharedAt))
	}
	return msg
}

var sharedAtLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// SharedDate renders a shared_at timestamp as a short date. Values that do
// not parse are returned unchanged.
func SharedDate(v string) string {
	for _, layout := range sharedAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return v
}
