// Package detail drives the detail modal of one record: its content, the
// insights panel and the share and directions actions.
package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/citypulse/client/internal/api"
	"github.com/citypulse/client/internal/eventloop"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/internal/view"
	"github.com/citypulse/client/pkg/core"
)

// ErrNoRecord is returned by actions that need an open modal.
var ErrNoRecord = errors.New("no record open")

// Insights button labels and panel messages.
const (
	LabelGetInsights     = "Get Insights"
	LabelGettingInsights = "Getting Insights..."
	LabelRefreshInsights = "Refresh Insights"
	LabelTryAgain        = "Try Again"

	MsgInsightsUnavailable = "Unable to get insights right now. Please try again later."
	MsgInsightsFailed      = "Failed to get insights. Please try again."
)

// Lookup resolves record ids.
type Lookup interface {
	Lookup(id string) (core.DetailRecord, bool)
}

// InsightsFetcher retrieves the enrichment text for a record.
type InsightsFetcher interface {
	Insights(ctx context.Context, r core.InsightsRequest) (string, error)
}

// Sharer publishes a record.
type Sharer interface {
	Share(rec core.DetailRecord)
}

// Deps are the collaborators of a Session.
type Deps struct {
	Scheduler eventloop.Scheduler
	Records   Lookup
	Insights  InsightsFetcher
	Sharer    Sharer
	Surface   ui.Surface
	Logger    *slog.Logger
}

// Session owns the open modal. It must only be used from the event loop.
type Session struct {
	d Deps

	current  *core.DetailRecord
	seq      uint64
	insights core.InsightsView
	inflight bool
}

// New creates a Session with no modal open.
func New(d Deps) *Session {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Session{d: d}
}

// Open shows the modal for id. An unknown id leaves the session untouched.
func (s *Session) Open(id string) error {
	rec, ok := s.d.Records.Lookup(id)
	if !ok {
		s.d.Logger.Debug("detail lookup missed", "id", id)
		return fmt.Errorf("open %s: %w", id, core.ErrLookupMiss)
	}
	s.seq++
	s.current = &rec
	s.inflight = false
	s.insights = core.InsightsView{State: core.InsightsNotFetched}

	s.d.Surface.SetButton(ui.ButtonInsights, ui.ButtonState{Label: LabelGetInsights})
	s.d.Surface.ShowModal(view.Modal(rec))
	s.d.Surface.ShowInsights(s.insights)
	return nil
}

// Close dismisses the modal. A pending insights response is discarded.
func (s *Session) Close() {
	s.seq++
	s.current = nil
	s.inflight = false
	s.insights = core.InsightsView{}
}

// Current returns the record of the open modal.
func (s *Session) Current() (core.DetailRecord, bool) {
	if s.current == nil {
		return core.DetailRecord{}, false
	}
	return *s.current, true
}

// Insights returns the state of the insights panel.
func (s *Session) Insights() core.InsightsView {
	return s.insights
}

// Busy reports whether an insights fetch is in flight.
func (s *Session) Busy() bool {
	return s.inflight
}

// FetchInsights requests insights for the open record. While one request is
// in flight further calls are ignored.
func (s *Session) FetchInsights() error {
	if s.current == nil {
		return ErrNoRecord
	}
	if s.inflight {
		return nil
	}
	rec := *s.current
	seq := s.seq
	s.inflight = true
	s.insights = core.InsightsView{State: core.InsightsLoading}
	s.d.Surface.SetButton(ui.ButtonInsights, ui.ButtonState{Loading: true, Label: LabelGettingInsights})
	s.d.Surface.ShowInsights(s.insights)

	req := core.InsightsRequest{
		Name:        rec.Name,
		Category:    rec.Category,
		Description: rec.Description,
		Address:     rec.Address,
	}
	var (
		text string
		err  error
	)
	s.d.Scheduler.Go(func(ctx context.Context) {
		text, err = s.d.Insights.Insights(ctx, req)
	}, func() {
		if seq != s.seq {
			s.d.Logger.Debug("dropping insights for closed modal", "record", rec.ID)
			return
		}
		s.inflight = false
		switch {
		case err == nil:
			s.insights = core.InsightsView{State: core.InsightsReady, HTML: view.FormatInsights(text)}
			s.d.Surface.SetButton(ui.ButtonInsights, ui.ButtonState{Label: LabelRefreshInsights})
		case errors.Is(err, api.ErrRejected):
			s.insights = core.InsightsView{State: core.InsightsFailed, Error: MsgInsightsUnavailable}
			s.d.Surface.SetButton(ui.ButtonInsights, ui.ButtonState{Label: LabelTryAgain})
		default:
			s.d.Logger.Error("insights fetch failed", "record", rec.ID, "error", err)
			s.insights = core.InsightsView{State: core.InsightsFailed, Error: MsgInsightsFailed}
			s.d.Surface.SetButton(ui.ButtonInsights, ui.ButtonState{Label: LabelTryAgain})
		}
		s.d.Surface.ShowInsights(s.insights)
	})
	return nil
}

// Directions returns the directions links for the open record.
func (s *Session) Directions(p view.Platform) (view.Directions, error) {
	if s.current == nil {
		return view.Directions{}, ErrNoRecord
	}
	return view.DirectionsURL(*s.current, p), nil
}

// Share publishes the open record.
func (s *Session) Share() error {
	if s.current == nil {
		return ErrNoRecord
	}
	s.d.Sharer.Share(*s.current)
	return nil
}
