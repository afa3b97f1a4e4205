// Package discovery runs the nearby and search cycles: fetch, repopulate the
// registry, fit the map and keep progress and button state in step.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/citypulse/client/internal/eventloop"
	"github.com/citypulse/client/internal/logging"
	"github.com/citypulse/client/internal/mapview"
	"github.com/citypulse/client/internal/registry"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/citypulse/client/internal/discovery"

// User-facing messages.
const (
	MsgNoLocationDiscover = "Location not available. Please allow location access and refresh the page."
	MsgNoLocationSearch   = "Location not available. Please allow location access."
	MsgEmptyQuery         = "Please enter what you're looking for!"
	MsgDiscoverFailed     = "Failed to discover nearby places. Please try again."
	MsgSearchFailed       = "Search failed. Please try again."
	MsgNothingNearby      = "No nearby places found right now. Please try again later."
	MsgDiscovering        = "Discovering nearby places..."
)

// Button labels.
const (
	LabelDiscover    = "Discover Nearby"
	LabelDiscovering = "Discovering..."
	LabelSearch      = "Search"
	LabelSearching   = "Searching..."
)

// NoResultsMessage is the notice for a search that matched nothing.
func NoResultsMessage(query string) string {
	return fmt.Sprintf(`No results found for "%s". Try a different search term.`, query)
}

// Kind of cycle.
type Kind string

const (
	KindDiscover Kind = "discover"
	KindSearch   Kind = "search"
)

// Outcome of a cycle.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeEmpty      Outcome = "empty"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuperseded Outcome = "superseded"
)

// Cycle summarises one completed discover or search call.
type Cycle struct {
	Kind     Kind
	Query    string
	Outcome  Outcome
	Results  int
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Source fetches categorized results.
type Source interface {
	LocalData(ctx context.Context, p core.LatLng) (core.CategorizedResult, error)
	SearchLocal(ctx context.Context, p core.LatLng, query string) (core.CategorizedResult, error)
}

// CycleSink receives every completed cycle.
type CycleSink interface {
	RecordCycle(c Cycle)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Scheduler eventloop.Scheduler
	Source    Source
	Registry  *registry.Registry
	Map       mapview.Map
	Surface   ui.Surface
	Location  func() (core.LatLng, bool)
	// Sinks are told about every completed cycle, superseded ones included.
	Sinks  []CycleSink
	Logger *slog.Logger
}

// Orchestrator owns the discover and search lifecycle. It must only be used
// from the event loop.
type Orchestrator struct {
	d       Deps
	padding int
	cycles  metric.Int64Counter

	gen      uint64
	pending  map[ui.Button]int
	inflight int
}

// New creates an Orchestrator that fits the map with padding pixels of
// margin.
func New(d Deps, padding int) (*Orchestrator, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	o := &Orchestrator{d: d, padding: padding, pending: make(map[ui.Button]int)}

	var err error
	o.cycles, err = otel.Meter(instrumentationName).Int64Counter(
		"discovery.cycles",
		metric.WithDescription("Completed discover and search cycles by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cycle counter: %w", err)
	}
	return o, nil
}

// Busy reports whether any call is still in flight.
func (o *Orchestrator) Busy() bool {
	return o.inflight > 0
}

// Close supersedes every call still in flight so none of them touches the
// registry when it completes.
func (o *Orchestrator) Close() {
	o.gen++
}

// Discover fetches what is happening around the session location.
func (o *Orchestrator) Discover() error {
	loc, ok := o.d.Location()
	if !ok {
		o.d.Surface.Alert(MsgNoLocationDiscover)
		return core.ErrLocationUnavailable
	}
	o.run(KindDiscover, "", loc)
	return nil
}

// Search fetches results for query around the session location. A blank
// query is rejected before any fetch.
func (o *Orchestrator) Search(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		o.d.Surface.Alert(MsgEmptyQuery)
		return core.ErrEmptyQuery
	}
	loc, ok := o.d.Location()
	if !ok {
		o.d.Surface.Alert(MsgNoLocationSearch)
		return core.ErrLocationUnavailable
	}
	o.run(KindSearch, q, loc)
	return nil
}

func (o *Orchestrator) run(kind Kind, query string, loc core.LatLng) {
	o.gen++
	gen := o.gen
	button, loading, progress := o.chrome(kind, query)

	o.inflight++
	o.pending[button]++
	o.d.Surface.ShowProgress(progress)
	o.d.Surface.SetButton(button, ui.ButtonState{Loading: true, Label: loading})

	started := time.Now()
	lctx := logging.WithAttrs(context.Background(),
		slog.String("kind", string(kind)), slog.Uint64("generation", gen))
	o.d.Logger.DebugContext(lctx, "cycle started", "query", query)

	var (
		result core.CategorizedResult
		err    error
	)
	o.d.Scheduler.Go(func(ctx context.Context) {
		if kind == KindSearch {
			result, err = o.d.Source.SearchLocal(ctx, loc, query)
		} else {
			result, err = o.d.Source.LocalData(ctx, loc)
		}
	}, func() {
		c := Cycle{Kind: kind, Query: query, Started: started, Duration: time.Since(started), Err: err}
		c.Outcome, c.Results = o.complete(lctx, gen, button, kind, query, loc, result, err)
		o.record(c)
	})
}

func (o *Orchestrator) complete(lctx context.Context, gen uint64, button ui.Button, kind Kind, query string, loc core.LatLng, result core.CategorizedResult, err error) (Outcome, int) {
	o.inflight--
	o.pending[button]--
	if o.pending[button] == 0 {
		o.d.Surface.SetButton(button, ui.ButtonState{Label: idleLabel(button)})
	}
	if gen != o.gen {
		o.d.Logger.DebugContext(lctx, "cycle superseded", "query", query, "latest", o.gen)
		return OutcomeSuperseded, 0
	}
	o.d.Surface.HideProgress()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return OutcomeFailed, 0
		}
		o.d.Logger.ErrorContext(lctx, "cycle failed", "query", query, "error", err)
		if kind == KindSearch {
			o.d.Surface.Alert(MsgSearchFailed)
		} else {
			o.d.Surface.Alert(MsgDiscoverFailed)
		}
		return OutcomeFailed, 0
	}

	records := o.d.Registry.AddFromResult(result, loc)
	if b, ok := o.d.Registry.FitBounds(loc); ok {
		o.d.Map.FitBounds(b, o.padding)
	}

	if len(records) == 0 {
		if kind == KindSearch {
			o.d.Surface.Notice(NoResultsMessage(query))
		} else {
			o.d.Surface.Notice(MsgNothingNearby)
		}
		return OutcomeEmpty, 0
	}
	o.d.Logger.InfoContext(lctx, "cycle complete", "query", query, "results", len(records))
	return OutcomeOK, len(records)
}

func (o *Orchestrator) record(c Cycle) {
	o.cycles.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", string(c.Kind)),
		attribute.String("outcome", string(c.Outcome)),
	))
	for _, s := range o.d.Sinks {
		s.RecordCycle(c)
	}
}

func (o *Orchestrator) chrome(kind Kind, query string) (ui.Button, string, string) {
	if kind == KindSearch {
		return ui.ButtonSearch, LabelSearching, fmt.Sprintf(`Searching for "%s"...`, query)
	}
	return ui.ButtonDiscover, LabelDiscovering, MsgDiscovering
}

func idleLabel(b ui.Button) string {
	if b == ui.ButtonSearch {
		return LabelSearch
	}
	return LabelDiscover
}
