// Package registry keeps the markers placed for the current discovery or
// search cycle together with the detail records behind them.
package registry

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/citypulse/client/internal/geo"
	"github.com/citypulse/client/internal/mapview"
	"github.com/citypulse/client/internal/view"
	"github.com/citypulse/client/pkg/core"
	"github.com/oklog/ulid/v2"
)

// Store placeholders for fields the backend left out.
const (
	DateNotSpecified    = "Date not specified"
	TimeNotSpecified    = "Time not specified"
	AddressNotSpecified = "Address not specified"
	CuisineNotSpecified = "Cuisine not specified"
	OpenToday           = "Open Today"
	HoursTBD            = "Hours TBD"
	SeverityNormal      = "Normal"
	AlertCurrent        = "Current"
	AlertOngoing        = "Ongoing"
)

// Options configures placement.
type Options struct {
	JitterSpan      float64
	AlertJitterSpan float64
	// Seed for the jitter source. Zero seeds from the clock.
	Seed int64
}

type entry struct {
	record core.DetailRecord
	popup  core.Popup
}

// Registry maps record ids to their detail records and tracks the markers
// rendered for them.
type Registry struct {
	mu      sync.RWMutex
	m       mapview.Map
	opts    Options
	jitter  *geo.Jitterer
	entropy *rand.Rand

	markers []mapview.Marker
	store   map[string]entry
	order   []string

	onPopup func(core.Popup)
}

// New creates an empty Registry drawing on m.
func New(m mapview.Map, opts Options) *Registry {
	if opts.JitterSpan <= 0 {
		opts.JitterSpan = geo.DefaultJitterSpan
	}
	if opts.AlertJitterSpan <= 0 {
		opts.AlertJitterSpan = geo.DefaultAlertJitterSpan
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Registry{
		m:       m,
		opts:    opts,
		jitter:  geo.NewJitterer(seed),
		entropy: rand.New(rand.NewSource(seed)),
		store:   make(map[string]entry),
	}
}

// OnPopup registers a callback run whenever a marker's popup is opened.
func (r *Registry) OnPopup(f func(core.Popup)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPopup = f
}

// Clear removes every rendered marker. Stored records stay readable until the
// next AddFromResult replaces them.
func (r *Registry) Clear() {
	r.mu.Lock()
	markers := r.markers
	r.markers = nil
	r.mu.Unlock()

	for _, mk := range markers {
		mk.Remove()
	}
}

// AddFromResult places one marker per item and replaces the store with the
// new records. Markers left over from an earlier cycle are removed first, so
// results are never merged. Records are returned in placement order.
func (r *Registry) AddFromResult(result core.CategorizedResult, origin core.LatLng) []core.DetailRecord {
	r.Clear()

	cycle := ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
	store := make(map[string]entry, result.Total())
	order := make([]string, 0, result.Total())
	markers := make([]mapview.Marker, 0, result.Total())
	records := make([]core.DetailRecord, 0, result.Total())

	for _, c := range core.ResultCategories {
		for i, it := range result.Items(c) {
			pos, own := geo.ItemPosition(it)
			if !own {
				pos = r.jitter.Around(origin, geo.SpanFor(c, r.opts.JitterSpan, r.opts.AlertJitterSpan))
			}

			id := fmt.Sprintf("%s_%s_%d", c, cycle, i)
			rec := newRecord(id, c, it, pos, !own)
			e := entry{record: rec, popup: view.Popup(c, it, id)}

			mk := r.m.AddMarker(pos, mapview.MarkerOptions{Category: c, Title: rec.Name})
			mk.OnClick(r.activate(mk, e.popup))

			store[id] = e
			order = append(order, id)
			markers = append(markers, mk)
			records = append(records, rec)
		}
	}

	r.mu.Lock()
	r.store = store
	r.order = order
	r.markers = markers
	r.mu.Unlock()

	return records
}

func (r *Registry) activate(mk mapview.Marker, p core.Popup) func() {
	return func() {
		r.m.OpenPopup(mk, p)
		r.mu.RLock()
		f := r.onPopup
		r.mu.RUnlock()
		if f != nil {
			f(p)
		}
	}
}

// Lookup returns the stored record for id.
func (r *Registry) Lookup(id string) (core.DetailRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.store[id]
	return e.record, ok
}

// Records returns the stored records in placement order.
func (r *Registry) Records() []core.DetailRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.DetailRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.store[id].record)
	}
	return out
}

// MarkerCount is the number of markers currently rendered.
func (r *Registry) MarkerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.markers)
}

// StoreSize is the number of stored records.
func (r *Registry) StoreSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store)
}

// Activate clicks the marker of a stored record, opening its popup.
func (r *Registry) Activate(id string) error {
	r.mu.RLock()
	var target mapview.Marker
	for i, rid := range r.order {
		if rid == id && i < len(r.markers) {
			target = r.markers[i]
		}
	}
	r.mu.RUnlock()
	if target == nil {
		return fmt.Errorf("activate %s: %w", id, core.ErrLookupMiss)
	}
	target.Click()
	return nil
}

// FitBounds returns the box covering origin and every record placed at its
// own coordinates. ok is false when no record had coordinates.
func (r *Registry) FitBounds(origin core.LatLng) (b geo.Bounds, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b = b.Extend(origin)
	for _, id := range r.order {
		rec := r.store[id].record
		if rec.Synthesized {
			continue
		}
		b = b.Extend(rec.Position)
		ok = true
	}
	return b, ok
}

func newRecord(id string, c core.Category, it core.Item, pos core.LatLng, synthesized bool) core.DetailRecord {
	rec := core.DetailRecord{
		ID:          id,
		Category:    c,
		SourceID:    it.ID,
		Name:        it.DisplayName(),
		Description: it.Description,
		Date:        it.Date,
		Time:        it.Time,
		Address:     it.Address,
		Cuisine:     it.Cuisine,
		Severity:    it.Severity,
		Website:     it.Website,
		Citation:    it.Citation,
		Position:    pos,
		Synthesized: synthesized,
	}
	switch c {
	case core.CategoryEvent:
		rec.Date = or(rec.Date, DateNotSpecified)
		rec.Time = or(rec.Time, TimeNotSpecified)
		rec.Address = or(rec.Address, AddressNotSpecified)
	case core.CategoryRestaurant:
		rec.Cuisine = or(rec.Cuisine, CuisineNotSpecified)
		rec.Address = or(rec.Address, AddressNotSpecified)
		rec.Date = or(rec.Date, OpenToday)
		rec.Time = or(rec.Time, HoursTBD)
	case core.CategoryAlert:
		rec.Severity = or(rec.Severity, SeverityNormal)
		rec.Date = or(rec.Date, AlertCurrent)
		rec.Time = or(rec.Time, AlertOngoing)
	}
	return rec
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
