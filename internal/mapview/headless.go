package mapview

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/citypulse/client/internal/geo"
	"github.com/citypulse/client/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

const (
	tileSize = 256
	maxZoom  = 18
	// half the circumference of the Web Mercator world, in metres
	originShift = 20037508.342789244
)

// Viewport is the visible area of the map.
type Viewport struct {
	Center core.LatLng `json:"center"`
	Zoom   int         `json:"zoom"`
}

// Headless keeps the map state in memory.
type Headless struct {
	mu      sync.RWMutex
	width   int
	height  int
	seq     int
	markers map[string]*headlessMarker
	view    Viewport
	popup   *OpenPopup
}

// OpenPopup is the popup currently shown, if any.
type OpenPopup struct {
	MarkerID string
	Popup    core.Popup
}

var _ Map = (*Headless)(nil)

// NewHeadless creates a map of the given pixel size centred on center.
func NewHeadless(width, height int, center core.LatLng, zoom int) *Headless {
	return &Headless{
		width:   width,
		height:  height,
		markers: make(map[string]*headlessMarker),
		view:    Viewport{Center: center, Zoom: zoom},
	}
}

func (h *Headless) AddMarker(pos core.LatLng, opts MarkerOptions) Marker {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	m := &headlessMarker{
		id:    fmt.Sprintf("m%d", h.seq),
		seq:   h.seq,
		pos:   pos,
		opts:  opts,
		style: opts.Category.Style(),
		m:     h,
	}
	h.markers[m.id] = m
	return m
}

func (h *Headless) OpenPopup(m Marker, p core.Popup) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.popup = &OpenPopup{MarkerID: m.ID(), Popup: p}
}

func (h *Headless) ClosePopup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.popup = nil
}

func (h *Headless) SetCenter(p core.LatLng, zoom int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = Viewport{Center: p, Zoom: zoom}
}

func (h *Headless) FitBounds(b geo.Bounds, padding int) {
	center, ok := b.Center()
	if !ok {
		return
	}
	sw, ne, _ := b.Corners()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = Viewport{Center: center, Zoom: fitZoom(sw, ne, h.width-2*padding, h.height-2*padding)}
}

// fitZoom is the largest zoom level at which the box spans at most w by h
// pixels.
func fitZoom(sw, ne core.LatLng, w, h int) int {
	if w <= 0 || h <= 0 {
		return 0
	}
	x0, y0 := geo.Mercator(sw)
	x1, y1 := geo.Mercator(ne)
	dx, dy := math.Abs(x1-x0), math.Abs(y1-y0)
	if dx == 0 && dy == 0 {
		return maxZoom
	}
	for z := maxZoom; z > 0; z-- {
		metresPerPixel := 2 * originShift / (tileSize * math.Exp2(float64(z)))
		if dx/metresPerPixel <= float64(w) && dy/metresPerPixel <= float64(h) {
			return z
		}
	}
	return 0
}

// Viewport returns the current viewport.
func (h *Headless) Viewport() Viewport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.view
}

// Popup returns the open popup.
func (h *Headless) Popup() (OpenPopup, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.popup == nil {
		return OpenPopup{}, false
	}
	return *h.popup, true
}

// Markers returns the placed markers in placement order.
func (h *Headless) Markers() []Marker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	list := make([]*headlessMarker, 0, len(h.markers))
	for _, m := range h.markers {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	out := make([]Marker, len(list))
	for i, m := range list {
		out[i] = m
	}
	return out
}

// MarkerCount returns the number of placed markers.
func (h *Headless) MarkerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.markers)
}

// Marker looks up a placed marker by id.
func (h *Headless) Marker(id string) (Marker, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.markers[id]
	return m, ok
}

// GeoJSON renders the placed markers as a FeatureCollection.
func (h *Headless) GeoJSON() ([]byte, error) {
	markers := h.Markers()
	fc := make(geom.GeoJSONFeatureCollection, 0, len(markers))
	for _, mk := range markers {
		m := mk.(*headlessMarker)
		fc = append(fc, geom.GeoJSONFeature{
			ID:       m.id,
			Geometry: geo.Point(m.pos).AsGeometry(),
			Properties: map[string]interface{}{
				"category": string(m.opts.Category),
				"title":    m.opts.Title,
				"color":    m.style.Color,
				"icon":     m.style.Icon,
			},
		})
	}
	return json.Marshal(fc)
}

type headlessMarker struct {
	id      string
	seq     int
	pos     core.LatLng
	opts    MarkerOptions
	style   core.Style
	onClick func()
	m       *Headless
}

func (m *headlessMarker) ID() string              { return m.id }
func (m *headlessMarker) Position() core.LatLng   { return m.pos }
func (m *headlessMarker) Category() core.Category { return m.opts.Category }

func (m *headlessMarker) OnClick(f func()) {
	m.onClick = f
}

func (m *headlessMarker) Click() {
	if m.onClick != nil {
		m.onClick()
	}
}

func (m *headlessMarker) Remove() {
	m.m.mu.Lock()
	defer m.m.mu.Unlock()
	delete(m.m.markers, m.id)
	if m.m.popup != nil && m.m.popup.MarkerID == m.id {
		m.m.popup = nil
	}
}
