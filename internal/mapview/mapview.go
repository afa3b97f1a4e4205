// Package mapview is the boundary to the map widget. The session only talks
// to Map and Marker; Headless is the in-memory implementation used by the CLI
// and tests.
package mapview

import (
	"github.com/citypulse/client/internal/geo"
	"github.com/citypulse/client/pkg/core"
)

// MarkerOptions describes a marker to place.
type MarkerOptions struct {
	Category core.Category
	Title    string
}

// Marker is a placed pin.
type Marker interface {
	ID() string
	Position() core.LatLng
	Category() core.Category
	// OnClick installs the activation handler, replacing any previous one.
	OnClick(func())
	// Click activates the marker as a user would.
	Click()
	// Remove takes the marker off the map. Removing twice is a no-op.
	Remove()
}

// Map is the map widget.
type Map interface {
	AddMarker(pos core.LatLng, opts MarkerOptions) Marker
	OpenPopup(m Marker, p core.Popup)
	ClosePopup()
	// FitBounds moves the viewport so the box is visible with padding pixels
	// of margin on every side.
	FitBounds(b geo.Bounds, padding int)
	SetCenter(p core.LatLng, zoom int)
}
