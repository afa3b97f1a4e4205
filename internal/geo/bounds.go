package geo

import (
	"github.com/citypulse/client/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Bounds is a lat/lng bounding box. The zero value is empty.
type Bounds struct {
	env geom.Envelope
}

// Extend returns b grown to include p.
func (b Bounds) Extend(p core.LatLng) Bounds {
	b.env = b.env.ExpandToIncludeXY(geom.XY{X: p.Lng, Y: p.Lat})
	return b
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return b.env.IsEmpty()
}

// Corners returns the south-west and north-east corners.
func (b Bounds) Corners() (sw, ne core.LatLng, ok bool) {
	lo, hi, ok := b.env.MinMaxXYs()
	if !ok {
		return core.LatLng{}, core.LatLng{}, false
	}
	return core.LatLng{Lat: lo.Y, Lng: lo.X}, core.LatLng{Lat: hi.Y, Lng: hi.X}, true
}

// Center returns the midpoint of the box.
func (b Bounds) Center() (core.LatLng, bool) {
	sw, ne, ok := b.Corners()
	if !ok {
		return core.LatLng{}, false
	}
	return core.LatLng{Lat: (sw.Lat + ne.Lat) / 2, Lng: (sw.Lng + ne.Lng) / 2}, true
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p core.LatLng) bool {
	sw, ne, ok := b.Corners()
	if !ok {
		return false
	}
	return p.Lat >= sw.Lat && p.Lat <= ne.Lat && p.Lng >= sw.Lng && p.Lng <= ne.Lng
}
