package geo

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/citypulse/client/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Default jitter spans in degrees. Alerts are assumed to be more precisely
// located than events and restaurants, so they scatter less.
const (
	DefaultJitterSpan      = 0.01
	DefaultAlertJitterSpan = 0.005
)

// Validate checks that p is a finite coordinate within WGS84 range.
func Validate(p core.LatLng) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return ErrInvalidCoordinates
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// ItemPosition returns the item's own coordinates when both are present and
// usable.
func ItemPosition(it core.Item) (core.LatLng, bool) {
	if !it.Latitude.Valid || !it.Longitude.Valid {
		return core.LatLng{}, false
	}
	p := core.LatLng{Lat: it.Latitude.Value, Lng: it.Longitude.Value}
	if Validate(p) != nil {
		return core.LatLng{}, false
	}
	return p, true
}

// LatLngFromString parses a "lat,lng" string.
func LatLngFromString(coords string) (core.LatLng, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	p := core.LatLng{Lat: lat, Lng: lng}
	if err := Validate(p); err != nil {
		return core.LatLng{}, err
	}
	return p, nil
}

// Point converts p to a simplefeatures point with X=lng and Y=lat.
func Point(p core.LatLng) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.Lng, Y: p.Lat},
		Type: geom.DimXY,
	})
}

// Mercator projects p from EPSG:4326 to EPSG:3857 (metres).
func Mercator(p core.LatLng) (x, y float64) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ = f(p.Lng, p.Lat, 0)
	return x, y
}

// Jitterer synthesises placements for items that carry no coordinates.
type Jitterer struct {
	rnd *rand.Rand
}

// NewJitterer creates a Jitterer with its own random source.
func NewJitterer(seed int64) *Jitterer {
	return &Jitterer{rnd: rand.New(rand.NewSource(seed))}
}

// Around offsets origin on each axis by a uniform amount in [-span/2, span/2).
func (j *Jitterer) Around(origin core.LatLng, span float64) core.LatLng {
	return core.LatLng{
		Lat: origin.Lat + (j.rnd.Float64()-0.5)*span,
		Lng: origin.Lng + (j.rnd.Float64()-0.5)*span,
	}
}

// SpanFor returns the jitter span used for a category.
func SpanFor(c core.Category, span, alertSpan float64) float64 {
	if c == core.CategoryAlert {
		return alertSpan
	}
	return span
}
