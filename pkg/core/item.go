// pkg/core/item.go
package core

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// LatLng is a WGS84 coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinate is a single latitude or longitude as delivered by the backend.
// The backend may send a number, a numeric string, null or nothing at all;
// anything that does not parse as a finite number decodes as absent instead of
// failing the whole response.
type Coordinate struct {
	Value float64
	Valid bool
}

// NewCoordinate returns a present coordinate.
func NewCoordinate(v float64) Coordinate {
	return Coordinate{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*c = Coordinate{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*c = Coordinate{}
		return nil
	}
	*c = Coordinate{Value: f, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, c.Value, 'f', -1, 64), nil
}

// Citation points at the source a backend item was taken from.
type Citation struct {
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Item is one event, restaurant or alert as returned by the discovery and
// search endpoints. Events and restaurants carry a Name, alerts a Title.
type Item struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Title       string     `json:"title,omitempty"`
	Type        string     `json:"type,omitempty"`
	Description string     `json:"description,omitempty"`
	Address     string     `json:"address,omitempty"`
	Date        string     `json:"date,omitempty"`
	Time        string     `json:"time,omitempty"`
	Cuisine     string     `json:"cuisine,omitempty"`
	Severity    string     `json:"severity,omitempty"`
	Website     string     `json:"website,omitempty"`
	Latitude    Coordinate `json:"latitude"`
	Longitude   Coordinate `json:"longitude"`
	Citation    *Citation  `json:"citation,omitempty"`
}

// DisplayName returns the name, falling back to the title.
func (it Item) DisplayName() string {
	if it.Name != "" {
		return it.Name
	}
	return it.Title
}

// CategorizedResult is the payload shared by the nearby and search endpoints.
type CategorizedResult struct {
	Events      []Item `json:"events"`
	Restaurants []Item `json:"restaurants"`
	Alerts      []Item `json:"alerts"`
}

// Items returns the items of one category.
func (r CategorizedResult) Items(c Category) []Item {
	switch c {
	case CategoryEvent:
		return r.Events
	case CategoryRestaurant:
		return r.Restaurants
	case CategoryAlert:
		return r.Alerts
	}
	return nil
}

// Total is the number of items over all categories.
func (r CategorizedResult) Total() int {
	return len(r.Events) + len(r.Restaurants) + len(r.Alerts)
}
