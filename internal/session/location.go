package session

import (
	"sync"

	"github.com/citypulse/client/pkg/core"
)

// LocationSource tells where the session location came from.
type LocationSource string

const (
	SourceNone     LocationSource = ""
	SourceDevice   LocationSource = "device"
	SourceFallback LocationSource = "fallback"
)

// Location holds the session location. It is unset until the first
// geolocation attempt completes.
type Location struct {
	mu     sync.RWMutex
	point  core.LatLng
	source LocationSource
}

// NewLocation creates an unset Location.
func NewLocation() *Location {
	return &Location{}
}

// Get returns the current location.
func (l *Location) Get() (core.LatLng, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.point, l.source != SourceNone
}

// Source returns where the current location came from.
func (l *Location) Source() LocationSource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source
}

// Set replaces the location.
func (l *Location) Set(p core.LatLng, source LocationSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.point = p
	l.source = source
}
