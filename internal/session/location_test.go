package session

import (
	"testing"

	"github.com/citypulse/client/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestLocation_UnsetUntilSet(t *testing.T) {
	loc := NewLocation()

	_, ok := loc.Get()
	assert.False(t, ok)
	assert.Equal(t, SourceNone, loc.Source())

	loc.Set(core.LatLng{Lat: 37.8052, Lng: -122.4254}, SourceFallback)
	p, ok := loc.Get()
	assert.True(t, ok)
	assert.Equal(t, 37.8052, p.Lat)
	assert.Equal(t, SourceFallback, loc.Source())
}

func TestLocation_ZeroIsValid(t *testing.T) {
	loc := NewLocation()
	loc.Set(core.LatLng{}, SourceDevice)

	_, ok := loc.Get()
	assert.True(t, ok)
}
