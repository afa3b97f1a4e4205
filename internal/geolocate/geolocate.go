// Package geolocate finds the user's position.
package geolocate

import (
	"context"
	"errors"

	"github.com/citypulse/client/internal/geo"
	"github.com/citypulse/client/pkg/core"
)

// ErrNoFix is returned when no position could be determined.
var ErrNoFix = errors.New("no location fix")

// Provider determines the current position.
type Provider interface {
	Locate(ctx context.Context) (core.LatLng, error)
}

// Fixed always reports the same position.
type Fixed core.LatLng

// Locate implements Provider.
func (f Fixed) Locate(ctx context.Context) (core.LatLng, error) {
	p := core.LatLng(f)
	if err := geo.Validate(p); err != nil {
		return core.LatLng{}, err
	}
	return p, nil
}

// Unavailable never produces a fix, like a browser that denied access.
type Unavailable struct{}

// Locate implements Provider.
func (Unavailable) Locate(ctx context.Context) (core.LatLng, error) {
	return core.LatLng{}, ErrNoFix
}
