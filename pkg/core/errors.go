// pkg/core/errors.go
package core

import "errors"

var (
	// ErrLocationUnavailable is returned when no session location is known.
	ErrLocationUnavailable = errors.New("location not available")
	// ErrEmptyQuery is returned for a blank search text.
	ErrEmptyQuery = errors.New("empty search query")
	// ErrNetworkFailure wraps rejected requests and malformed responses.
	ErrNetworkFailure = errors.New("network failure")
	// ErrNoResults is returned for a well-formed but empty result set.
	ErrNoResults = errors.New("no results")
	// ErrLookupMiss is returned when an id is not in the store.
	ErrLookupMiss = errors.New("record not found")
)
