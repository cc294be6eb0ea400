package model

import "github.com/rotisserie/eris"

// Error taxonomy. Data gaps and malformed records never abort scoring; they
// degrade confidence or are skipped and tallied. Configuration problems are
// fatal at startup. Invalid queries are returned to the caller typed.
var (
	// ErrUnknownArea indicates a query for an area id not present in the
	// reference snapshot.
	ErrUnknownArea = eris.New("model: unknown area id")

	// ErrOutOfRange indicates coordinates outside valid lat/lng bounds.
	ErrOutOfRange = eris.New("model: coordinates out of range")

	// ErrConfiguration indicates an invalid weight table or severity profile.
	// Must be surfaced at startup, never tolerated silently.
	ErrConfiguration = eris.New("model: invalid configuration")
)

// ValidCoordinates reports whether lat/lng are in range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
