// ABOUTME: Error values for pedal units
// ABOUTME: Routing and parameter validation sentinels
package pedal

import "errors"

var (
	// ErrRouting is returned when a connection between two units is not allowed
	ErrRouting = errors.New("routing error")

	// ErrInvalidParameter is returned when a parameter name or value is rejected
	ErrInvalidParameter = errors.New("invalid parameter")
)
