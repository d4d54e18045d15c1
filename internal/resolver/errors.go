package resolver

import "fmt"

// MissingBandError indicates a required band could not be fetched or
// corrected. Fatal to the resolution request that needed it; the same
// failure on an optional input degrades the composite instead and is
// reported as a warning.
type MissingBandError struct {
	Band     string
	Modifier string // empty when the raw fetch itself failed
	Err      error
}

func (e *MissingBandError) Error() string {
	if e.Modifier != "" {
		return fmt.Sprintf("required band %s unavailable at modifier %s: %v", e.Band, e.Modifier, e.Err)
	}
	return fmt.Sprintf("required band %s unavailable: %v", e.Band, e.Err)
}

func (e *MissingBandError) Unwrap() error { return e.Err }
