package domain

import "errors"

var (
	// ErrRingTooShort is returned when a ring with fewer than 3 points is
	// offered to the store. Such a ring is never persisted.
	ErrRingTooShort = errors.New("ring must have at least 3 points")

	// ErrAreaNotFound is returned for operations on an unknown area id.
	ErrAreaNotFound = errors.New("area not found")

	// ErrNoAreas is returned when a mode requires at least one existing area.
	ErrNoAreas = errors.New("no areas defined")
)

// DefaultAreaColor is the display color assigned to every new area.
const DefaultAreaColor = "#f97316"

// Area is a user-defined polygon region (area of interest).
// The stored ring is always open: the first point is never duplicated at the
// end. Closure is applied transiently at render time only.
type Area struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Ring    Ring   `json:"ring"`
	Visible bool   `json:"visible"`
	Color   string `json:"color"`
}
