// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocode resolves free-text place names and coordinates into labelled locations.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/wneessen/weather-now/internal/geobus"
)

// LabelSeparator separates the parts of a location label. It is meant for multi-line display.
const LabelSeparator = ",\n"

var (
	// ErrNotFound is returned when the geocoding service has no result for the query.
	ErrNotFound = errors.New("no geocoding result found")
	// ErrServiceUnavailable is returned on transport errors or non-success HTTP responses.
	ErrServiceUnavailable = errors.New("geocoding service unavailable")
)

// Location is a geocoding result as returned by a Geocoder.
type Location struct {
	geobus.Coordinate
	Name    string
	Admin1  string
	Country string
}

// Label returns the human-readable label of the location: the place name, the region if present
// and distinct from the place name, and the country if present.
func (l Location) Label() string {
	parts := make([]string, 0, 3)
	if l.Name != "" {
		parts = append(parts, l.Name)
	}
	if l.Admin1 != "" && l.Admin1 != l.Name {
		parts = append(parts, l.Admin1)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, LabelSeparator)
}

// ResolvedLocation is a canonical coordinate/label pair.
type ResolvedLocation struct {
	geobus.Coordinate
	Label string
}

// Geocoder is implemented by geocoding backends. Search and Reverse return the best match only
// and wrap ErrNotFound or ErrServiceUnavailable on failure.
type Geocoder interface {
	Name() string
	Search(ctx context.Context, name string) (Location, error)
	Reverse(ctx context.Context, coords geobus.Coordinate) (Location, error)
}
