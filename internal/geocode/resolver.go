// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/logger"
)

// Resolver turns place names and coordinates into resolved locations using a Geocoder.
type Resolver struct {
	coder  Geocoder
	logger *logger.Logger
}

func NewResolver(coder Geocoder, log *logger.Logger) *Resolver {
	return &Resolver{coder: coder, logger: log}
}

// Forward looks up name and returns the first match. The caller is expected to reject empty
// names. Errors always wrap either ErrNotFound or ErrServiceUnavailable.
func (r *Resolver) Forward(ctx context.Context, name string) (ResolvedLocation, error) {
	loc, err := r.coder.Search(ctx, name)
	if err != nil {
		return ResolvedLocation{}, classify(err)
	}
	r.logger.Debug("forward geocoding succeeded", slog.String("geocoder", r.coder.Name()),
		slog.String("query", name), slog.String("coordinates", loc.Coordinate.String()))
	return ResolvedLocation{Coordinate: loc.Coordinate, Label: loc.Label()}, nil
}

// Reverse returns the label for coords. Any failure is absorbed: ok is false and the error is
// only logged, so a failed reverse lookup never blocks a forecast fetch.
func (r *Resolver) Reverse(ctx context.Context, coords geobus.Coordinate) (label string, ok bool) {
	loc, err := r.coder.Reverse(ctx, coords)
	if err != nil {
		r.logger.Debug("reverse geocoding failed", slog.String("geocoder", r.coder.Name()),
			slog.String("coordinates", coords.String()), logger.Err(err))
		return "", false
	}
	label = loc.Label()
	if label == "" {
		return "", false
	}
	return label, true
}

func classify(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrServiceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
}
