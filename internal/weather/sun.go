// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package weather

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/wneessen/weather-now/internal/geobus"
)

// SunTimes calculates sunrise and sunset for the calendar day of date at coords. The results are
// in the location of date. Both are zero during polar day or night.
func SunTimes(coords geobus.Coordinate, date time.Time) (rise, set time.Time) {
	rise, set = sunrise.SunriseSunset(coords.Lat, coords.Lon, date.Year(), date.Month(), date.Day())
	if rise.IsZero() || set.IsZero() {
		return time.Time{}, time.Time{}
	}
	return rise.In(date.Location()), set.In(date.Location())
}

// IsDaylight reports whether the sun is up at coords at the given time. The solar day is taken
// from the mean solar time at coords, so the zone of at does not matter.
func IsDaylight(coords geobus.Coordinate, at time.Time) bool {
	year, month, day := solarDay(coords, at)
	rise, set := sunrise.SunriseSunset(coords.Lat, coords.Lon, year, month, day)
	if rise.IsZero() || set.IsZero() {
		// Polar day or night, the sun elevation at solar noon tells which one
		noon := time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Add(-solarOffset(coords))
		return sunrise.Elevation(coords.Lat, coords.Lon, noon) > 0
	}
	return at.After(rise) && at.Before(set)
}

// solarDay returns the calendar day at coords in mean solar time.
func solarDay(coords geobus.Coordinate, at time.Time) (int, time.Month, int) {
	return at.UTC().Add(solarOffset(coords)).Date()
}

func solarOffset(coords geobus.Coordinate) time.Duration {
	return time.Duration(coords.Lon / 15 * float64(time.Hour))
}
