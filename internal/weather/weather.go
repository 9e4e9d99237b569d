// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/vartype"
)

// ForecastDays is the number of days requested for the daily forecast.
const ForecastDays = 7

var (
	// ErrServiceUnavailable is returned on transport errors or non-success HTTP responses.
	ErrServiceUnavailable = errors.New("weather service unavailable")
	// ErrIncompleteResponse is returned when a response lacks the current conditions or carries
	// daily arrays of different lengths.
	ErrIncompleteResponse = errors.New("incomplete weather response")
	ErrUnknownUnit        = errors.New("unknown unit system")
)

// Unit is the unit system used for a forecast request.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// ParseUnit parses a unit system name. Besides metric and imperial the API unit strings celsius
// and fahrenheit are accepted.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "metric", "celsius":
		return UnitMetric, nil
	case "imperial", "fahrenheit":
		return UnitImperial, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, value)
	}
}

// TemperatureUnit returns the unit string the forecast API expects for the unit system.
func (u Unit) TemperatureUnit() string {
	if u == UnitImperial {
		return "fahrenheit"
	}
	return "celsius"
}

// Symbol returns the display symbol of the temperature unit.
func (u Unit) Symbol() string {
	if u == UnitImperial {
		return "°F"
	}
	return "°C"
}

// Toggle returns the other unit system.
func (u Unit) Toggle() Unit {
	if u == UnitImperial {
		return UnitMetric
	}
	return UnitImperial
}

// Provider is implemented by each weather API backend.
type Provider interface {
	Name() string
	GetWeather(ctx context.Context, coords geobus.Coordinate, unit Unit) (*Data, error)
}

type Data struct {
	GeneratedAt time.Time
	Coordinates geobus.Coordinate
	Unit        Unit

	Current CurrentConditions
	Daily   []DailyForecast
}

// CurrentConditions holds the current weather exactly as reported by the provider.
type CurrentConditions struct {
	Temperature     float64
	TemperatureUnit string
	WeatherCode     int
	IsDay           bool
	WindSpeedKmh    float64
	WindDirection   vartype.VarFloat64
	ObservationTime time.Time
}

type DailyForecast struct {
	Date        time.Time
	WeatherCode int
	TempMax     float64
	TempMin     float64
	Sunrise     time.Time
	Sunset      time.Time
}

// DailySeries holds the positionally aligned daily arrays of a forecast response.
type DailySeries struct {
	Dates   []time.Time
	Codes   []int
	TempMax []float64
	TempMin []float64
	Sunrise []time.Time
	Sunset  []time.Time
}

// Forecast turns the series into per-day records. Entry i of the result is built from index i of
// every array. Dates, codes and temperatures must be of equal length, sunrise and sunset may be
// shorter and leave the respective fields zero.
func (s DailySeries) Forecast() ([]DailyForecast, error) {
	days := len(s.Dates)
	if len(s.Codes) != days || len(s.TempMax) != days || len(s.TempMin) != days {
		return nil, fmt.Errorf("%w: daily arrays are not aligned (time: %d, weathercode: %d, "+
			"temperature_2m_max: %d, temperature_2m_min: %d)", ErrIncompleteResponse, days, len(s.Codes),
			len(s.TempMax), len(s.TempMin))
	}

	forecast := make([]DailyForecast, days)
	for i := range days {
		forecast[i] = DailyForecast{
			Date:        s.Dates[i],
			WeatherCode: s.Codes[i],
			TempMax:     s.TempMax[i],
			TempMin:     s.TempMin[i],
		}
		if i < len(s.Sunrise) {
			forecast[i].Sunrise = s.Sunrise[i]
		}
		if i < len(s.Sunset) {
			forecast[i].Sunset = s.Sunset[i]
		}
	}
	return forecast, nil
}
