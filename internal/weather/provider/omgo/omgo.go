// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package omgo provides a weather.Provider backed by the omgo Open-Meteo client. The client does not
// expose the day/night flag and the sun times, so both are calculated locally.
package omgo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hectormalot/omgo"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/http"
	"github.com/wneessen/weather-now/internal/logger"
	"github.com/wneessen/weather-now/internal/vartype"
	"github.com/wneessen/weather-now/internal/weather"
)

const (
	name         = "omgo"
	FetchTimeout = time.Second * 10
)

var dailyMetrics = []string{"temperature_2m_max", "temperature_2m_min", "weathercode"}

type OMGO struct {
	client omgo.Client
	log    *logger.Logger
	now    func() time.Time
}

func New(client *http.Client, log *logger.Logger, endpoint string) (*OMGO, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	omclient, err := omgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Open-Meteo client: %w", err)
	}
	omclient.Client = client.Client
	omclient.UserAgent = http.UserAgent
	if endpoint != "" {
		omclient.URL = endpoint
	}

	return &OMGO{client: omclient, log: log, now: time.Now}, nil
}

func (o *OMGO) Name() string {
	return name
}

func (o *OMGO) GetWeather(ctx context.Context, coords geobus.Coordinate, unit weather.Unit) (*weather.Data, error) {
	ctxFetch, cancelFetch := context.WithTimeout(ctx, FetchTimeout)
	defer cancelFetch()

	location, err := omgo.NewLocation(coords.Lat, coords.Lon)
	if err != nil {
		return nil, fmt.Errorf("failed create Open-Meteo location from coordinates: %w", err)
	}
	opts := &omgo.Options{
		Timezone:        "auto",
		TemperatureUnit: unit.TemperatureUnit(),
		WindspeedUnit:   "kmh",
		DailyMetrics:    dailyMetrics,
	}

	forecast, err := o.client.Forecast(ctxFetch, location, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get forecast data: %w", weather.ErrServiceUnavailable, err)
	}
	data, err := convert(forecast, coords, unit, o.now())
	if err != nil {
		return nil, err
	}
	o.log.Debug("weather data received from omgo client", slog.String("coordinates", coords.String()),
		slog.Int("days", len(data.Daily)))

	return data, nil
}

// convert maps an omgo forecast into weather.Data. A forecast without an observation time is
// considered to lack the current weather.
func convert(forecast *omgo.Forecast, coords geobus.Coordinate, unit weather.Unit, now time.Time) (*weather.Data, error) {
	if forecast == nil || forecast.CurrentWeather.Time.IsZero() {
		return nil, fmt.Errorf("%w: no current weather in forecast", weather.ErrIncompleteResponse)
	}

	current := forecast.CurrentWeather
	data := &weather.Data{
		GeneratedAt: now,
		Coordinates: coords,
		Unit:        unit,
		Current: weather.CurrentConditions{
			Temperature:     current.Temperature,
			TemperatureUnit: unit.TemperatureUnit(),
			WeatherCode:     int(current.WeatherCode),
			IsDay:           weather.IsDaylight(coords, now),
			WindSpeedKmh:    current.WindSpeed,
			WindDirection:   vartype.NewVariable(current.WindDirection),
			ObservationTime: current.Time.Time,
		},
	}

	series := weather.DailySeries{
		Dates:   forecast.DailyTimes,
		TempMax: forecast.DailyMetrics["temperature_2m_max"],
		TempMin: forecast.DailyMetrics["temperature_2m_min"],
	}
	for _, code := range forecast.DailyMetrics["weathercode"] {
		series.Codes = append(series.Codes, int(code))
	}
	for _, date := range forecast.DailyTimes {
		rise, set := weather.SunTimes(coords, date)
		series.Sunrise = append(series.Sunrise, rise)
		series.Sunset = append(series.Sunset, set)
	}

	var err error
	if data.Daily, err = series.Forecast(); err != nil {
		return nil, err
	}
	return data, nil
}
