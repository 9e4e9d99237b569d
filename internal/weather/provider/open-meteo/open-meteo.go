// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/http"
	"github.com/wneessen/weather-now/internal/logger"
	"github.com/wneessen/weather-now/internal/vartype"
	"github.com/wneessen/weather-now/internal/weather"
)

const (
	name        = "open-meteo"
	APIEndpoint = "https://api.open-meteo.com/v1/forecast"
	apiTimeout  = time.Second * 10
)

var dailyFields = []string{"temperature_2m_max", "temperature_2m_min", "weathercode", "sunrise", "sunset"}

type OpenMeteo struct {
	endpoint string
	log      *logger.Logger
	http     *http.Client
}

type resTime struct {
	time.Time
}

type resBool struct {
	bool
}

type response struct {
	Latitude         float64       `json:"latitude"`
	Longitude        float64       `json:"longitude"`
	GenerationTimeMs float64       `json:"generationtime_ms"`
	UTCOffsetSeconds int           `json:"utc_offset_seconds"`
	Timezone         string        `json:"timezone"`
	Elevation        float64       `json:"elevation"`
	CurrentWeather   *currentBlock `json:"current_weather"`
	Daily            struct {
		Time        []resTime `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weathercode"`
		Sunrise     []resTime `json:"sunrise"`
		Sunset      []resTime `json:"sunset"`
	} `json:"daily"`
}

type currentBlock struct {
	Time          resTime  `json:"time"`
	Temperature   float64  `json:"temperature"`
	WeatherCode   int      `json:"weathercode"`
	IsDay         resBool  `json:"is_day"`
	WindSpeed     float64  `json:"windspeed"`
	WindDirection *float64 `json:"winddirection"`
}

func New(http *http.Client, log *logger.Logger, endpoint string) (*OpenMeteo, error) {
	if http == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if endpoint == "" {
		endpoint = APIEndpoint
	}

	return &OpenMeteo{endpoint: endpoint, http: http, log: log}, nil
}

func (o *OpenMeteo) Name() string {
	return name
}

func (o *OpenMeteo) GetWeather(ctx context.Context, coords geobus.Coordinate, unit weather.Unit) (*weather.Data, error) {
	res := new(response)

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	query.Set("current_weather", "true")
	query.Set("daily", strings.Join(dailyFields, ","))
	query.Set("temperature_unit", unit.TemperatureUnit())
	query.Set("forecast_days", strconv.Itoa(weather.ForecastDays))
	query.Set("timezone", "auto")

	if _, err := o.http.GetWithTimeout(ctx, o.endpoint, res, query, apiTimeout); err != nil {
		return nil, fmt.Errorf("%w: failed to retrieve weather data from Open-Meteo API: %w",
			weather.ErrServiceUnavailable, err)
	}
	if res.CurrentWeather == nil {
		return nil, fmt.Errorf("%w: no current weather in Open-Meteo API response", weather.ErrIncompleteResponse)
	}

	loc := o.location(res)
	current := res.CurrentWeather
	data := &weather.Data{
		GeneratedAt: time.Now(),
		Coordinates: coords,
		Unit:        unit,
		Current: weather.CurrentConditions{
			Temperature:     current.Temperature,
			TemperatureUnit: unit.TemperatureUnit(),
			WeatherCode:     current.WeatherCode,
			IsDay:           current.IsDay.bool,
			WindSpeedKmh:    current.WindSpeed,
			ObservationTime: inLocation(current.Time.Time, loc),
		},
	}
	if current.WindDirection != nil {
		data.Current.WindDirection = vartype.NewVariable(*current.WindDirection)
	}

	series := weather.DailySeries{
		Codes:   res.Daily.WeatherCode,
		TempMax: res.Daily.TempMax,
		TempMin: res.Daily.TempMin,
	}
	for i, day := range res.Daily.Time {
		date := inLocation(day.Time, loc)
		series.Dates = append(series.Dates, date)

		var rise, set time.Time
		if i < len(res.Daily.Sunrise) && i < len(res.Daily.Sunset) {
			rise, set = inLocation(res.Daily.Sunrise[i].Time, loc), inLocation(res.Daily.Sunset[i].Time, loc)
		} else {
			rise, set = weather.SunTimes(coords, date)
		}
		series.Sunrise = append(series.Sunrise, rise)
		series.Sunset = append(series.Sunset, set)
	}

	var err error
	if data.Daily, err = series.Forecast(); err != nil {
		return nil, err
	}
	o.log.Debug("weather data received from Open-Meteo", slog.String("coordinates", coords.String()),
		slog.String("timezone", res.Timezone), slog.Int("days", len(data.Daily)))

	return data, nil
}

// location returns the time zone the API used for all local times in the response.
func (o *OpenMeteo) location(res *response) *time.Location {
	if res.Timezone != "" {
		if loc, err := time.LoadLocation(res.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone(res.Timezone, res.UTCOffsetSeconds)
}

// inLocation interprets the wall clock of t in loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func (r *resTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty time")
	}
	if b[0] != '"' {
		return fmt.Errorf("invalid time format: %s", string(b))
	}

	value := string(b[1 : len(b)-1])
	layout := "2006-01-02T15:04"
	if len(value) == len(time.DateOnly) {
		layout = time.DateOnly
	}
	apiTime, err := time.Parse(layout, value)
	if err != nil {
		return fmt.Errorf("failed to parse time: %w", err)
	}
	r.Time = apiTime

	return nil
}

func (r *resBool) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty bool")
	}
	if b[0] == '0' || string(b) == "false" {
		return nil
	}
	r.bool = true
	return nil
}
