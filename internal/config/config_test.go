// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	const (
		expectDefaultUnits      = "metric"
		expectLogLevel          = slog.LevelInfo
		expectGeocoderProvider  = "open-meteo"
		expectWeatherProvider   = "open-meteo"
		expectThemeDefault      = "system"
		expectGeolocTimeout     = time.Second * 8
		expectIntervalOutput    = time.Second * 30
		expectGeolocationSuffix = "weather-now/geolocation"
	)
	t.Run("new config with all defaults set", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		conf, err := New()
		if err != nil {
			t.Errorf("failed to load config: %s", err)
		}
		if conf.Units != expectDefaultUnits {
			t.Errorf("expected units to be: %s, got %s", expectDefaultUnits, conf.Units)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.Geocoder.Provider != expectGeocoderProvider {
			t.Errorf("expected geocoder provider to be: %s, got %s", expectGeocoderProvider,
				conf.Geocoder.Provider)
		}
		if conf.Weather.Provider != expectWeatherProvider {
			t.Errorf("expected weather provider to be: %s, got %s", expectWeatherProvider, conf.Weather.Provider)
		}
		if conf.Theme.Default != expectThemeDefault {
			t.Errorf("expected theme default to be: %s, got %s", expectThemeDefault, conf.Theme.Default)
		}
		if conf.GeoLocation.Timeout != expectGeolocTimeout {
			t.Errorf("expected geolocation timeout to be: %s, got %s", expectGeolocTimeout,
				conf.GeoLocation.Timeout)
		}
		if conf.Intervals.Output != expectIntervalOutput {
			t.Errorf("expected output interval to be: %s, got %s", expectIntervalOutput, conf.Intervals.Output)
		}
		if !strings.HasSuffix(filepath.ToSlash(conf.GeoLocation.File), expectGeolocationSuffix) {
			t.Errorf("expected geolocation file to end with %s, got %s", expectGeolocationSuffix,
				conf.GeoLocation.File)
		}
		if conf.Templates.Text != DefaultTextTpl {
			t.Errorf("expected default text template, got %q", conf.Templates.Text)
		}
		if conf.Templates.Tooltip != DefaultTooltipTpl {
			t.Errorf("expected default tooltip template, got %q", conf.Templates.Tooltip)
		}
	})
	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("WEATHERNOW_UNITS", "imperial")
		t.Setenv("WEATHERNOW_GEOCODER_PROVIDER", "nominatim")
		t.Setenv("WEATHERNOW_WEATHER_PROVIDER", "omgo")
		t.Setenv("WEATHERNOW_GEOLOCATION_TIMEOUT", "2s")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Units != "imperial" {
			t.Errorf("expected units to be: imperial, got %s", conf.Units)
		}
		if conf.Geocoder.Provider != "nominatim" {
			t.Errorf("expected geocoder provider to be: nominatim, got %s", conf.Geocoder.Provider)
		}
		if conf.Weather.Provider != "omgo" {
			t.Errorf("expected weather provider to be: omgo, got %s", conf.Weather.Provider)
		}
		if conf.GeoLocation.Timeout != time.Second*2 {
			t.Errorf("expected geolocation timeout to be: 2s, got %s", conf.GeoLocation.Timeout)
		}
	})
	t.Run("new config reads .env from working directory", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		dir := t.TempDir()
		data, err := os.ReadFile("../../testdata/dotenv_units")
		if err != nil {
			t.Fatalf("failed to read dotenv fixture: %s", err)
		}
		if err = os.WriteFile(filepath.Join(dir, ".env"), data, 0o600); err != nil {
			t.Fatalf("failed to write .env file: %s", err)
		}
		t.Chdir(dir)
		t.Cleanup(func() { _ = os.Unsetenv("WEATHERNOW_UNITS") })

		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Units != "imperial" {
			t.Errorf("expected units to be: imperial, got %s", conf.Units)
		}
	})
	t.Run("new config with invalid values from env", func(t *testing.T) {
		t.Setenv("WEATHERNOW_LOGLEVEL", "invalid")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate units", func(t *testing.T) {
		t.Setenv("WEATHERNOW_UNITS", "invalid")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate providers", func(t *testing.T) {
		tests := []struct {
			name string
			env  string
		}{
			{"geocoder", "WEATHERNOW_GEOCODER_PROVIDER"},
			{"weather", "WEATHERNOW_WEATHER_PROVIDER"},
			{"theme", "WEATHERNOW_THEME_DEFAULT"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Setenv(tt.env, "invalid")
				_, err := New()
				if err == nil {
					t.Error("expected config to fail, but didn't")
				}
			})
		}
	})
	t.Run("config validate endpoints", func(t *testing.T) {
		t.Setenv("WEATHERNOW_WEATHER_ENDPOINT", "not a url")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate output interval", func(t *testing.T) {
		t.Setenv("WEATHERNOW_INTERVALS_OUTPUT", "10ms")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}

func TestNewFromFile(t *testing.T) {
	const (
		expectDefaultUnits   = "metric"
		expectLogLevel       = slog.LevelInfo
		expectIntervalOutput = time.Second * 30
		expectGeolocTimeout  = time.Second * 8
	)
	t.Run("reading config from valid file succeeds", func(t *testing.T) {
		conf, err := NewFromFile("../../etc", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Units != expectDefaultUnits {
			t.Errorf("expected units to be: %s, got %s", expectDefaultUnits, conf.Units)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.GeoLocation.Timeout != expectGeolocTimeout {
			t.Errorf("expected geolocation timeout to be: %s, got %s", expectGeolocTimeout,
				conf.GeoLocation.Timeout)
		}
		if conf.Intervals.Output != expectIntervalOutput {
			t.Errorf("expected output interval to be: %s, got %s", expectIntervalOutput, conf.Intervals.Output)
		}
	})
	t.Run("environment takes precedence over file", func(t *testing.T) {
		t.Setenv("WEATHERNOW_UNITS", "imperial")
		conf, err := NewFromFile("../../etc", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Units != "imperial" {
			t.Errorf("expected units to be: imperial, got %s", conf.Units)
		}
	})
	t.Run("reading config from non-existent file fails", func(t *testing.T) {
		_, err := NewFromFile("../../etc", "non-existent.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("reading invalid config file fails", func(t *testing.T) {
		_, err := NewFromFile("../../testdata", "invalid.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}
