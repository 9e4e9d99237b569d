// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/geobus/provider/geoip"
	"github.com/wneessen/weather-now/internal/geobus/provider/geolocation_file"
	"github.com/wneessen/weather-now/internal/geobus/provider/gpsd"
	"github.com/wneessen/weather-now/internal/geocode"
	geocodeopenmeteo "github.com/wneessen/weather-now/internal/geocode/provider/open-meteo"
	nominatim "github.com/wneessen/weather-now/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/weather-now/internal/weather"
	"github.com/wneessen/weather-now/internal/weather/provider/omgo"
	openmeteo "github.com/wneessen/weather-now/internal/weather/provider/open-meteo"
)

var ErrNoGeolocationProvider = errors.New("no geolocation providers enabled")

func (s *Service) selectGeobusProviders() ([]geobus.Provider, error) {
	var provider []geobus.Provider

	if !s.config.GeoLocation.DisableGeolocationFile {
		provider = append(provider, geolocation_file.NewGeolocationFileProvider(s.config.GeoLocation.File))
	}
	if !s.config.GeoLocation.DisableGPSD {
		provider = append(provider, gpsd.NewGeolocationGPSDProvider())
	}
	if !s.config.GeoLocation.DisableGeoIP {
		provider = append(provider, geoip.NewGeolocationGeoIPProvider(s.http))
	}
	if len(provider) == 0 {
		return nil, ErrNoGeolocationProvider
	}

	return provider, nil
}

func (s *Service) selectGeocodeProvider() (geocode.Geocoder, error) {
	lang := s.localizer.Language()
	search, reverse := s.config.Geocoder.SearchEndpoint, s.config.Geocoder.ReverseEndpoint

	switch strings.ToLower(s.config.Geocoder.Provider) {
	case "open-meteo":
		return geocodeopenmeteo.New(s.http, lang, search, reverse), nil
	case "nominatim":
		return nominatim.New(s.http, lang, search, reverse), nil
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", s.config.Geocoder.Provider)
	}
}

func (s *Service) selectWeatherProvider() (provider weather.Provider, err error) {
	switch strings.ToLower(s.config.Weather.Provider) {
	case "open-meteo":
		provider, err = openmeteo.New(s.http, s.logger, s.config.Weather.Endpoint)
		if err != nil {
			return provider, fmt.Errorf("failed to create Open-Meteo weather provider: %w", err)
		}
	case "omgo":
		provider, err = omgo.New(s.http, s.logger, s.config.Weather.Endpoint)
		if err != nil {
			return provider, fmt.Errorf("failed to create omgo weather provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported weather provider: %s", s.config.Weather.Provider)
	}
	return provider, nil
}
