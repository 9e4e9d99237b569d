// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/geocode"
	"github.com/wneessen/weather-now/internal/http"
)

const (
	APISearchEndpoint  = "https://geocoding-api.open-meteo.com/v1/search"
	APIReverseEndpoint = "https://geocoding-api.open-meteo.com/v1/reverse"
	APITimeout         = time.Second * 10
	name               = "open-meteo"
)

type OpenMeteo struct {
	http            *http.Client
	lang            language.Tag
	searchEndpoint  string
	reverseEndpoint string
}

type Response struct {
	Results []Result `json:"results"`
}

type Result struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Elevation   float64 `json:"elevation"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country"`
	Admin1      string  `json:"admin1"`
	Timezone    string  `json:"timezone"`
}

// New returns an Open-Meteo geocoder. Empty endpoints fall back to the public API.
func New(client *http.Client, lang language.Tag, searchEndpoint, reverseEndpoint string) *OpenMeteo {
	if searchEndpoint == "" {
		searchEndpoint = APISearchEndpoint
	}
	if reverseEndpoint == "" {
		reverseEndpoint = APIReverseEndpoint
	}
	return &OpenMeteo{
		http:            client,
		lang:            lang,
		searchEndpoint:  searchEndpoint,
		reverseEndpoint: reverseEndpoint,
	}
}

func (o *OpenMeteo) Name() string {
	return name
}

func (o *OpenMeteo) Search(ctx context.Context, place string) (geocode.Location, error) {
	query := o.query()
	query.Set("name", place)
	return o.lookup(ctx, o.searchEndpoint, query)
}

func (o *OpenMeteo) Reverse(ctx context.Context, coords geobus.Coordinate) (geocode.Location, error) {
	query := o.query()
	query.Set("latitude", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	return o.lookup(ctx, o.reverseEndpoint, query)
}

func (o *OpenMeteo) query() url.Values {
	base, _ := o.lang.Base()
	query := url.Values{}
	query.Set("count", "1")
	query.Set("language", base.String())
	query.Set("format", "json")
	return query
}

func (o *OpenMeteo) lookup(ctx context.Context, endpoint string, query url.Values) (geocode.Location, error) {
	var response Response
	if _, err := o.http.GetWithTimeout(ctx, endpoint, &response, query, APITimeout); err != nil {
		return geocode.Location{}, fmt.Errorf("%w: failed to fetch location from Open-Meteo API: %w",
			geocode.ErrServiceUnavailable, err)
	}
	if len(response.Results) < 1 {
		return geocode.Location{}, geocode.ErrNotFound
	}

	result := response.Results[0]
	return geocode.Location{
		Coordinate: geobus.Coordinate{Lat: result.Latitude, Lon: result.Longitude},
		Name:       result.Name,
		Admin1:     result.Admin1,
		Country:    result.Country,
	}, nil
}
