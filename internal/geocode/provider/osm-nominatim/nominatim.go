// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nominatim

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
	APISearchEndpoint  = "https://nominatim.openstreetmap.org/search"
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	name               = "osm-nominatim"
)

type Nominatim struct {
	http            *http.Client
	lang            language.Tag
	searchEndpoint  string
	reverseEndpoint string
}

type Result struct {
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
	Error       string  `json:"error,omitempty"`
}

type Address struct {
	Municipality string `json:"municipality"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}

// New returns a Nominatim geocoder. Empty endpoints fall back to the public OSM instance.
func New(client *http.Client, lang language.Tag, searchEndpoint, reverseEndpoint string) *Nominatim {
	if searchEndpoint == "" {
		searchEndpoint = APISearchEndpoint
	}
	if reverseEndpoint == "" {
		reverseEndpoint = APIReverseEndpoint
	}
	return &Nominatim{
		lang:            lang,
		http:            client,
		searchEndpoint:  searchEndpoint,
		reverseEndpoint: reverseEndpoint,
	}
}

func (n *Nominatim) Name() string {
	return name
}

func (n *Nominatim) Reverse(ctx context.Context, coords geobus.Coordinate) (geocode.Location, error) {
	var result Result

	query := n.query()
	query.Set("lat", fmt.Sprintf("%f", coords.Lat))
	query.Set("lon", fmt.Sprintf("%f", coords.Lon))
	query.Set("zoom", "10")

	if _, err := n.http.GetWithTimeout(ctx, n.reverseEndpoint, &result, query, APITimeout); err != nil {
		return geocode.Location{}, fmt.Errorf("%w: failed to fetch reverse address details from Nominatim API: %w",
			geocode.ErrServiceUnavailable, err)
	}
	if result.Error != "" {
		return geocode.Location{}, fmt.Errorf("%w: %s", geocode.ErrNotFound, result.Error)
	}

	return result.location()
}

func (n *Nominatim) Search(ctx context.Context, place string) (geocode.Location, error) {
	var results []Result

	query := n.query()
	query.Set("q", place)
	query.Set("limit", "1")

	if _, err := n.http.GetWithTimeout(ctx, n.searchEndpoint, &results, query, APITimeout); err != nil {
		return geocode.Location{}, fmt.Errorf("%w: failed to fetch address details from Nominatim API: %w",
			geocode.ErrServiceUnavailable, err)
	}
	if len(results) < 1 {
		return geocode.Location{}, fmt.Errorf("%w: no coordinates found for %q", geocode.ErrNotFound, place)
	}

	return results[0].location()
}

func (n *Nominatim) query() url.Values {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")
	query.Set("accept-language", n.lang.String())
	return query
}

// location converts the API result into a geocode.Location. The place name prefers the most
// specific settlement the address provides.
func (r Result) location() (geocode.Location, error) {
	var err error
	loc := geocode.Location{
		Name:    r.Name,
		Admin1:  r.Address.State,
		Country: r.Address.Country,
	}
	for _, settlement := range []string{r.Address.City, r.Address.Town, r.Address.Village, r.Address.Municipality} {
		if settlement != "" {
			loc.Name = settlement
			break
		}
	}
	loc.Lat, err = strconv.ParseFloat(r.APILat, 64)
	if err != nil {
		return geocode.Location{}, fmt.Errorf("%w: failed to parse latitude from Nominatim API response: %w",
			geocode.ErrServiceUnavailable, err)
	}
	loc.Lon, err = strconv.ParseFloat(r.APILon, 64)
	if err != nil {
		return geocode.Location{}, fmt.Errorf("%w: failed to parse longitude from Nominatim API response: %w",
			geocode.ErrServiceUnavailable, err)
	}
	return loc, nil
}
