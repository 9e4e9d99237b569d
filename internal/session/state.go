// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package session

import (
	"fmt"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/weather"
)

// Status is the lifecycle status of the session.
type Status int

const (
	// StatusIdle is the state before the first fetch.
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// FetchKey identifies a forecast request. Two fetches with equal keys return the same data.
type FetchKey struct {
	Lat  float64
	Lon  float64
	Unit weather.Unit
}

func NewFetchKey(coords geobus.Coordinate, unit weather.Unit) FetchKey {
	return FetchKey{Lat: coords.Lat, Lon: coords.Lon, Unit: unit}
}

func (k FetchKey) Coordinate() geobus.Coordinate {
	return geobus.Coordinate{Lat: k.Lat, Lon: k.Lon}
}

func (k FetchKey) String() string {
	return fmt.Sprintf("%g,%g/%s", k.Lat, k.Lon, k.Unit)
}

// Meta is the summary of the current conditions presentation uses for theming.
type Meta struct {
	Code  int  `json:"code"`
	IsDay bool `json:"is_day"`
}

// State is a snapshot of the session. Values returned by the Coordinator are copies and safe to
// keep.
type State struct {
	Status      Status
	Loading     bool
	Error       string
	DisplayName string
	Unit        weather.Unit

	// Location is the last resolved location, HasLocation reports whether it was set.
	Location    geobus.Coordinate
	HasLocation bool

	// LastKey is the key of the most recently completed fetch, it is nil before the first success.
	LastKey *FetchKey

	Current *weather.CurrentConditions
	Daily   []weather.DailyForecast
}

// Meta returns the meta summary of the current conditions. ok is false without conditions.
func (s State) Meta() (meta Meta, ok bool) {
	if s.Current == nil {
		return Meta{}, false
	}
	return Meta{Code: s.Current.WeatherCode, IsDay: s.Current.IsDay}, true
}

func (s State) clone() State {
	if s.LastKey != nil {
		key := *s.LastKey
		s.LastKey = &key
	}
	if s.Current != nil {
		current := *s.Current
		s.Current = &current
	}
	if s.Daily != nil {
		s.Daily = append([]weather.DailyForecast(nil), s.Daily...)
	}
	return s
}

// event is a state change. next is the transition function of the session, every mutation of the
// session state goes through it.
type event interface {
	next(State) State
}

// lookupStarted marks the begin of a location lookup that precedes a fetch.
type lookupStarted struct{}

func (lookupStarted) next(s State) State {
	s.Status, s.Loading, s.Error = StatusLoading, true, ""
	return s
}

// lookupEnded returns from a lookup to the status before it.
type lookupEnded struct{}

func (lookupEnded) next(s State) State {
	s.Status, s.Loading = StatusIdle, false
	switch {
	case s.Error != "":
		s.Status = StatusFailed
	case s.Current != nil:
		s.Status = StatusReady
	}
	return s
}

// locationResolved adopts a new location and its label.
type locationResolved struct {
	coords geobus.Coordinate
	label  string
}

func (e locationResolved) next(s State) State {
	s.Location, s.HasLocation = e.coords, true
	if e.label != "" {
		s.DisplayName = e.label
	}
	return s
}

// failed ends a lookup or fetch with a user-facing message. Conditions and forecast stay as they
// are.
type failed struct {
	message string
}

func (e failed) next(s State) State {
	s.Status, s.Loading, s.Error = StatusFailed, false, e.message
	return s
}

type unitChanged struct {
	unit weather.Unit
}

func (e unitChanged) next(s State) State {
	s.Unit = e.unit
	return s
}

type fetchStarted struct{}

func (fetchStarted) next(s State) State {
	s.Status, s.Loading, s.Error = StatusLoading, true, ""
	return s
}

type fetchSucceeded struct {
	key   FetchKey
	data  *weather.Data
	label string
}

func (e fetchSucceeded) next(s State) State {
	current := e.data.Current
	key := e.key
	s.Status, s.Loading, s.Error = StatusReady, false, ""
	s.Current = &current
	s.Daily = append([]weather.DailyForecast(nil), e.data.Daily...)
	s.LastKey = &key
	if e.label != "" {
		s.DisplayName = e.label
	}
	return s
}

// invalidated forgets the last completed key so the next fetch is not deduplicated.
type invalidated struct{}

func (invalidated) next(s State) State {
	s.LastKey = nil
	return s
}
