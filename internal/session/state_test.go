// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package session

import (
	"testing"

	"github.com/wneessen/weather-now/internal/weather"
)

func TestState_transitions(t *testing.T) {
	ready := fetchSucceeded{
		key:   NewFetchKey(chennai, weather.UnitMetric),
		data:  testData(chennai, weather.UnitMetric),
		label: "Chennai",
	}.next(State{})

	tests := []struct {
		name    string
		from    State
		event   event
		status  Status
		loading bool
		errMsg  string
	}{
		{"idle to loading", State{}, fetchStarted{}, StatusLoading, true, ""},
		{"ready to loading", ready, fetchStarted{}, StatusLoading, true, ""},
		{"failed to loading clears the error", State{Status: StatusFailed, Error: "boom"}, fetchStarted{},
			StatusLoading, true, ""},
		{"loading to failed", State{Status: StatusLoading, Loading: true}, failed{message: "boom"},
			StatusFailed, false, "boom"},
		{"lookup started", ready, lookupStarted{}, StatusLoading, true, ""},
		{"unit change keeps the status", ready, unitChanged{unit: weather.UnitImperial}, StatusReady, false, ""},
		{"lookup ended with data", lookupStarted{}.next(ready), lookupEnded{}, StatusReady, false, ""},
		{"lookup ended without data", State{Status: StatusLoading, Loading: true}, lookupEnded{}, StatusIdle,
			false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.event.next(tt.from)
			if got.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, got.Status)
			}
			if got.Loading != tt.loading {
				t.Errorf("expected loading=%t, got %t", tt.loading, got.Loading)
			}
			if got.Error != tt.errMsg {
				t.Errorf("expected error %q, got %q", tt.errMsg, got.Error)
			}
		})
	}
	t.Run("failure keeps conditions and forecast", func(t *testing.T) {
		got := failed{message: "boom"}.next(ready)
		if got.Current != ready.Current || len(got.Daily) != len(ready.Daily) {
			t.Error("expected conditions and forecast to be kept")
		}
	})
	t.Run("resolved location without label keeps the display name", func(t *testing.T) {
		got := locationResolved{coords: berlin}.next(ready)
		if got.DisplayName != "Chennai" {
			t.Errorf("expected display name %q, got %q", "Chennai", got.DisplayName)
		}
		if !got.HasLocation || got.Location != berlin {
			t.Errorf("expected location %s, got %s", berlin, got.Location)
		}
	})
	t.Run("invalidation clears the last key only", func(t *testing.T) {
		got := invalidated{}.next(ready)
		if got.LastKey != nil {
			t.Error("expected last key to be cleared")
		}
		if got.Current == nil {
			t.Error("expected conditions to be kept")
		}
	})
}

func TestState_Meta(t *testing.T) {
	if _, ok := (State{}).Meta(); ok {
		t.Error("expected no meta without conditions")
	}
	state := fetchSucceeded{key: NewFetchKey(berlin, weather.UnitMetric), data: testData(berlin, weather.UnitMetric)}.
		next(State{})
	meta, ok := state.Meta()
	if !ok {
		t.Fatal("expected meta to be available")
	}
	if meta.Code != 52 || !meta.IsDay {
		t.Errorf("unexpected meta: %+v", meta)
	}
}

func TestFetchKey(t *testing.T) {
	a := NewFetchKey(chennai, weather.UnitMetric)
	b := NewFetchKey(chennai, weather.UnitMetric)
	if a != b {
		t.Error("expected keys with equal values to be equal")
	}
	if a == NewFetchKey(chennai, weather.UnitImperial) {
		t.Error("expected keys with different units to differ")
	}
	if a.String() != "13.08,80.27/metric" {
		t.Errorf("unexpected key string %q", a.String())
	}
	if a.Coordinate() != chennai {
		t.Errorf("expected coordinate %s, got %s", chennai, a.Coordinate())
	}
}
