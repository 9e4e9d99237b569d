// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/synctest"
	"time"

	"github.com/wneessen/weather-now/internal/logger"
)

const testKey = "test"

func TestGeolocationState_HasChanged(t *testing.T) {
	t.Run("empty state always returns true", func(t *testing.T) {
		state := GeolocationState{}
		if !state.HasChanged(Coordinate{Lat: 1, Lon: 1, Acc: AccuracyZip}) {
			t.Error("expected state to have changed")
		}
	})
	t.Run("same coordinate return false", func(t *testing.T) {
		state := GeolocationState{}
		state.Update(Coordinate{Lat: 1, Lon: 1, Acc: AccuracyZip})
		if state.HasChanged(Coordinate{Lat: 1, Lon: 1, Acc: AccuracyZip}) {
			t.Error("expected state to not have changed")
		}
	})
	t.Run("different coordinate return true", func(t *testing.T) {
		tests := []struct {
			name    string
			lat     float64
			lon     float64
			acc     float64
			changed bool
		}{
			{"lat changes", 2, 1, AccuracyZip, true},
			{"lon changes", 1, 2, AccuracyZip, true},
			// an accuracy loss is not considered a significant positional change
			{"acc changes", 1, 1, AccuracyCity, false},
			{"acc improves", 1, 1, 5, true},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				state := GeolocationState{}
				state.Update(Coordinate{Lat: 1, Lon: 1, Acc: AccuracyZip})
				if state.HasChanged(Coordinate{Lat: tc.lat, Lon: tc.lon, Acc: tc.acc}) != tc.changed {
					t.Error("expected state change to be", tc.changed, "but it wasn't")
				}
			})
		}
	})
}

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		valid bool
	}{
		{"chennai", Coordinate{Lat: 13.08, Lon: 80.27}, true},
		{"south pole", Coordinate{Lat: -90, Lon: 0}, true},
		{"latitude out of range", Coordinate{Lat: 91, Lon: 0}, false},
		{"longitude out of range", Coordinate{Lat: 0, Lon: -181}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.coord.Valid() != tc.valid {
				t.Errorf("expected validity of %s to be %t", tc.coord, tc.valid)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("new geobus succeeds", func(t *testing.T) {
		bus, err := New(logger.NewLogger(slog.LevelDebug, io.Discard))
		if err != nil {
			t.Fatalf("failed to create geobus: %s", err)
		}
		if bus == nil {
			t.Fatal("expected geobus to be non-nil")
		}
	})
	t.Run("nil logger fails", func(t *testing.T) {
		_, err := New(nil)
		if !errors.Is(err, ErrNoLogger) {
			t.Errorf("expected error to be %s, got %s", ErrNoLogger, err)
		}
	})
}

func TestGeoBus_Publish(t *testing.T) {
	t.Run("first result is broadcast to subscribers", func(t *testing.T) {
		bus := testBus(t)
		sub, unsub := bus.Subscribe(testKey, 1)
		defer unsub()

		bus.Publish(Result{Key: testKey, Lat: 13.08, Lon: 80.27, AccuracyMeters: AccuracyCity, Source: "a"})
		select {
		case r := <-sub:
			if r.Lat != 13.08 || r.Lon != 80.27 {
				t.Errorf("unexpected result coordinates: %f,%f", r.Lat, r.Lon)
			}
		default:
			t.Fatal("expected a result to be broadcast")
		}
	})
	t.Run("results without accuracy are ignored", func(t *testing.T) {
		bus := testBus(t)
		bus.Publish(Result{Key: testKey, Lat: 13.08, Lon: 80.27})
		if _, ok := bus.Best(testKey); ok {
			t.Error("expected no best result")
		}
	})
	t.Run("less accurate result does not replace the best one", func(t *testing.T) {
		bus := testBus(t)
		bus.Publish(Result{Key: testKey, Lat: 13.08, Lon: 80.27, AccuracyMeters: AccuracyZip, Source: "a"})
		bus.Publish(Result{Key: testKey, Lat: 20, Lon: 70, AccuracyMeters: AccuracyCountry, Source: "b"})
		best, ok := bus.Best(testKey)
		if !ok {
			t.Fatal("expected best result")
		}
		if best.Source != "a" {
			t.Errorf("expected best result source to be %q, got %q", "a", best.Source)
		}
	})
	t.Run("more accurate distant result replaces the best one", func(t *testing.T) {
		bus := testBus(t)
		bus.Publish(Result{Key: testKey, Lat: 13.08, Lon: 80.27, AccuracyMeters: AccuracyCountry, Source: "a"})
		bus.Publish(Result{Key: testKey, Lat: 20, Lon: 70, AccuracyMeters: AccuracyZip, Source: "b"})
		best, _ := bus.Best(testKey)
		if best.Source != "b" {
			t.Errorf("expected best result source to be %q, got %q", "b", best.Source)
		}
	})
	t.Run("subscribing delivers the stored best result", func(t *testing.T) {
		bus := testBus(t)
		bus.Publish(Result{Key: testKey, Lat: 13.08, Lon: 80.27, AccuracyMeters: AccuracyCity, Source: "a"})
		sub, unsub := bus.Subscribe(testKey, 1)
		defer unsub()
		select {
		case r := <-sub:
			if r.Source != "a" {
				t.Errorf("expected result source to be %q, got %q", "a", r.Source)
			}
		default:
			t.Fatal("expected stored result to be delivered")
		}
	})
	t.Run("unsubscribe closes the channel and may be called twice", func(t *testing.T) {
		bus := testBus(t)
		sub, unsub := bus.Subscribe(testKey, 1)
		unsub()
		unsub()
		if _, ok := <-sub; ok {
			t.Error("expected channel to be closed")
		}
	})
}

func TestResult_IsExpired(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := Result{Key: testKey, At: time.Now(), TTL: time.Minute}
		if r.IsExpired() {
			t.Fatal("expected result to be valid")
		}
		time.Sleep(time.Minute * 2)
		if !r.IsExpired() {
			t.Error("expected result to be expired")
		}
	})
}

func TestOrchestrator_Track(t *testing.T) {
	t.Run("results of all providers are published", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			bus := testBus(t)
			sub, unsub := bus.Subscribe(testKey, 4)
			defer unsub()

			orch := bus.NewOrchestrator([]Provider{
				&staticProvider{name: "static", result: Result{Lat: 13.08, Lon: 80.27, AccuracyMeters: AccuracyCity}},
				&panicProvider{},
			})
			done := make(chan struct{})
			go func() {
				orch.Track(ctx, testKey)
				close(done)
			}()

			r := <-sub
			if r.Source != "static" {
				t.Errorf("expected result source to be %q, got %q", "static", r.Source)
			}
			cancel()
			<-done
		})
	})
}

func TestOrchestrator_First(t *testing.T) {
	t.Run("first result is returned and tracking stops", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			bus := testBus(t)
			orch := bus.NewOrchestrator([]Provider{
				&staticProvider{name: "static", result: Result{Lat: 13.08, Lon: 80.27, AccuracyMeters: AccuracyCity}},
			})
			r, err := orch.First(t.Context(), testKey)
			if err != nil {
				t.Fatalf("failed to get first result: %s", err)
			}
			if r.Lat != 13.08 || r.Lon != 80.27 || r.Source != "static" {
				t.Errorf("unexpected result: %+v", r)
			}
			if best, ok := bus.Best(testKey); !ok || best.Source != "static" {
				t.Error("expected result to be stored on the bus")
			}
		})
	})
	t.Run("no result before the deadline", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), time.Second*5)
			defer cancel()
			orch := testBus(t).NewOrchestrator([]Provider{&panicProvider{}})
			_, err := orch.First(ctx, testKey)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected error to be %s, got %v", context.DeadlineExceeded, err)
			}
		})
	})
	t.Run("stored result is returned right away", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			bus := testBus(t)
			bus.Publish(Result{Key: testKey, Lat: 1, Lon: 2, AccuracyMeters: AccuracyZip, Source: "stored",
				TTL: time.Minute})
			r, err := bus.NewOrchestrator(nil).First(t.Context(), testKey)
			if err != nil {
				t.Fatalf("failed to get first result: %s", err)
			}
			if r.Source != "stored" {
				t.Errorf("expected stored result, got %q", r.Source)
			}
		})
	})
}

func TestTruncate(t *testing.T) {
	if got := Truncate(13.082689, TruncPrecision); got != 13.0826 {
		t.Errorf("expected truncated value to be 13.0826, got %f", got)
	}
}

type staticProvider struct {
	name   string
	result Result
}

func (p *staticProvider) Name() string { return p.name }

func (p *staticProvider) LookupStream(ctx context.Context, key string) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		r := p.result
		r.Key = key
		r.Source = p.name
		select {
		case <-ctx.Done():
			return
		case out <- r:
		}
		<-ctx.Done()
	}()
	return out
}

type panicProvider struct{}

func (p *panicProvider) Name() string { return "panic" }

func (p *panicProvider) LookupStream(context.Context, string) <-chan Result {
	panic("intentionally panicking")
}

func testBus(t *testing.T) *GeoBus {
	t.Helper()
	bus, err := New(logger.NewLogger(slog.LevelDebug, io.Discard))
	if err != nil {
		t.Fatalf("failed to create geobus: %s", err)
	}
	return bus
}
