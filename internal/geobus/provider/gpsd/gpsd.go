// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/weather-now/internal/geobus"
)

const (
	host = "localhost"
	port = "2947"
	name = "gpsd"

	fallbackAccuracy3DFix = 10  // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25  // worse than 3D, but still accurate enough
	fallbackAccuracyNoFix = 1e6 // effectively unusable
	fixTimeout            = time.Second * 5
)

var (
	ErrWatchEnded = errors.New("gpsd watch ended")
	ErrNoFix      = errors.New("no TPV report received from gpsd")
)

// Fix represents a single GPS fix from gpsd.
type Fix struct {
	Lat  float64
	Lon  float64
	Acc  float64
	Mode gpsd.Mode
}

// Has2DFix reports whether the fix has at least a 2D fix.
func (f Fix) Has2DFix() bool {
	return f.Mode >= gpsd.Mode2D
}

type GeolocationGPSDProvider struct {
	name     string
	addr     string
	period   time.Duration
	ttl      time.Duration
	locateFn func(ctx context.Context) (Fix, error)

	mu    sync.Mutex
	fixes chan Fix
	done  chan bool
}

func NewGeolocationGPSDProvider() *GeolocationGPSDProvider {
	provider := &GeolocationGPSDProvider{
		name:   name,
		addr:   net.JoinHostPort(host, port),
		period: time.Second * 30,
		ttl:    time.Minute * 2,
	}
	provider.locateFn = provider.locate
	return provider
}

func (p *GeolocationGPSDProvider) Name() string {
	return p.name
}

func (p *GeolocationGPSDProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	out := make(chan geobus.Result)

	go func() {
		defer close(out)
		state := geobus.GeolocationState{}

		for {
			fix, err := p.locateFn(ctx)
			if err == nil && fix.Has2DFix() {
				coords := geobus.Coordinate{
					Lat: geobus.Truncate(fix.Lat, geobus.TruncPrecision),
					Lon: geobus.Truncate(fix.Lon, geobus.TruncPrecision),
					Acc: geobus.Truncate(fix.Acc, geobus.TruncPrecision),
				}

				// Only emit if values changed or it's the first fix
				if state.HasChanged(coords) {
					state.Update(coords)
					select {
					case <-ctx.Done():
						return
					case out <- p.createResult(key, coords):
					}
				}
			}

			if !geobus.SleepOrDone(ctx, p.period) {
				return
			}
		}
	}()

	return out
}

// locate returns the most recent TPV report of the gpsd watch. The watch is started on first use
// and restarted after the gpsd connection ended.
func (p *GeolocationGPSDProvider) locate(ctx context.Context) (Fix, error) {
	fixes, done, err := p.watch()
	if err != nil {
		return Fix{}, err
	}

	timer := time.NewTimer(fixTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Fix{}, ctx.Err()
	case <-done:
		p.mu.Lock()
		p.fixes, p.done = nil, nil
		p.mu.Unlock()
		return Fix{}, ErrWatchEnded
	case <-timer.C:
		return Fix{}, ErrNoFix
	case fix := <-fixes:
		return fix, nil
	}
}

func (p *GeolocationGPSDProvider) watch() (chan Fix, chan bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fixes != nil {
		return p.fixes, p.done, nil
	}

	session, err := gpsd.Dial(p.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to gpsd at %q: %w", p.addr, err)
	}

	// Only the latest report is kept, older ones are dropped
	fixes := make(chan Fix, 1)
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok {
			return
		}
		fix := Fix{Lat: tpv.Lat, Lon: tpv.Lon, Acc: horizontalAccuracyMeters(tpv), Mode: tpv.Mode}
		select {
		case <-fixes:
		default:
		}
		select {
		case fixes <- fix:
		default:
		}
	})

	p.fixes, p.done = fixes, session.Watch()
	return p.fixes, p.done, nil
}

// createResult composes and returns a Result using provided geolocation data and metadata.
func (p *GeolocationGPSDProvider) createResult(key string, coords geobus.Coordinate) geobus.Result {
	return geobus.Result{
		Key:            key,
		Lat:            coords.Lat,
		Lon:            coords.Lon,
		AccuracyMeters: coords.Acc,
		Source:         p.name,
		At:             time.Now(),
		TTL:            p.ttl,
	}
}

func horizontalAccuracyMeters(tpv *gpsd.TPVReport) float64 {
	switch {
	case tpv.Epx > 0 && tpv.Epy > 0:
		return math.Hypot(tpv.Epx, tpv.Epy)
	case tpv.Mode == gpsd.Mode3D:
		return fallbackAccuracy3DFix
	case tpv.Mode == gpsd.Mode2D:
		return fallbackAccuracy2DFix
	default:
		return fallbackAccuracyNoFix
	}
}
