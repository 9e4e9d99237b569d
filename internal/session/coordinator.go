// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package session owns the weather fetch lifecycle and the session state derived from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/logger"
	"github.com/wneessen/weather-now/internal/weather"
)

// MessageFetchFailed is the user-facing message for any failed fetch.
const MessageFetchFailed = "Failed to fetch weather. Please try again."

var (
	// ErrSuperseded is returned by Fetch when a newer fetch was started before this one completed.
	// The result of the superseded fetch is discarded.
	ErrSuperseded = errors.New("fetch superseded by a newer request")

	ErrNoProvider = errors.New("weather provider is required")
	ErrNoLogger   = errors.New("logger is required")
)

// Localizer translates user-facing messages.
type Localizer interface {
	Get(message string) string
}

type noopLocalizer struct{}

func (noopLocalizer) Get(message string) string { return message }

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetaHandler registers fn to be called with the meta summary after every successful fetch.
func WithMetaHandler(fn func(Meta)) Option {
	return func(c *Coordinator) {
		c.onMeta = fn
	}
}

// WithLocalizer sets the localizer for user-facing messages.
func WithLocalizer(l Localizer) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.localizer = l
		}
	}
}

// WithUnit sets the initial unit system of the session.
func WithUnit(unit weather.Unit) Option {
	return func(c *Coordinator) {
		c.state.Unit = unit
	}
}

// Coordinator runs weather fetches against a weather.Provider and maintains the session State. It
// skips fetches whose FetchKey equals the key of the last completed fetch and applies only the
// result of the most recently started fetch. A Coordinator is safe for concurrent use.
type Coordinator struct {
	provider  weather.Provider
	logger    *logger.Logger
	localizer Localizer
	onMeta    func(Meta)
	group     singleflight.Group

	mu      sync.Mutex
	state   State
	seq     uint64
	flying  bool
	subs    map[uint64]chan State
	nextSub uint64
}

func New(provider weather.Provider, log *logger.Logger, opts ...Option) (*Coordinator, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if log == nil {
		return nil, ErrNoLogger
	}
	coord := &Coordinator{
		provider:  provider,
		logger:    log,
		localizer: noopLocalizer{},
		state:     State{Status: StatusIdle, Unit: weather.UnitMetric},
		subs:      make(map[uint64]chan State),
	}
	for _, opt := range opts {
		opt(coord)
	}
	return coord, nil
}

// State returns a snapshot of the current session state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe returns a channel that receives a snapshot after every state change and a function to
// end the subscription. Snapshots are dropped for subscribers that do not keep up.
func (c *Coordinator) Subscribe(size int) (<-chan State, func()) {
	ch := make(chan State, size)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// Fetch retrieves the weather for coords in the given unit system and applies the result to the
// session state. A non-empty label becomes the display name on success.
//
// Fetch returns nil without any state change or network call if the FetchKey equals the key of the
// last completed fetch. A fetch for another key that is still in flight is superseded in that case.
// Otherwise the state switches to loading before the provider is called. On
// failure the error message is set while conditions and forecast are kept. If another fetch was
// started in the meantime, the result is discarded and ErrSuperseded is returned.
func (c *Coordinator) Fetch(ctx context.Context, coords geobus.Coordinate, unit weather.Unit, label string) error {
	key := NewFetchKey(coords, unit)
	requestID := uuid.NewString()

	c.mu.Lock()
	if c.state.LastKey != nil && *c.state.LastKey == key {
		// The shown data already matches key. A fetch still in flight for another key is
		// superseded by this request and must not overwrite it.
		if c.flying {
			c.seq++
			c.flying = false
			c.apply(lookupEnded{})
		}
		c.mu.Unlock()
		c.logger.Debug("fetch key unchanged, skipping weather fetch", slog.String("key", key.String()))
		return nil
	}
	c.seq++
	seq := c.seq
	c.flying = true
	c.apply(fetchStarted{})
	c.mu.Unlock()

	c.logger.Debug("fetching weather data", slog.String("request_id", requestID),
		slog.String("key", key.String()), slog.String("provider", c.provider.Name()))
	result, err, shared := c.group.Do(key.String(), func() (any, error) {
		return c.provider.GetWeather(ctx, coords, unit)
	})

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding result of superseded weather fetch", slog.String("request_id", requestID),
			slog.String("key", key.String()))
		return ErrSuperseded
	}
	c.flying = false
	if err != nil {
		c.apply(failed{message: c.localizer.Get(MessageFetchFailed)})
		c.mu.Unlock()
		c.logger.Error("failed to fetch weather data", slog.String("request_id", requestID),
			slog.String("key", key.String()), logger.Err(err))
		return err
	}
	data, ok := result.(*weather.Data)
	if !ok || data == nil {
		c.apply(failed{message: c.localizer.Get(MessageFetchFailed)})
		c.mu.Unlock()
		err = fmt.Errorf("%w: provider returned no data", weather.ErrIncompleteResponse)
		c.logger.Error("failed to fetch weather data", slog.String("request_id", requestID),
			slog.String("key", key.String()), logger.Err(err))
		return err
	}
	c.apply(fetchSucceeded{key: key, data: data, label: label})
	meta, _ := c.state.Meta()
	c.mu.Unlock()

	c.logger.Debug("weather data updated", slog.String("request_id", requestID),
		slog.String("key", key.String()), slog.Bool("shared", shared), slog.Int("code", meta.Code),
		slog.Bool("is_day", meta.IsDay))
	if c.onMeta != nil {
		c.onMeta(meta)
	}
	return nil
}

// BeginLookup switches the state to loading while a location is looked up.
func (c *Coordinator) BeginLookup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(lookupStarted{})
}

// EndLookup ends a lookup that did not lead to a provider call, e.g. because the resolved location
// equals the one already shown. It has no effect while a fetch is in flight.
func (c *Coordinator) EndLookup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flying || !c.state.Loading {
		return
	}
	c.apply(lookupEnded{})
}

// SetLocation adopts coords as the current location. A non-empty label becomes the display name.
func (c *Coordinator) SetLocation(coords geobus.Coordinate, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(locationResolved{coords: coords, label: label})
}

// Fail ends a lookup with the given user-facing message. Conditions and forecast are kept.
func (c *Coordinator) Fail(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(failed{message: c.localizer.Get(message)})
}

// SetUnit changes the unit system of the session. It does not fetch.
func (c *Coordinator) SetUnit(unit weather.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(unitChanged{unit: unit})
}

// Invalidate forgets the key of the last completed fetch, so the next Fetch always hits the provider.
func (c *Coordinator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(invalidated{})
}

// apply runs the transition for e and publishes the new state. c.mu must be held.
func (c *Coordinator) apply(e event) {
	c.state = e.next(c.state)
	for _, ch := range c.subs {
		select {
		case ch <- c.state.clone():
		default:
			c.logger.Debug("subscriber not ready, dropping state update")
		}
	}
}
