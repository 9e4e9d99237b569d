// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrSubscriptionClosed is returned by First if the subscription ended without a result.
var ErrSubscriptionClosed = errors.New("geolocation subscription closed")

const firstBufferSize = 4

// Orchestrator coordinates the tracking and publication of geolocation results from multiple
// providers through a GeoBus.
type Orchestrator struct {
	Bus       *GeoBus
	Providers []Provider
}

// Track initiates concurrent geolocation tracking for a given key across multiple providers in the
// Orchestrator. It returns once ctx is done and all providers have stopped.
func (o *Orchestrator) Track(ctx context.Context, key string) {
	var wg sync.WaitGroup
	for _, p := range o.Providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			o.trackProvider(ctx, p, key)
		}(p)
	}
	<-ctx.Done()
	wg.Wait()
}

// First tracks all providers until the first result for key is published and returns it. Tracking
// is stopped before First returns. Without a result, the error wraps the context error.
func (o *Orchestrator) First(ctx context.Context, key string) (Result, error) {
	ctxTrack, cancelTrack := context.WithCancel(ctx)
	sub, unsub := o.Bus.Subscribe(key, firstBufferSize)
	defer unsub()

	tracking := make(chan struct{})
	go func() {
		defer close(tracking)
		o.Track(ctxTrack, key)
	}()
	defer func() {
		cancelTrack()
		<-tracking
	}()

	select {
	case r, ok := <-sub:
		if !ok {
			return Result{}, ErrSubscriptionClosed
		}
		return r, nil
	case <-ctx.Done():
		return Result{}, fmt.Errorf("no geolocation result for %s: %w", key, ctx.Err())
	}
}

// trackProvider continuously tracks a Provider for geolocation data, publishing results to
// the GeoBus and implementing backoff.
func (o *Orchestrator) trackProvider(ctx context.Context, p Provider, key string) {
	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lookupChan := o.safeLookup(ctx, p, key)
		if lookupChan == nil {
			if !SleepOrDone(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

	stream:
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-lookupChan:
				if !ok {
					if !SleepOrDone(ctx, backoff) {
						return
					}
					backoff = nextBackoff(backoff)
					break stream
				}
				o.Bus.Publish(r)
				backoff = initialBackoff
			}
		}
	}
}

// safeLookup safely invokes the LookupStream method on a Provider and recovers from potential panics.
// Returns a read-only channel of Result or nil if the operation fails.
func (o *Orchestrator) safeLookup(ctx context.Context, provider Provider, key string) (ch <-chan Result) {
	defer func() {
		if r := recover(); r != nil {
			o.Bus.logger.Error("geolocation provider panicked", slog.String("provider", provider.Name()))
			ch = nil
		}
	}()
	return provider.LookupStream(ctx, key)
}
