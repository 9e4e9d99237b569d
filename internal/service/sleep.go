// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/logger"
)

const (
	dbusInterface   = "org.freedesktop.login1.Manager"
	dbusWatchMember = "PrepareForSleep"
	sleepSignalName = dbusInterface + "." + dbusWatchMember

	debounceWindow   = 2 // seconds
	signalBufferSize = 8

	busReconnectDelay  = 5 * time.Second
	networkWakeupDelay = 10 * time.Second
)

var errSignalsClosed = errors.New("dbus signal channel closed")

// monitorSleepResume refreshes the weather whenever logind reports that the system woke up. A lost
// system bus connection is re-established until ctx is done.
func (s *Service) monitorSleepResume(ctx context.Context) {
	var lastResumeUnix int64
	for {
		err := s.watchSleepSignals(ctx, &lastResumeUnix)
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug("sleep monitor lost the system bus, reconnecting", logger.Err(err),
			slog.Duration("delay", busReconnectDelay))
		if !geobus.SleepOrDone(ctx, busReconnectDelay) {
			return
		}
	}
}

// watchSleepSignals subscribes to the logind sleep signal on a fresh system bus connection and
// processes signals until the connection or ctx ends.
func (s *Service) watchSleepSignals(ctx context.Context, lastResumeUnix *int64) error {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil && ctx.Err() == nil {
			s.logger.Error("failed to close system bus connection", logger.Err(err))
		}
	}()

	if err = conn.AddMatchSignal(dbus.WithMatchInterface(dbusInterface),
		dbus.WithMatchMember(dbusWatchMember)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", sleepSignalName, err)
	}
	sigCh := make(chan *dbus.Signal, signalBufferSize)
	conn.Signal(sigCh)
	defer conn.RemoveSignal(sigCh)
	s.logger.Debug("subscribed to dbus signal", slog.String("signal", sleepSignalName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sgn, ok := <-sigCh:
			if !ok {
				return errSignalsClosed
			}
			if sgn.Name != sleepSignalName {
				continue
			}
			s.processSleepSignal(ctx, sgn, lastResumeUnix)
		}
	}
}

// processSleepSignal triggers a refresh for a PrepareForSleep(false) signal, which logind emits
// after resume.
func (s *Service) processSleepSignal(ctx context.Context, sgn *dbus.Signal, lastResumeUnix *int64) {
	if len(sgn.Body) != 1 {
		return
	}
	sleeping, ok := sgn.Body[0].(bool)
	if !ok || sleeping {
		return
	}
	s.handleResumeEvent(ctx, lastResumeUnix)
}

// handleResumeEvent refreshes the weather after the system woke up. Consecutive resume events
// are debounced and the network gets some time to come back first.
func (s *Service) handleResumeEvent(ctx context.Context, lastResumeUnix *int64) {
	now := time.Now().Unix()
	if now-atomic.LoadInt64(lastResumeUnix) < debounceWindow {
		return
	}
	atomic.StoreInt64(lastResumeUnix, now)

	if !geobus.SleepOrDone(ctx, s.resumeDelay) {
		return
	}

	s.logger.Debug("resuming from sleep, refreshing weather data")
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("failed to refresh weather data after resume", logger.Err(err))
	}
}
