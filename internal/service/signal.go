// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wneessen/weather-now/internal/logger"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleSignals toggles the unit system on SIGUSR1 and the theme on SIGUSR2. The session is
// rendered again after each toggle.
func (s *Service) HandleSignals(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				unit := s.coordinator.State().Unit.Toggle()
				s.logger.Debug("toggling unit system", slog.String("unit", string(unit)))
				if err := s.SetUnit(ctx, unit); err != nil {
					s.logger.Error("failed to fetch weather for new unit system", logger.Err(err))
				}
			case syscall.SIGUSR2:
				next, err := s.ToggleTheme()
				if err != nil {
					s.logger.Error("failed to toggle theme", logger.Err(err))
				}
				s.logger.Debug("theme toggled", slog.String("theme", string(next)))
			default:
				continue
			}
			s.PrintState(ctx)
		}
	}
}
