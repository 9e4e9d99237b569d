// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/wneessen/weather-now/internal/config"
	"github.com/wneessen/weather-now/internal/geobus"
	"github.com/wneessen/weather-now/internal/geocode"
	"github.com/wneessen/weather-now/internal/http"
	"github.com/wneessen/weather-now/internal/i18n"
	"github.com/wneessen/weather-now/internal/logger"
	"github.com/wneessen/weather-now/internal/presenter"
	"github.com/wneessen/weather-now/internal/session"
	"github.com/wneessen/weather-now/internal/theme"
	"github.com/wneessen/weather-now/internal/weather"
)

const (
	DesktopID    = "weather-now"
	FetchTimeout = time.Second * 10

	outputJobName   = "session_output_job"
	stateBufferSize = 8
)

// User-facing messages stored in the session state. They are localized before they are shown.
const (
	MessageCityNotFound        = "City not found. Try another name."
	MessageSearchFailed        = "Could not find that place. Please try again."
	MessageLocationUnavailable = "Could not get your location."
	LabelLiveLocation          = "Live location"
)

var (
	// ErrInputInvalid is returned for an empty search text. No lookup is made in that case.
	ErrInputInvalid = errors.New("search text must not be empty")

	// ErrLocationUnavailable is returned when no geolocation result arrived in time.
	ErrLocationUnavailable = errors.New("current location is unavailable")

	ErrEmptyDisplayName = errors.New("display name must not be empty")
	ErrNoLogger         = errors.New("logger is required")
)

// Service is the boundary between the CLI and the weather session. It resolves locations, drives
// the coordinator and renders its state.
type Service struct {
	SignalSrc signalSource

	config      *config.Config
	logger      *logger.Logger
	localizer   *spreak.Localizer
	http        *http.Client
	geobus      *geobus.GeoBus
	resolver    *geocode.Resolver
	coordinator *session.Coordinator
	presenter   *presenter.Presenter
	themes      *theme.Store
	scheduler   gocron.Scheduler

	geobusProviders func() ([]geobus.Provider, error)
	resumeDelay     time.Duration

	outputLock sync.Mutex
	output     io.Writer
	jsonOutput bool

	themeLock sync.RWMutex
	theme     theme.Theme
	meta      session.Meta
	hasMeta   bool
}

func New(conf *config.Config, log *logger.Logger) (*Service, error) {
	if log == nil {
		return nil, ErrNoLogger
	}
	lang, err := i18n.New(conf.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to create localizer: %w", err)
	}
	bus, err := geobus.New(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create geobus: %w", err)
	}
	unit, err := weather.ParseUnit(conf.Units)
	if err != nil {
		return nil, err
	}
	pres, err := presenter.New(conf, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}
	themes, err := theme.NewStore(conf.Theme.File, conf.Theme.Default)
	if err != nil {
		return nil, fmt.Errorf("failed to create theme store: %w", err)
	}
	service := &Service{
		SignalSrc:   stdLibSignalSource{},
		config:      conf,
		logger:      log,
		localizer:   lang,
		http:        http.New(log),
		geobus:      bus,
		presenter:   pres,
		themes:      themes,
		resumeDelay: networkWakeupDelay,
		output:      os.Stdout,
	}
	service.geobusProviders = service.selectGeobusProviders

	geocoder, err := service.selectGeocodeProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode provider: %w", err)
	}
	service.resolver = geocode.NewResolver(geocoder, log.Component("geocode"))

	provider, err := service.selectWeatherProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to create weather provider: %w", err)
	}
	if service.coordinator, err = service.newCoordinator(provider, unit); err != nil {
		return nil, fmt.Errorf("failed to create session coordinator: %w", err)
	}

	service.theme, err = themes.Load()
	if err != nil {
		log.Warn("failed to load theme preference, using default", logger.Err(err))
	}

	return service, nil
}

func (s *Service) newCoordinator(provider weather.Provider, unit weather.Unit) (*session.Coordinator, error) {
	return session.New(provider, s.logger.Component("session"),
		session.WithUnit(unit),
		session.WithLocalizer(s.localizer),
		session.WithMetaHandler(s.onMeta),
	)
}

// SetOutput sets the writer the session is rendered to. With asJSON the output is one JSON object
// per render, otherwise text and tooltip are printed as plain lines.
func (s *Service) SetOutput(w io.Writer, asJSON bool) {
	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	s.output = w
	s.jsonOutput = asJSON
}

// State returns a snapshot of the session state.
func (s *Service) State() session.State {
	return s.coordinator.State()
}

// SearchByName resolves name and fetches the weather for the first match. The display name is
// set before the fetch is issued.
func (s *Service) SearchByName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInputInvalid
	}

	s.coordinator.BeginLookup()
	loc, err := s.resolver.Forward(ctx, name)
	if err != nil {
		message := MessageSearchFailed
		if errors.Is(err, geocode.ErrNotFound) {
			message = MessageCityNotFound
		}
		s.coordinator.Fail(message)
		return fmt.Errorf("failed to look up %q: %w", name, err)
	}

	s.coordinator.SetLocation(loc.Coordinate, loc.Label)
	return s.fetch(ctx, loc.Coordinate, s.coordinator.State().Unit, loc.Label)
}

// UseCurrentLocation waits for the first geolocation result, reverse geocodes it and fetches the
// weather. A failed reverse lookup falls back to a generic label.
func (s *Service) UseCurrentLocation(ctx context.Context) error {
	s.coordinator.BeginLookup()
	coords, err := s.locate(ctx)
	if err != nil {
		s.coordinator.Fail(MessageLocationUnavailable)
		return fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	label, ok := s.resolver.Reverse(ctx, coords)
	if !ok {
		label = s.localizer.Get(LabelLiveLocation)
	}
	s.coordinator.SetLocation(coords, label)
	return s.fetch(ctx, coords, s.coordinator.State().Unit, label)
}

// SetUnit changes the unit system. If a location is known, the weather for it is fetched again
// with the new unit and the display name is kept.
func (s *Service) SetUnit(ctx context.Context, unit weather.Unit) error {
	s.coordinator.SetUnit(unit)
	st := s.coordinator.State()
	if !st.HasLocation {
		return nil
	}
	return s.fetch(ctx, st.Location, unit, "")
}

// Refresh fetches the weather for the current location even if it did not change.
func (s *Service) Refresh(ctx context.Context) error {
	st := s.coordinator.State()
	if !st.HasLocation {
		return nil
	}
	s.coordinator.Invalidate()
	return s.fetch(ctx, st.Location, st.Unit, "")
}

func (s *Service) fetch(ctx context.Context, coords geobus.Coordinate, unit weather.Unit, label string) error {
	ctxFetch, cancelFetch := context.WithTimeout(ctx, FetchTimeout)
	defer cancelFetch()

	err := s.coordinator.Fetch(ctxFetch, coords, unit, label)
	if err == nil {
		s.coordinator.EndLookup()
	}
	return err
}

// locate tracks all enabled geolocation providers until the first result arrives or the
// configured timeout expires. A still valid earlier result is used right away.
func (s *Service) locate(ctx context.Context) (geobus.Coordinate, error) {
	providers, err := s.geobusProviders()
	if err != nil {
		return geobus.Coordinate{}, err
	}

	ctxLocate, cancelLocate := context.WithTimeout(ctx, s.config.GeoLocation.Timeout)
	defer cancelLocate()

	r, err := s.geobus.NewOrchestrator(providers).First(ctxLocate, DesktopID)
	if err != nil {
		return geobus.Coordinate{}, err
	}
	s.logger.Debug("received geolocation result", slog.Float64("lat", r.Lat),
		slog.Float64("lon", r.Lon), slog.String("source", r.Source))
	return r.Coordinate(), nil
}

// ShareURL returns the share link for the first segment of displayName below base.
func ShareURL(base, displayName string) (string, error) {
	place, _, _ := strings.Cut(displayName, ",")
	place = strings.TrimSpace(place)
	if place == "" {
		return "", ErrEmptyDisplayName
	}
	return strings.TrimSuffix(base, "/") + "/weather/" + url.PathEscape(place), nil
}

// Theme returns the active theme.
func (s *Service) Theme() theme.Theme {
	s.themeLock.RLock()
	defer s.themeLock.RUnlock()
	return s.theme
}

// ToggleTheme flips and persists the theme preference.
func (s *Service) ToggleTheme() (theme.Theme, error) {
	next, err := s.themes.Toggle()
	if err != nil {
		return s.Theme(), fmt.Errorf("failed to toggle theme: %w", err)
	}
	s.themeLock.Lock()
	s.theme = next
	s.themeLock.Unlock()
	return next, nil
}

func (s *Service) onMeta(meta session.Meta) {
	s.themeLock.Lock()
	defer s.themeLock.Unlock()
	s.meta, s.hasMeta = meta, true
	s.logger.Debug("weather meta changed", slog.Int("code", meta.Code), slog.Bool("is_day", meta.IsDay),
		slog.String("class", theme.BackgroundClass(s.theme, meta)))
}

// outputClass is the background class for the last meta, or the bare theme before any weather
// was fetched.
func (s *Service) outputClass() string {
	s.themeLock.RLock()
	defer s.themeLock.RUnlock()
	if !s.hasMeta {
		return string(s.theme)
	}
	return theme.BackgroundClass(s.theme, s.meta)
}

// Run renders the session periodically and on every state change until ctx is done. Sleep/resume
// events trigger a refresh, SIGUSR1 toggles the unit system and SIGUSR2 the theme.
func (s *Service) Run(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.scheduler = scheduler
	if err = s.createScheduledJob(ctx, s.config.Intervals.Output, s.PrintState, outputJobName); err != nil {
		return err
	}
	s.scheduler.Start()

	states, unsub := s.coordinator.Subscribe(stateBufferSize)
	go s.processStateUpdates(ctx, states)
	go s.monitorSleepResume(ctx)

	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	go s.HandleSignals(ctx, sigChan)

	<-ctx.Done()
	s.SignalSrc.Stop(sigChan)
	unsub()
	return s.scheduler.Shutdown()
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// processStateUpdates renders every published session state.
func (s *Service) processStateUpdates(ctx context.Context, states <-chan session.State) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-states:
			if !ok {
				return
			}
			s.PrintState(ctx)
		}
	}
}

// PrintState renders the current session state to the configured output.
func (s *Service) PrintState(context.Context) {
	out, err := s.presenter.Render(s.coordinator.State(), s.outputClass())
	if err != nil {
		s.logger.Error("failed to render session state", logger.Err(err))
		return
	}

	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if s.jsonOutput {
		if err = json.NewEncoder(s.output).Encode(out); err != nil {
			s.logger.Error("failed to encode session state", logger.Err(err))
		}
		return
	}
	if _, err = fmt.Fprintf(s.output, "%s\n%s\n", out.Text, out.Tooltip); err != nil {
		s.logger.Error("failed to write session state", logger.Err(err))
	}
}
