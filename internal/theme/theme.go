// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package theme

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/weather-now/internal/session"
)

// Theme is the light/dark appearance preference.
type Theme string

const (
	Light  Theme = "light"
	Dark   Theme = "dark"
	System Theme = "system"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	portalMethod    = "org.freedesktop.portal.Settings.Read"
	portalNamespace = "org.freedesktop.appearance"
	portalKey       = "color-scheme"
	portalTimeout   = time.Second

	// portalPreferDark is the color-scheme value the portal reports for a dark preference.
	portalPreferDark uint32 = 1
)

var ErrInvalidTheme = errors.New("invalid theme")

// Parse converts a configuration value into a Theme.
func Parse(value string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(value))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	case System, "":
		return System, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, value)
	}
}

// Toggle returns the opposite theme. System is treated like the theme it resolved to by the caller,
// so toggling it yields Dark.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Store persists the theme preference to a file. It is the only state that survives restarts.
type Store struct {
	mu       sync.Mutex
	path     string
	fallback Theme

	// detectFn reports the desktop preference for the System theme.
	detectFn func() (Theme, bool)
}

// NewStore returns a Store backed by path. The default is used while nothing has been persisted.
func NewStore(path, def string) (*Store, error) {
	if path == "" {
		return nil, errors.New("theme file path must not be empty")
	}
	fallback, err := Parse(def)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, fallback: fallback, detectFn: detectPortal}, nil
}

// Load returns the persisted theme, or the resolved default if none was persisted yet.
func (s *Store) Load() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save persists the given theme.
func (s *Store) Save(theme Theme) error {
	if theme != Light && theme != Dark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(theme)
}

// Toggle flips the current theme, persists and returns it.
func (s *Store) Toggle() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return current, err
	}
	next := current.Toggle()
	return next, s.save(next)
}

func (s *Store) load() (Theme, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s.resolve(s.fallback), nil
	case err != nil:
		return s.resolve(s.fallback), fmt.Errorf("failed to read theme file: %w", err)
	}

	theme, err := Parse(string(data))
	if err != nil {
		return s.resolve(s.fallback), fmt.Errorf("failed to parse theme file: %w", err)
	}
	return s.resolve(theme), nil
}

func (s *Store) save(theme Theme) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create theme directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(string(theme)+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write theme file: %w", err)
	}
	return nil
}

// resolve maps System to the desktop preference, falling back to Light.
func (s *Store) resolve(theme Theme) Theme {
	if theme != System {
		return theme
	}
	if s.detectFn != nil {
		if detected, ok := s.detectFn(); ok {
			return detected
		}
	}
	return Light
}

// detectPortal asks the XDG desktop portal for the color-scheme preference.
func detectPortal() (Theme, bool) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), portalTimeout)
	defer cancel()

	var value dbus.Variant
	obj := conn.Object(portalDest, portalPath)
	if err = obj.CallWithContext(ctx, portalMethod, 0, portalNamespace, portalKey).Store(&value); err != nil {
		return "", false
	}
	return themeFromPortal(value)
}

// themeFromPortal unwraps the portal reply, which nests the value in up to two variants.
func themeFromPortal(value dbus.Variant) (Theme, bool) {
	val := value.Value()
	if inner, ok := val.(dbus.Variant); ok {
		val = inner.Value()
	}
	scheme, ok := val.(uint32)
	if !ok {
		return "", false
	}
	if scheme == portalPreferDark {
		return Dark, true
	}
	return Light, true
}

var (
	rainCodes = []int{51, 53, 55, 56, 57, 61, 63, 65, 66, 67, 80, 81, 82}
	snowCodes = []int{71, 73, 75, 77, 85, 86}
)

// Category classifies a WMO weather code into the background categories.
func Category(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code >= 1 && code <= 3:
		return "cloudy"
	case slices.Contains(rainCodes, code):
		return "rain"
	case slices.Contains(snowCodes, code):
		return "snow"
	default:
		return "other"
	}
}

// BackgroundClass returns the presentation class for the theme and the current conditions, e.g.
// "light-clear-day".
func BackgroundClass(theme Theme, meta session.Meta) string {
	period := "night"
	if meta.IsDay {
		period = "day"
	}
	if theme != Dark {
		theme = Light
	}
	return string(theme) + "-" + Category(meta.Code) + "-" + period
}
