// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kkyr/fig"
)

const (
	configEnv         = "WEATHERNOW"
	appName           = "weather-now"
	dotEnvFile        = ".env"
	DefaultTextTpl    = "{{.Icon}} {{.Temperature}}{{.UnitSymbol}}"
	DefaultTooltipTpl = "{{.DisplayName}}\n{{.Condition}}\n" +
		"{{loc \"wind\"}}: {{.WindSpeed}} km/h {{.WindDirectionIcon}} {{.WindDirection}}\n" +
		"🌅 {{localizedTime .Sunrise}} • 🌇 {{localizedTime .Sunset}}\n" +
		"{{loc \"moonphase\"}}: {{.MoonphaseIcon}} {{.Moonphase}}\n\n" +
		"{{range .Daily}}{{dayName .Date}} {{.Icon}} {{.TempMin}}/{{.TempMax}}{{$.UnitSymbol}}\n{{end}}" +
		"{{loc \"updated\"}} {{ago .ObservationTime}}"
)

// Config represents the application's configuration structure.
type Config struct {
	Units    string     `fig:"units" default:"metric" validate:"oneof=metric imperial"`
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Theme struct {
		File    string `fig:"file"`
		Default string `fig:"default" default:"system" validate:"oneof=light dark system"`
	} `fig:"theme"`

	GeoLocation struct {
		Timeout                time.Duration `fig:"timeout" default:"8s" validate:"gt=0"`
		File                   string        `fig:"file"`
		DisableGeoIP           bool          `fig:"disable_geoip"`
		DisableGeolocationFile bool          `fig:"disable_geolocation_file"`
		DisableGPSD            bool          `fig:"disable_gpsd"`
	} `fig:"geolocation"`

	Geocoder struct {
		Provider        string `fig:"provider" default:"open-meteo" validate:"oneof=open-meteo nominatim"`
		SearchEndpoint  string `fig:"search_endpoint" validate:"omitempty,url"`
		ReverseEndpoint string `fig:"reverse_endpoint" validate:"omitempty,url"`
	} `fig:"geocoder"`

	Weather struct {
		Provider string `fig:"provider" default:"open-meteo" validate:"oneof=open-meteo omgo"`
		Endpoint string `fig:"endpoint" validate:"omitempty,url"`
	} `fig:"weather"`

	Intervals struct {
		Output time.Duration `fig:"output" default:"30s" validate:"gte=1s"`
	} `fig:"intervals"`

	Templates struct {
		Text    string `fig:"text"`
		Tooltip string `fig:"tooltip"`
	} `fig:"templates"`
}

// NewFromFile loads the configuration from the given file in path. Environment variables take
// precedence over the file values.
func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = loadDotEnv(); err != nil {
		return conf, err
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// New loads the configuration from the user's config directory if present, falling back to
// defaults and environment variables.
func New() (*Config, error) {
	conf := new(Config)
	if err := loadDotEnv(); err != nil {
		return conf, err
	}
	opts := []fig.Option{fig.AllowNoFile(), fig.UseEnv(configEnv)}
	if dir := configDir(); dir != "" {
		opts = append(opts, fig.Dirs(".", dir))
	}
	if err := fig.Load(conf, opts...); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Templates.Text == "" {
		c.Templates.Text = DefaultTextTpl
	}
	if c.Templates.Tooltip == "" {
		c.Templates.Tooltip = DefaultTooltipTpl
	}
	if c.GeoLocation.File == "" {
		c.GeoLocation.File = filepath.Join(configDir(), "geolocation")
	}
	if c.Theme.File == "" {
		c.Theme.File = filepath.Join(configDir(), "theme")
	}

	return nil
}

// loadDotEnv reads a .env file from the working directory. A missing file is not an error.
// Variables already present in the environment are not overridden.
func loadDotEnv() error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s file: %w", dotEnvFile, err)
	}
	return nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
