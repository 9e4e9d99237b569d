// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package i18n provides the localizer for user-facing messages.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

//go:embed locale/*
var locales embed.FS

// Supported lists the languages with a translation catalog. English is the source language.
var Supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(Supported)

// New returns a localizer for loc. An empty loc uses the locale of the environment, anything that
// neither parses nor matches a catalog falls back to English.
func New(loc string) (*spreak.Localizer, error) {
	tag := Match(loc)

	localeFS, err := fs.Sub(locales, "locale")
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}
	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithDomainFs("", localeFS),
		spreak.WithLanguage(language.German),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}

// Match returns the supported language closest to loc.
func Match(loc string) language.Tag {
	var tag language.Tag
	var err error
	switch loc = strings.TrimSpace(loc); loc {
	case "":
		tag, err = locale.Detect()
	default:
		tag, err = language.Parse(loc)
	}
	if err != nil {
		return language.English
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return language.English
	}
	return Supported[idx]
}
