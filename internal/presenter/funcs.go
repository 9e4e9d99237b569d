// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
)

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":    p.timeFormat,
		"localizedTime": p.localizedTime,
		"dayName":       p.dayName,
		"ago":           p.ago,
		"floatFormat":   p.floatFormat,
		"loc":           p.loc,
		"lc":            strings.ToLower,
		"uc":            strings.ToUpper,
	}
}

// loc translates known message keys. Unknown values are returned unchanged.
func (p *Presenter) loc(val string) string {
	if raw, ok := i18nVars[strings.ToLower(val)]; ok {
		return p.localizer.Get(raw)
	}
	return val
}

func (p *Presenter) localizedTime(val time.Time) string {
	if val.IsZero() {
		return "n/a"
	}
	return p.humanizer.FormatTime(val, humanize.TimeFormat)
}

func (p *Presenter) dayName(val time.Time) string {
	if val.IsZero() {
		return ""
	}
	return p.humanizer.FormatTime(val, "D")
}

func (p *Presenter) ago(val time.Time) string {
	if val.IsZero() {
		return "n/a"
	}
	return p.humanizer.NaturalTime(val)
}

func (p *Presenter) timeFormat(val time.Time, fmt string) string {
	if val.IsZero() {
		return "n/a"
	}
	return val.Format(fmt)
}

func (p *Presenter) floatFormat(val float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, val)
}

// degToString converts a wind direction in degrees to one of eight compass points.
func (p *Presenter) degToString(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Floor((deg+22.5)/45)) % len(compassPoints)
	return compassPoints[idx]
}

func (p *Presenter) windDirIcon(val string) string {
	return windDirIcons[strings.ToUpper(val)]
}

// EmojiWithSpace pads an emoji so that the following text lines up in terminals that render it
// with double width.
func EmojiWithSpace(emoji string) string {
	if emoji == "" {
		return ""
	}
	width := runewidth.StringWidth(emoji)
	return fmt.Sprintf("%s%s", emoji, strings.Repeat(" ", max(1, 3-width)))
}
