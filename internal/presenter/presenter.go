// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"
	"github.com/wneessen/go-moonphase"

	"github.com/wneessen/weather-now/internal/config"
	"github.com/wneessen/weather-now/internal/session"
	"github.com/wneessen/weather-now/internal/weather"
)

// Output is the rendered session state as printed by the CLI in JSON mode.
type Output struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

// DayView is a daily forecast entry prepared for templates.
type DayView struct {
	Date      time.Time
	Condition string
	Icon      string
	TempMax   string
	TempMin   string
	Sunrise   time.Time
	Sunset    time.Time
}

type TemplateContext struct {
	DisplayName string
	Latitude    float64
	Longitude   float64
	Status      string
	Loading     bool
	Error       string
	HasWeather  bool

	UnitSymbol        string
	Temperature       string
	Condition         string
	Icon              string
	IconWithSpace     string
	IsDay             bool
	WindSpeed         string
	WindDirection     string
	WindDirectionIcon string
	ObservationTime   time.Time

	Sunrise       time.Time
	Sunset        time.Time
	Moonphase     string
	MoonphaseIcon string

	Daily []DayView
}

type Presenter struct {
	TextTemplate    *template.Template
	TooltipTemplate *template.Template

	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
	now       func() time.Time
}

// New parses the configured templates and verifies they can be rendered.
func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	if loc == nil {
		return nil, fmt.Errorf("localizer must not be nil")
	}
	collection, err := humanize.New(humanize.WithLocale(de.New()))
	if err != nil {
		return nil, fmt.Errorf("failed to create humanizer: %w", err)
	}
	pres := &Presenter{
		localizer: loc,
		humanizer: collection.CreateHumanizer(loc.Language()),
		now:       time.Now,
	}

	pres.TextTemplate, err = template.New("text").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	pres.TooltipTemplate, err = template.New("tooltip").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Tooltip)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tooltip template: %w", err)
	}

	probe := TemplateContext{Daily: []DayView{{}}}
	if _, err = pres.execute(pres.TextTemplate, probe); err != nil {
		return nil, err
	}
	if _, err = pres.execute(pres.TooltipTemplate, probe); err != nil {
		return nil, err
	}

	return pres, nil
}

// BuildContext prepares the template context for the given session state.
func (p *Presenter) BuildContext(st session.State) TemplateContext {
	tplCtx := TemplateContext{
		DisplayName: st.DisplayName,
		Latitude:    st.Location.Lat,
		Longitude:   st.Location.Lon,
		Status:      st.Status.String(),
		Loading:     st.Loading,
		Error:       st.Error,
		UnitSymbol:  st.Unit.Symbol(),
	}

	moon := moonphase.New(p.now())
	tplCtx.Moonphase = p.loc(moon.PhaseName())
	tplCtx.MoonphaseIcon = MoonPhaseIcon[moon.PhaseName()]

	if st.Current == nil {
		return tplCtx
	}
	cur := st.Current
	tplCtx.HasWeather = true
	// Kept conditions of a failed refetch may still be in the previous unit
	if unit, err := weather.ParseUnit(cur.TemperatureUnit); err == nil {
		tplCtx.UnitSymbol = unit.Symbol()
	}
	tplCtx.Temperature = p.floatFormat(cur.Temperature, 1)
	tplCtx.Condition = p.condition(cur.WeatherCode)
	tplCtx.Icon = conditionIcon(cur.WeatherCode, cur.IsDay)
	tplCtx.IconWithSpace = EmojiWithSpace(tplCtx.Icon)
	tplCtx.IsDay = cur.IsDay
	tplCtx.WindSpeed = p.floatFormat(cur.WindSpeedKmh, 1)
	tplCtx.WindDirection = "n/a"
	if cur.WindDirection.IsSet() {
		tplCtx.WindDirection = p.degToString(cur.WindDirection.Value())
		tplCtx.WindDirectionIcon = p.windDirIcon(tplCtx.WindDirection)
	}
	tplCtx.ObservationTime = cur.ObservationTime

	tplCtx.Daily = make([]DayView, 0, len(st.Daily))
	for _, day := range st.Daily {
		tplCtx.Daily = append(tplCtx.Daily, DayView{
			Date:      day.Date,
			Condition: p.condition(day.WeatherCode),
			Icon:      conditionIcon(day.WeatherCode, true),
			TempMax:   p.floatFormat(day.TempMax, 0),
			TempMin:   p.floatFormat(day.TempMin, 0),
			Sunrise:   day.Sunrise,
			Sunset:    day.Sunset,
		})
	}
	if len(st.Daily) > 0 {
		tplCtx.Sunrise, tplCtx.Sunset = st.Daily[0].Sunrise, st.Daily[0].Sunset
	}

	return tplCtx
}

// Render renders the session state. class is passed through to the output unchanged.
func (p *Presenter) Render(st session.State, class string) (Output, error) {
	out := Output{Class: class}
	tplCtx := p.BuildContext(st)

	switch {
	case !tplCtx.HasWeather && tplCtx.Loading:
		out.Text = p.localizer.Get("Loading…")
		out.Tooltip = out.Text
		return out, nil
	case !tplCtx.HasWeather && tplCtx.Error != "":
		out.Text = "⚠️ " + tplCtx.Error
		out.Tooltip = tplCtx.Error
		return out, nil
	case !tplCtx.HasWeather:
		out.Text = p.localizer.Get("No location selected")
		out.Tooltip = p.localizer.Get("Search for a city or use your current location.")
		return out, nil
	}

	var err error
	if out.Text, err = p.execute(p.TextTemplate, tplCtx); err != nil {
		return out, err
	}
	if out.Tooltip, err = p.execute(p.TooltipTemplate, tplCtx); err != nil {
		return out, err
	}
	if tplCtx.Error != "" {
		out.Tooltip += "\n\n⚠️ " + tplCtx.Error
	}
	return out, nil
}

func (p *Presenter) execute(tpl *template.Template, tplCtx TemplateContext) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := tpl.Execute(buf, tplCtx); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", tpl.Name(), err)
	}
	return buf.String(), nil
}

func (p *Presenter) condition(code int) string {
	msg, ok := WMOWeatherCodes[code]
	if !ok {
		return p.localizer.Get("Unknown")
	}
	return p.localizer.Get(msg)
}

func conditionIcon(code int, isDay bool) string {
	icons, ok := WMOWeatherIcons[code]
	if !ok {
		return "❓"
	}
	return icons[isDay]
}
