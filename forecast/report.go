package forecast

import (
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"

	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/log"
)

// Report is one decoded copy of the feed. Days[0] is today.
type Report struct {
	// CurrentTemperature carries its unit, e.g. "24°C". The vendor misspells the member name.
	CurrentTemperature Field `json:"currentTemprature"`
	// ForecastDate is when the forecast was issued, e.g. "11 July 2025".
	ForecastDate Field `json:"forecastDate"`
	Days         []Day `json:"forecastDay"`
}

// Day is one entry of the forecastDay array.
type Day struct {
	DayName      Field `json:"dayName"`
	Day          Field `json:"day"`
	ForecastDate Field `json:"forecastDate"`
	DayIcon      Field `json:"dayIcon"`
	DayToolTip   Field `json:"dayToolTip"`

	MaxTemp Field `json:"maxTemp"`
	MinTemp Field `json:"minTemp"`
	UVIndex Field `json:"uvIndex"`
	SunRise Field `json:"sunRise"`
	SunSet  Field `json:"sunSet"`

	WindDirection Field `json:"windDirection"`
	// WindSpeed is a Beaufort force code such as "F4".
	WindSpeed Field `json:"windSpeed"`

	RainProbMorning   Field `json:"rainProbMorning"`
	RainProbAfternoon Field `json:"rainProbAfternoon"`
	RainProbEvening   Field `json:"rainProbEvening"`

	WindSpeedMphMorning   Field `json:"windspeedMphMorning"`
	WindSpeedMphAfternoon Field `json:"windspeedMphAfternoon"`
	WindSpeedMphEvening   Field `json:"windspeedMphEvening"`

	WindSpeedKnotsMorning   Field `json:"windspeedKnotsMorning"`
	WindSpeedKnotsAfternoon Field `json:"windspeedKnotsAfternoon"`
	WindSpeedKnotsEvening   Field `json:"windspeedKnotsEvening"`

	WindSpeedKphMorning   Field `json:"windspeedKMMorning"`
	WindSpeedKphAfternoon Field `json:"windspeedKMAfternoon"`
	WindSpeedKphEvening   Field `json:"windspeedKMEvening"`

	WindDirectionMorning   Field `json:"windDirectionMorning"`
	WindDirectionAfternoon Field `json:"windDirectionAfternoon"`
	WindDirectionEvening   Field `json:"windDirectionEvening"`

	WindForceMorning   Field `json:"windSpeedForceMorning"`
	WindForceAfternoon Field `json:"windSpeedForceAfternoon"`
	WindForceEvening   Field `json:"windSpeedForceEvening"`

	ConfidenceMorning   Field `json:"confidenceMorning"`
	ConfidenceAfternoon Field `json:"confidenceAfternoon"`
	ConfidenceEvening   Field `json:"confidenceEvening"`

	// The vendor spells these "Descripiton" and calls the evening "night".
	DescriptionMorning   Field `json:"morningDescripiton"`
	DescriptionAfternoon Field `json:"afternoonDescripiton"`
	DescriptionEvening   Field `json:"nightDescripiton"`
}

// PeriodForecast is the part of a Day that differs between morning, afternoon and evening.
type PeriodForecast struct {
	RainProbability Field
	WindSpeedMph    Field
	WindSpeedKnots  Field
	WindSpeedKph    Field
	WindDirection   Field
	WindForce       Field
	Confidence      Field
	Description     Field
}

// Decode reads a Report from r.
func Decode(r io.Reader) (*Report, error) {
	var report Report
	if err := json.UnmarshalRead(r, &report); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	return &report, nil
}

// Today returns the first day of the report.
func (r *Report) Today() (*Day, bool) {
	if r == nil || len(r.Days) == 0 {
		return nil, false
	}

	return &r.Days[0], true
}

// Temperature parses CurrentTemperature.
func (r *Report) Temperature() (float64, bool) {
	if r == nil {
		return 0, false
	}

	return ParseTemperature(r.CurrentTemperature.String())
}

// Period selects the fields for p.
func (d *Day) Period(p Period) PeriodForecast {
	switch p {
	case Morning:
		return PeriodForecast{
			RainProbability: d.RainProbMorning,
			WindSpeedMph:    d.WindSpeedMphMorning,
			WindSpeedKnots:  d.WindSpeedKnotsMorning,
			WindSpeedKph:    d.WindSpeedKphMorning,
			WindDirection:   d.WindDirectionMorning,
			WindForce:       d.WindForceMorning,
			Confidence:      d.ConfidenceMorning,
			Description:     d.DescriptionMorning,
		}
	case Afternoon:
		return PeriodForecast{
			RainProbability: d.RainProbAfternoon,
			WindSpeedMph:    d.WindSpeedMphAfternoon,
			WindSpeedKnots:  d.WindSpeedKnotsAfternoon,
			WindSpeedKph:    d.WindSpeedKphAfternoon,
			WindDirection:   d.WindDirectionAfternoon,
			WindForce:       d.WindForceAfternoon,
			Confidence:      d.ConfidenceAfternoon,
			Description:     d.DescriptionAfternoon,
		}
	default:
		return PeriodForecast{
			RainProbability: d.RainProbEvening,
			WindSpeedMph:    d.WindSpeedMphEvening,
			WindSpeedKnots:  d.WindSpeedKnotsEvening,
			WindSpeedKph:    d.WindSpeedKphEvening,
			WindDirection:   d.WindDirectionEvening,
			WindForce:       d.WindForceEvening,
			Confidence:      d.ConfidenceEvening,
			Description:     d.DescriptionEvening,
		}
	}
}

// Label names the day for attribute keys: dayName, then day, then "Day n" where n is the 1-based position.
func (d *Day) Label(index int) string {
	if s := d.DayName.String(); s != "" {
		return s
	}

	if s := d.Day.String(); s != "" {
		return s
	}

	return fmt.Sprintf("Day %d", index+1)
}

// Condition maps the day's tooltip onto a hass.Condition. The icon name is tried as a tooltip when the tooltip is
// unknown.
func (d *Day) Condition() (hass.Condition, bool) {
	for _, key := range []Field{d.DayToolTip, d.DayIcon} {
		if c, ok := ConditionFromTooltip(key.String()); ok {
			return c, true
		}
	}

	if d.DayToolTip.Present() || d.DayIcon.Present() {
		log.ForComponent("forecast").Debug(
			"Unknown weather tooltip",
			slog.String("tooltip", d.DayToolTip.String()),
			slog.String("icon", d.DayIcon.String()),
		)
	}

	return "", false
}

// RainProbability returns the largest rain probability of the three periods. Missing periods count as zero.
func (d *Day) RainProbability() int {
	var highest int
	for _, p := range Periods {
		if v, ok := d.Period(p).RainProbability.Int(); ok {
			highest = max(highest, v)
		}
	}

	return highest
}
