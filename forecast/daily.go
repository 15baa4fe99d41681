package forecast

import (
	"time"

	"github.com/govje/govje-weather/hass"
)

// DailyForecast is one entry of the daily forecast list, using the attribute names of Home Assistant's weather
// entity. Speeds are in m/s and temperatures in °C.
type DailyForecast struct {
	Datetime                 string         `json:"datetime"`
	Condition                hass.Condition `json:"condition,omitempty"`
	NativeTemperature        *float64       `json:"native_temperature,omitempty"`
	NativeTemplow            *float64       `json:"native_templow,omitempty"`
	PrecipitationProbability int            `json:"precipitation_probability"`
	WindBearing              *float64       `json:"wind_bearing,omitempty"`
	NativeWindSpeed          *float64       `json:"native_wind_speed,omitempty"`
	IsDaytime                bool           `json:"is_daytime"`
}

// Daily builds one DailyForecast per day of the report. now decides what "Today" and "Tomorrow" mean.
func (r *Report) Daily(now time.Time) []DailyForecast {
	if r == nil || len(r.Days) == 0 {
		return nil
	}

	out := make([]DailyForecast, 0, len(r.Days))
	for i := range r.Days {
		out = append(out, r.Days[i].daily(r.ForecastDate.String(), now))
	}

	return out
}

func (d *Day) daily(issued string, now time.Time) DailyForecast {
	f := DailyForecast{
		Datetime:                 ForecastDateFor(d.DayName.String(), issued, now).Format(DatetimeLayout),
		PrecipitationProbability: d.RainProbability(),
		IsDaytime:                true,
	}

	if c, ok := d.Condition(); ok {
		f.Condition = c
	}

	f.NativeTemperature = optional(ParseTemperature(d.MaxTemp.String()))
	f.NativeTemplow = optional(ParseTemperature(d.MinTemp.String()))
	f.WindBearing = optional(WindBearing(d.WindDirection.String()))
	f.NativeWindSpeed = optional(WindSpeedFromForce(d.WindSpeed.String()))

	return f
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}

	return &v
}
