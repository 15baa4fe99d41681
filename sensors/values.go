package sensors

import (
	"time"

	"github.com/govje/govje-weather/forecast"
	"github.com/govje/govje-weather/hass"
)

type periodField func(p forecast.PeriodForecast) forecast.Field

var (
	rainProbability periodField = func(p forecast.PeriodForecast) forecast.Field { return p.RainProbability }
	windSpeedMph    periodField = func(p forecast.PeriodForecast) forecast.Field { return p.WindSpeedMph }
	windSpeedKnots  periodField = func(p forecast.PeriodForecast) forecast.Field { return p.WindSpeedKnots }
	windSpeedKph    periodField = func(p forecast.PeriodForecast) forecast.Field { return p.WindSpeedKph }
	confidence      periodField = func(p forecast.PeriodForecast) forecast.Field { return p.Confidence }
	description     periodField = func(p forecast.PeriodForecast) forecast.Field { return p.Description }
)

// today evaluates fn against the first day of the report and the period containing now. Reports without days are
// unknown.
func today(fn func(d *forecast.Day, p forecast.Period) hass.SensorState) ValueFunc {
	return func(r *forecast.Report, now time.Time) hass.SensorState {
		d, ok := r.Today()
		if !ok {
			return hass.Unknown
		}

		return fn(d, forecast.PeriodAt(now))
	}
}

// current reads a field of today's current period and converts it with state.
func current(field periodField, state func(f forecast.Field) hass.SensorState) ValueFunc {
	return today(func(d *forecast.Day, p forecast.Period) hass.SensorState {
		return state(field(d.Period(p)))
	})
}

func asInteger(f forecast.Field) hass.SensorState {
	v, ok := f.Int()
	if !ok {
		return hass.Unknown
	}

	return hass.Integer(v)
}

func asText(f forecast.Field) hass.SensorState {
	return hass.Text(f.String())
}

func number(v float64, ok bool) hass.SensorState {
	if !ok {
		return hass.Unknown
	}

	return hass.Number(v)
}

// temperature is the attribute value of a temperature field: a number, or nil when it cannot be parsed.
func temperature(f forecast.Field) any {
	if v, ok := forecast.ParseTemperature(f.String()); ok {
		return v
	}

	return nil
}

func firstOf(fields ...forecast.Field) forecast.Field {
	for _, f := range fields {
		if f.String() != "" {
			return f
		}
	}

	return forecast.Field{}
}

// RainExpected reports whether the rain probability of the current period is at least threshold percent. It is
// unknown when the report does not carry the probability.
func RainExpected(r *forecast.Report, now time.Time, threshold int) (probability int, state hass.PowerState) {
	d, ok := r.Today()
	if !ok {
		return 0, hass.PowerStateUnknown
	}

	p, ok := d.Period(forecast.PeriodAt(now)).RainProbability.Int()
	if !ok {
		return 0, hass.PowerStateUnknown
	}

	return p, hass.PowerStateOf(p >= threshold)
}

// RainExpectedAttributes describes the inputs of RainExpected.
func RainExpectedAttributes(r *forecast.Report, now time.Time, threshold int) Attributes {
	attrs := Attributes{
		"threshold": threshold,
		"period":    forecast.PeriodAt(now).String(),
	}

	if p, state := RainExpected(r, now, threshold); state != hass.PowerStateUnknown {
		attrs["probability"] = p
	}

	return attrs
}
