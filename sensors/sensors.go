// Package sensors describes the entities derived from a forecast.Report: what they are called, how Home Assistant
// should present them, and how their state and attributes are read from the feed.
package sensors

import (
	"encoding/json"
	"time"

	"github.com/govje/govje-weather/forecast"
	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/mqtt"
)

const (
	// UniqueIDPrefix is prepended to every Description.Key.
	UniqueIDPrefix = "govje_"

	// Attribution credits the data source on the condition entity.
	Attribution = "Data provided by Government of Jersey"

	// forecastDays is how many days after today are listed in attributes.
	forecastDays = 5
)

// Attributes are published as a sensor's json attributes.
type Attributes map[string]any

// AttributesMarshaler encodes Attributes as a json object. A nil map becomes an empty object, which clears the
// attributes in Home Assistant.
var AttributesMarshaler mqtt.ValueMarshaler[Attributes] = func(v Attributes) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(map[string]any(v))
}

// ValueFunc reads a state from a report at the wall clock time now.
type ValueFunc func(r *forecast.Report, now time.Time) hass.SensorState

// AttributesFunc reads the attributes of a sensor from a report at the wall clock time now. It returns nil when there
// are none.
type AttributesFunc func(r *forecast.Report, now time.Time) Attributes

// Description is one sensor entity.
type Description struct {
	Key         string
	Name        string
	Icon        string
	DeviceClass hass.DeviceClass
	StateClass  hass.StateClass
	Unit        string
	// Options lists the states of an enum sensor.
	Options []string

	Value      ValueFunc
	Attributes AttributesFunc
}

// UniqueID returns the unique id Home Assistant registers the sensor under.
func (d Description) UniqueID() string {
	return UniqueIDPrefix + d.Key
}

// Descriptions lists every sensor in the order they are published.
var Descriptions = []Description{
	{
		Key:         "temperature",
		Name:        "GOV.JE Temperature",
		DeviceClass: hass.DeviceClassTemperature,
		StateClass:  hass.StateClassMeasurement,
		Unit:        hass.UnitCelsius,
		Value: func(r *forecast.Report, _ time.Time) hass.SensorState {
			return number(r.Temperature())
		},
	},
	{
		Key:        "uv_index",
		Name:       "GOV.JE UV Index",
		Icon:       "mdi:weather-sunny-alert",
		StateClass: hass.StateClassMeasurement,
		Value: today(func(d *forecast.Day, _ forecast.Period) hass.SensorState {
			return number(d.UVIndex.Float())
		}),
		Attributes: byDay(func(d *forecast.Day) any {
			return d.UVIndex
		}),
	},
	{
		Key:         "max_temp",
		Name:        "GOV.JE Maximum Temperature",
		DeviceClass: hass.DeviceClassTemperature,
		StateClass:  hass.StateClassMeasurement,
		Unit:        hass.UnitCelsius,
		Value: today(func(d *forecast.Day, _ forecast.Period) hass.SensorState {
			return number(forecast.ParseTemperature(d.MaxTemp.String()))
		}),
		Attributes: byDay(func(d *forecast.Day) any {
			return temperature(d.MaxTemp)
		}),
	},
	{
		Key:         "min_temp",
		Name:        "GOV.JE Minimum Temperature",
		DeviceClass: hass.DeviceClassTemperature,
		StateClass:  hass.StateClassMeasurement,
		Unit:        hass.UnitCelsius,
		Value: today(func(d *forecast.Day, _ forecast.Period) hass.SensorState {
			return number(forecast.ParseTemperature(d.MinTemp.String()))
		}),
		Attributes: byDay(func(d *forecast.Day) any {
			return temperature(d.MinTemp)
		}),
	},
	{
		Key:        "wind_speed_mph",
		Name:       "GOV.JE Wind Speed MPH",
		Icon:       "mdi:weather-windy",
		StateClass: hass.StateClassMeasurement,
		Unit:       hass.UnitMilesPerHour,
		Value:      current(windSpeedMph, asInteger),
		Attributes: byPeriod(windSpeedMph),
	},
	{
		Key:        "wind_speed_knots",
		Name:       "GOV.JE Wind Speed Knots",
		Icon:       "mdi:windsock",
		StateClass: hass.StateClassMeasurement,
		Unit:       hass.UnitKnots,
		Value:      current(windSpeedKnots, asInteger),
		Attributes: byPeriod(windSpeedKnots),
	},
	{
		Key:  "wind_direction",
		Name: "GOV.JE Wind Direction",
		Icon: "mdi:compass",
		Value: today(func(d *forecast.Day, p forecast.Period) hass.SensorState {
			return hass.Text(firstOf(d.Period(p).WindDirection, d.WindDirection).String())
		}),
		Attributes: byPeriod(func(p forecast.PeriodForecast) forecast.Field { return p.WindDirection }),
	},
	{
		Key:  "wind_force",
		Name: "GOV.JE Wind Force",
		Icon: "mdi:weather-windy",
		Value: today(func(d *forecast.Day, p forecast.Period) hass.SensorState {
			return hass.Text(firstOf(d.Period(p).WindForce, d.WindSpeed).String())
		}),
		Attributes: byPeriod(func(p forecast.PeriodForecast) forecast.Field { return p.WindForce }),
	},
	{
		Key:        "rain_probability",
		Name:       "GOV.JE Rain Probability",
		Icon:       "mdi:weather-rainy",
		StateClass: hass.StateClassMeasurement,
		Unit:       hass.UnitPercentage,
		Value:      current(rainProbability, asInteger),
		Attributes: byPeriod(rainProbability),
	},
	{
		Key:  "sunrise",
		Name: "GOV.JE Sunrise",
		Icon: "mdi:weather-sunset-up",
		Value: today(func(d *forecast.Day, _ forecast.Period) hass.SensorState {
			return hass.Text(d.SunRise.String())
		}),
		Attributes: byDay(func(d *forecast.Day) any {
			return d.SunRise
		}),
	},
	{
		Key:  "sunset",
		Name: "GOV.JE Sunset",
		Icon: "mdi:weather-sunset-down",
		Value: today(func(d *forecast.Day, _ forecast.Period) hass.SensorState {
			return hass.Text(d.SunSet.String())
		}),
		Attributes: byDay(func(d *forecast.Day) any {
			return d.SunSet
		}),
	},
	{
		Key:        "forecast_summary",
		Name:       "GOV.JE Forecast Summary",
		Icon:       "mdi:text-box-outline",
		Value:      current(description, asText),
		Attributes: byPeriod(description),
	},
	{
		Key:        "wind_speed_kph",
		Name:       "GOV.JE Wind Speed KPH",
		Icon:       "mdi:speedometer",
		StateClass: hass.StateClassMeasurement,
		Unit:       hass.UnitKilometersHour,
		Value:      current(windSpeedKph, asInteger),
		Attributes: byPeriod(windSpeedKph),
	},
	{
		Key:        "confidence",
		Name:       "GOV.JE Confidence",
		Icon:       "mdi:check-circle-outline",
		Value:      current(confidence, asText),
		Attributes: byPeriod(confidence),
	},
	Condition,
}

// Condition is the weather entity. Home Assistant's MQTT integration has no weather platform, so the condition is an
// enum sensor and the rest of the weather entity's properties, the daily forecast included, are its attributes.
var Condition = Description{
	Key:         "condition",
	Name:        "GOV.JE",
	Icon:        "mdi:weather-partly-cloudy",
	DeviceClass: hass.DeviceClassEnum,
	Options:     conditionOptions(),
	Value: today(func(d *forecast.Day, _ forecast.Period) hass.SensorState {
		c, ok := d.Condition()
		if !ok {
			return hass.Unknown
		}

		return hass.Text(string(c))
	}),
	Attributes: weatherAttributes,
}

func conditionOptions() []string {
	out := make([]string, len(hass.Conditions))
	for i, c := range hass.Conditions {
		out[i] = string(c)
	}

	return out
}

func weatherAttributes(r *forecast.Report, now time.Time) Attributes {
	if r == nil {
		return nil
	}

	attrs := Attributes{
		"attribution":      Attribution,
		"temperature_unit": hass.UnitCelsius,
		"wind_speed_unit":  hass.UnitMetersPerSecond,
	}

	if t, ok := r.Temperature(); ok {
		attrs["temperature"] = t
	}

	if d, ok := r.Today(); ok {
		if b, ok := forecast.WindBearing(d.WindDirection.String()); ok {
			attrs["wind_bearing"] = b
		}

		if s, ok := forecast.WindSpeedFromForce(d.WindSpeed.String()); ok {
			attrs["wind_speed"] = s
		}
	}

	if daily := r.Daily(now); len(daily) > 0 {
		attrs["forecast"] = daily
	}

	return attrs
}
