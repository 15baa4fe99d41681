package forecast

import (
	"encoding/json/v2"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govje/govje-weather/hass"
)

func fixture(t *testing.T) *Report {
	t.Helper()

	f, err := os.Open("testdata/jerseyForecast.json")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	r, err := Decode(f)
	require.NoError(t, err)

	return r
}

func at(t *testing.T, value string) time.Time {
	t.Helper()

	v, err := time.ParseInLocation("2006-01-02 15:04", value, TimeZone)
	require.NoError(t, err)

	return v
}

func TestDecode(t *testing.T) {
	r := fixture(t)

	require.Len(t, r.Days, 3)

	temp, ok := r.Temperature()
	require.True(t, ok)
	assert.Equal(t, 18.0, temp)

	today, ok := r.Today()
	require.True(t, ok)
	assert.Equal(t, "Today", today.DayName.String())
	assert.Equal(t, "Sunny periods", today.DayToolTip.String())

	t.Run("Numbers and strings", func(t *testing.T) {
		v, ok := today.RainProbAfternoon.Int()
		require.True(t, ok)
		assert.Equal(t, 20, v)

		v, ok = r.Days[2].UVIndex.Int()
		require.True(t, ok)
		assert.Equal(t, 3, v)
	})

	t.Run("Null and empty", func(t *testing.T) {
		assert.False(t, r.Days[2].RainProbEvening.Present())

		assert.True(t, r.Days[2].MinTemp.Present())
		_, ok := r.Days[2].MinTemp.Float()
		assert.False(t, ok)
	})

	t.Run("Missing members", func(t *testing.T) {
		r, err := Decode(stringsReader(`{"forecastDay":[{"dayName":"Today"}]}`))
		require.NoError(t, err)

		assert.False(t, r.CurrentTemperature.Present())
		assert.False(t, r.Days[0].MaxTemp.Present())
	})

	t.Run("Rejects nested values", func(t *testing.T) {
		_, err := Decode(stringsReader(`{"currentTemprature":{"value":18}}`))
		require.Error(t, err)
	})

	t.Run("Field round trip", func(t *testing.T) {
		b, err := json.Marshal(struct {
			A Field `json:"a"`
			B Field `json:"b"`
			C Field `json:"c"`
		}{A: today.RainProbAfternoon, B: today.RainProbMorning})
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":20,"b":"10","c":null}`, string(b))
	})
}

func TestReportEmpty(t *testing.T) {
	var r *Report
	_, ok := r.Today()
	assert.False(t, ok)
	assert.Nil(t, r.Daily(time.Now()))

	_, ok = (&Report{}).Today()
	assert.False(t, ok)
}

func TestPeriodAt(t *testing.T) {
	for _, tc := range []struct {
		clock string
		want  Period
	}{
		{"00:00", Evening},
		{"04:59", Evening},
		{"05:00", Morning},
		{"11:59", Morning},
		{"12:00", Afternoon},
		{"17:59", Afternoon},
		{"18:00", Evening},
		{"23:59", Evening},
	} {
		t.Run(tc.clock, func(t *testing.T) {
			assert.Equal(t, tc.want, PeriodAt(at(t, "2025-07-11 "+tc.clock)))
		})
	}
}

func TestPeriodRemaining(t *testing.T) {
	assert.Equal(t, []Period{Afternoon, Evening}, Morning.Remaining())
	assert.Equal(t, []Period{Evening}, Afternoon.Remaining())
	assert.Empty(t, Evening.Remaining())
}

func TestDayPeriod(t *testing.T) {
	today, _ := fixture(t).Today()

	evening := today.Period(Evening)
	assert.Equal(t, "40", evening.RainProbability.String())
	assert.Equal(t, "SW", evening.WindDirection.String())
	assert.Equal(t, "Clouding over with a chance of a shower.", evening.Description.String())

	morning := today.Period(Morning)
	assert.Equal(t, "19", morning.WindSpeedKph.String())
	assert.Equal(t, "F3", morning.WindForce.String())
	assert.Equal(t, "High", morning.Confidence.String())

	assert.Equal(t, 40, today.RainProbability())
}

func TestDayLabel(t *testing.T) {
	assert.Equal(t, "Tomorrow", (&Day{DayName: Text("Tomorrow"), Day: Text("Saturday")}).Label(1))
	assert.Equal(t, "Saturday", (&Day{Day: Text("Saturday")}).Label(1))
	assert.Equal(t, "Day 3", (&Day{}).Label(2))
}

func TestConditionFromTooltip(t *testing.T) {
	for tooltip, want := range map[string]hass.Condition{
		"Sunny":                         hass.ConditionSunny,
		"Fine":                          hass.ConditionClearNight,
		"Cloudy, a few brighter spells": hass.ConditionPartlyCloudy,
		"Sunny a.m. Rain p.m.":          hass.ConditionRainy,
		"Rain at times":                 hass.ConditionPouring,
		" Cloudy ":                      hass.ConditionCloudy,
	} {
		got, ok := ConditionFromTooltip(tooltip)
		assert.True(t, ok, tooltip)
		assert.Equal(t, want, got, tooltip)
	}

	_, ok := ConditionFromTooltip("Snow flurries")
	assert.False(t, ok)

	assert.Len(t, tooltipConditions, 18)
}

func TestDayCondition(t *testing.T) {
	c, ok := (&Day{DayToolTip: Text("Unknown"), DayIcon: Text("Rain")}).Condition()
	require.True(t, ok)
	assert.Equal(t, hass.ConditionRainy, c)

	_, ok = (&Day{DayToolTip: Text("Hurricane")}).Condition()
	assert.False(t, ok)
}

func TestWindBearing(t *testing.T) {
	for i, dir := range []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE", "S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"} {
		got, ok := WindBearing(dir)
		require.True(t, ok, dir)
		assert.Equal(t, float64(i)*22.5, got, dir)
	}

	got, ok := WindBearing("nw")
	require.True(t, ok)
	assert.Equal(t, 315.0, got)

	_, ok = WindBearing("Variable")
	assert.False(t, ok)
}

func TestWindSpeedFromForce(t *testing.T) {
	got, ok := WindSpeedFromForce("F4")
	require.True(t, ok)
	assert.Equal(t, 6.0, got)

	got, ok = WindSpeedFromForce("F12")
	require.True(t, ok)
	assert.Equal(t, 34.0, got)

	_, ok = WindSpeedFromForce("F13")
	assert.False(t, ok)
	_, ok = WindSpeedFromForce("")
	assert.False(t, ok)
}

func TestParseTemperature(t *testing.T) {
	for in, want := range map[string]float64{
		"24°C":   24,
		"-2°C":   -2,
		" 7°C ":  7,
		"18.5°C": 18.5,
		"21":     21,
	} {
		got, ok := ParseTemperature(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "°C", "warm", "NaN°C", "Inf°C", "-Inf°C", "+Inf"} {
		_, ok := ParseTemperature(in)
		assert.False(t, ok, in)
	}
}

func TestForecastDateFor(t *testing.T) {
	now := at(t, "2025-07-11 23:30")

	for _, tc := range []struct {
		name     string
		dayName  string
		issued   string
		now      time.Time
		expected string
	}{
		{"Today", "Today", "", now, "2025-07-11T12:00:00"},
		{"Tomorrow", "Tomorrow", "", now, "2025-07-12T12:00:00"},
		{"Tomorrow at month end", "Tomorrow", "", at(t, "2025-12-31 08:00"), "2026-01-01T12:00:00"},
		{"Day and month", "Sun 13 Jul", "", now, "2025-07-13T12:00:00"},
		{"January in December", "Thu 1 Jan", "", at(t, "2025-12-30 08:00"), "2026-01-01T12:00:00"},
		{"February in November", "Mon 2 Feb", "", at(t, "2025-11-30 08:00"), "2026-02-02T12:00:00"},
		{"March stays in year", "Sun 1 Mar", "", at(t, "2025-12-30 08:00"), "2025-03-01T12:00:00"},
		{"Unknown month uses current", "Sun 13 July", "", now, "2025-07-13T12:00:00"},
		{"Impossible date falls back", "Mon 31 Feb", "10 July 2025", now, "2025-07-10T12:00:00"},
		{"Issued date", "", "10 July 2025", now, "2025-07-10T12:00:00"},
		{"Nothing usable", "Someday", "soon", now, "2025-07-11T12:00:00"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ForecastDateFor(tc.dayName, tc.issued, tc.now)
			assert.Equal(t, tc.expected, got.Format(DatetimeLayout))
		})
	}
}

func TestDaily(t *testing.T) {
	got := fixture(t).Daily(at(t, "2025-07-11 14:00"))

	f := func(v float64) *float64 { return &v }

	assert.Equal(t, []DailyForecast{
		{
			Datetime:                 "2025-07-11T12:00:00",
			Condition:                hass.ConditionPartlyCloudy,
			NativeTemperature:        f(24),
			NativeTemplow:            f(15),
			PrecipitationProbability: 40,
			WindBearing:              f(247.5),
			NativeWindSpeed:          f(6),
			IsDaytime:                true,
		},
		{
			Datetime:                 "2025-07-12T12:00:00",
			Condition:                hass.ConditionPouring,
			NativeTemperature:        f(21),
			NativeTemplow:            f(14),
			PrecipitationProbability: 80,
			WindBearing:              f(225),
			NativeWindSpeed:          f(9),
			IsDaytime:                true,
		},
		{
			Datetime:                 "2025-07-13T12:00:00",
			Condition:                hass.ConditionCloudy,
			NativeTemperature:        f(20),
			PrecipitationProbability: 20,
			WindBearing:              f(315),
			NativeWindSpeed:          f(4),
			IsDaytime:                true,
		},
	}, got)

	b, err := json.Marshal(got[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"datetime": "2025-07-13T12:00:00",
		"condition": "cloudy",
		"native_temperature": 20,
		"precipitation_probability": 20,
		"wind_bearing": 315,
		"native_wind_speed": 4,
		"is_daytime": true
	}`, string(b))
}
