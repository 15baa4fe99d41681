package forecast

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DatetimeLayout is how daily forecasts are dated. Every day is pinned to noon.
	DatetimeLayout = "2006-01-02T15:04:05"

	issuedLayout = "2 January 2006"
)

var monthAbbreviations = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

// ParseTemperature parses a temperature such as "24°C". Empty or malformed text reports false.
func ParseTemperature(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "°C"))
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

// ForecastDateFor works out the calendar day a forecast entry describes, at noon in now's location. dayName is
// "Today", "Tomorrow" or "Www D Mon" ("Sat 12 Jul"). The year is taken from now, except that January and February
// dates seen in a later month belong to the next year. When dayName cannot be read, forecastDate ("11 July 2025")
// is used, and failing that, today.
func ForecastDateFor(dayName, forecastDate string, now time.Time) time.Time {
	noon := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, now.Location())
	}

	switch dayName = strings.TrimSpace(dayName); dayName {
	case "Today":
		return noon(now.Year(), now.Month(), now.Day())
	case "Tomorrow":
		t := now.AddDate(0, 0, 1)
		return noon(t.Year(), t.Month(), t.Day())
	}

	if parts := strings.Fields(dayName); len(parts) >= 3 {
		if day, err := strconv.Atoi(parts[1]); err == nil {
			month, ok := monthAbbreviations[parts[2]]
			if !ok {
				month = now.Month()
			}

			year := now.Year()
			if month < now.Month() && (month == time.January || month == time.February) {
				year++
			}

			// time.Date normalizes out of range days, which the feed never means
			if t := noon(year, month, day); t.Day() == day && t.Month() == month {
				return t
			}
		}
	}

	if t, err := time.ParseInLocation(issuedLayout, strings.TrimSpace(forecastDate), now.Location()); err == nil {
		return noon(t.Year(), t.Month(), t.Day())
	}

	return noon(now.Year(), now.Month(), now.Day())
}
