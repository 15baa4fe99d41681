package sensors

import (
	"fmt"
	"time"

	"github.com/govje/govje-weather/forecast"
)

// upcoming returns the days after today that attributes list.
func upcoming(r *forecast.Report) []forecast.Day {
	if r == nil || len(r.Days) < 2 {
		return nil
	}

	return r.Days[1:min(len(r.Days), forecastDays+1)]
}

// byDay keys a value per upcoming day by the day's label. Nil values are left out.
func byDay(value func(d *forecast.Day) any) AttributesFunc {
	return func(r *forecast.Report, _ time.Time) Attributes {
		attrs := Attributes{}
		for i, d := range upcoming(r) {
			v := value(&d)
			if f, ok := v.(forecast.Field); ok && !f.Present() {
				continue
			}
			if v == nil {
				continue
			}

			attrs[d.Label(i+1)] = v
		}

		if len(attrs) == 0 {
			return nil
		}

		return attrs
	}
}

// byPeriod lists a time of day field for the rest of today ("Today Evening") and every period of the upcoming days
// ("12 July 2025 Morning"). Upcoming days are named by their forecast date, or their label when the date is missing.
func byPeriod(field periodField) AttributesFunc {
	return func(r *forecast.Report, now time.Time) Attributes {
		days := upcoming(r)
		if len(days) == 0 {
			return nil
		}

		attrs := Attributes{}

		first := &r.Days[0]
		name := first.DayName.String()
		if name == "" {
			name = "Today"
		}

		for _, p := range forecast.PeriodAt(now).Remaining() {
			attrs[periodKey(name, p)] = field(first.Period(p))
		}

		for i, d := range days {
			prefix := d.ForecastDate.String()
			if prefix == "" {
				prefix = d.Label(i + 1)
			}

			for _, p := range forecast.Periods {
				attrs[periodKey(prefix, p)] = field(d.Period(p))
			}
		}

		return attrs
	}
}

func periodKey(prefix string, p forecast.Period) string {
	return fmt.Sprintf("%s %s", prefix, p)
}
