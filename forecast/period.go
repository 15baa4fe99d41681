package forecast

import (
	"time"
	_ "time/tzdata"
)

// TimeZone is the zone the feed's day names and periods refer to.
var TimeZone = loadTimeZone("Europe/Jersey")

func loadTimeZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}

	return loc
}

// Period is one of the three parts of a forecast day.
type Period int

const (
	// Morning is 05:00 to 11:59.
	Morning Period = iota
	// Afternoon is 12:00 to 17:59.
	Afternoon
	// Evening is 18:00 to 04:59 the next morning. Until 05:00 the feed still describes the previous evening.
	Evening
)

// Periods lists every Period in the order they occur during a day.
var Periods = []Period{Morning, Afternoon, Evening}

func (p Period) String() string {
	switch p {
	case Morning:
		return "Morning"
	case Afternoon:
		return "Afternoon"
	case Evening:
		return "Evening"
	default:
		return "Unknown"
	}
}

// PeriodAt returns the Period containing the wall clock time of t. Convert t to the feed's TimeZone first.
func PeriodAt(t time.Time) Period {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 18:
		return Afternoon
	default:
		return Evening
	}
}

// Remaining returns the periods of the same day that come after p.
func (p Period) Remaining() []Period {
	switch p {
	case Morning:
		return []Period{Afternoon, Evening}
	case Afternoon:
		return []Period{Evening}
	default:
		return nil
	}
}
