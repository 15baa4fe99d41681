package forecast

import (
	"strings"

	"github.com/govje/govje-weather/hass"
)

var tooltipConditions = map[string]hass.Condition{
	"Sunny":                         hass.ConditionSunny,
	"Sunny and hot":                 hass.ConditionSunny,
	"Mainly sunny":                  hass.ConditionPartlyCloudy,
	"Fine":                          hass.ConditionClearNight,
	"Sunny periods":                 hass.ConditionPartlyCloudy,
	"Cloudy, a few brighter spells": hass.ConditionPartlyCloudy,
	"Cloudy a.m. Sunny p.m.":        hass.ConditionPartlyCloudy,
	"Sunny a.m. Cloudy p.m.":        hass.ConditionPartlyCloudy,
	"Sunny a.m. Rain p.m.":          hass.ConditionRainy,
	"Rain later":                    hass.ConditionRainy,
	"Rain a.m. Sunny p.m.":          hass.ConditionRainy,
	"Rain":                          hass.ConditionRainy,
	"Fair":                          hass.ConditionPartlyCloudy,
	"Sunshine and showers":          hass.ConditionRainy,
	"Sunshine and heavy shower":     hass.ConditionRainy,
	"Cloudy with showers":           hass.ConditionRainy,
	"Rain at times":                 hass.ConditionPouring,
	"Cloudy":                        hass.ConditionCloudy,
}

var compassBearings = map[string]float64{
	"N":   0,
	"NNE": 22.5,
	"NE":  45,
	"ENE": 67.5,
	"E":   90,
	"ESE": 112.5,
	"SE":  135,
	"SSE": 157.5,
	"S":   180,
	"SSW": 202.5,
	"SW":  225,
	"WSW": 247.5,
	"W":   270,
	"WNW": 292.5,
	"NW":  315,
	"NNW": 337.5,
}

// Approximate m/s for each Beaufort force.
var beaufortSpeeds = map[string]float64{
	"F0":  0,
	"F1":  0.5,
	"F2":  2,
	"F3":  4,
	"F4":  6,
	"F5":  9,
	"F6":  12,
	"F7":  15,
	"F8":  19,
	"F9":  23,
	"F10": 27,
	"F11": 31,
	"F12": 34,
}

// ConditionFromTooltip maps the vendor's tooltip text onto a hass.Condition.
func ConditionFromTooltip(tooltip string) (hass.Condition, bool) {
	c, ok := tooltipConditions[strings.TrimSpace(tooltip)]
	return c, ok
}

// WindBearing converts a 16 point compass direction into degrees.
func WindBearing(direction string) (float64, bool) {
	b, ok := compassBearings[strings.ToUpper(strings.TrimSpace(direction))]
	return b, ok
}

// WindSpeedFromForce converts a Beaufort force code ("F4") into an approximate speed in m/s.
func WindSpeedFromForce(code string) (float64, bool) {
	s, ok := beaufortSpeeds[strings.ToUpper(strings.TrimSpace(code))]
	return s, ok
}
