package hass

// StateClass tells Home Assistant how to build long-term statistics for a sensor. Forecasts for future days never
// qualify; they ride along as attributes of the sensor for today.
type StateClass string

const (
	StateClassNone StateClass = ""
	// StateClassMeasurement is a reading of the present, such as the current temperature or today's rain
	// probability.
	StateClassMeasurement StateClass = "measurement"
)
