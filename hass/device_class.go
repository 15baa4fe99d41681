package hass

// DeviceClass lets Home Assistant pick icons, units and unit conversion for an entity. Only the classes used by the
// bridge are listed.
type DeviceClass string

const (
	DeviceClassNone        DeviceClass = ""
	DeviceClassTemperature DeviceClass = "temperature"
	DeviceClassEnum        DeviceClass = "enum"
	DeviceClassDuration    DeviceClass = "duration"
)

// EntityCategory marks entities that are not primary state. See
// https://developers.home-assistant.io/docs/core/entity/#generic-properties
type EntityCategory string

const (
	EntityCategoryNone       EntityCategory = ""
	EntityCategoryConfig     EntityCategory = "config"
	EntityCategoryDiagnostic EntityCategory = "diagnostic"
)

// Units of measurement understood by Home Assistant.
const (
	UnitCelsius         = "°C"
	UnitPercentage      = "%"
	UnitMilesPerHour    = "mph"
	UnitKnots           = "knots"
	UnitKilometersHour  = "km/h"
	UnitMetersPerSecond = "m/s"
	UnitMinutes         = "min"
)
