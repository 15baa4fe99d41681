package hass

import "github.com/govje/govje-weather/mqtt"

// Availability tells Home Assistant whether an entity (or the bridge as a whole) is online.
type Availability string

var (
	AvailabilityMarshaler mqtt.ValueMarshaler[Availability] = func(v Availability) ([]byte, error) {
		return mqtt.StringMarshaler(string(v))
	}
	AvailabilityUnmarshaler mqtt.ValueUnmarshaler[Availability] = func(bytes []byte) (Availability, error) {
		v, err := mqtt.StringUnmarshaler(bytes)
		return Availability(v), err
	}
)

const (
	Available   Availability = "online"
	Unavailable Availability = "offline"
)

// AvailabilityOf maps a success flag to Available or Unavailable.
func AvailabilityOf(ok bool) Availability {
	if ok {
		return Available
	}

	return Unavailable
}
