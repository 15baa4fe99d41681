package hass

import "github.com/govje/govje-weather/mqtt"

// PowerState is the on/off state of a binary sensor. For the rain sensor PowerStateOn means rain is expected.
type PowerState string

var PowerStateMarshaler mqtt.ValueMarshaler[PowerState] = func(v PowerState) ([]byte, error) {
	return mqtt.StringMarshaler(string(v))
}

const (
	PowerStateOn      PowerState = "ON"
	PowerStateOff     PowerState = "OFF"
	PowerStateUnknown PowerState = UnknownPayload
)

// PowerStateOf maps a flag to PowerStateOn or PowerStateOff.
func PowerStateOf(on bool) PowerState {
	if on {
		return PowerStateOn
	}

	return PowerStateOff
}
