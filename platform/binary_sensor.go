package platform

import (
	"github.com/govje/govje-weather/discovery"
	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/mqtt"
)

// BinarySensor is a Sensor whose state is a hass.PowerState. Home Assistant's default ON and OFF payloads are used.
//
// See https://www.home-assistant.io/integrations/binary_sensor.mqtt/.
type BinarySensor[TAttributes any] struct {
	Sensor[hass.PowerState, TAttributes]
}

// NewBinarySensor builds a BinarySensor for state and attributes.
func NewBinarySensor[TAttributes any](state *mqtt.Value[hass.PowerState], attrs *mqtt.Value[TAttributes]) *BinarySensor[TAttributes] {
	return &BinarySensor[TAttributes]{
		Sensor: Sensor[hass.PowerState, TAttributes]{
			State:      state,
			Attributes: attrs,
		},
	}
}

func (s *BinarySensor[TAttributes]) PlatformName() string {
	return "binary_sensor"
}

// MarshalDiscoveryTo writes the sensor fields. A binary sensor has no unit or options, so those are left out even
// when set.
func (s *BinarySensor[TAttributes]) MarshalDiscoveryTo(f *discovery.Fields, prefix string) {
	f.RequiredTopic("state", discovery.FieldStateTopic, s.State, prefix).
		Topic(discovery.FieldAttributesTopic, s.Attributes, prefix).
		Optional(discovery.FieldDeviceClass, s.DeviceClass)
}
