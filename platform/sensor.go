package platform

import (
	"github.com/govje/govje-weather/discovery"
	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/mqtt"
)

// Sensor implements the sensor.mqtt platform. Its state has type TValue and its json attributes type TAttributes.
//
// See https://www.home-assistant.io/integrations/sensor.mqtt/.
type Sensor[TValue, TAttributes any] struct {
	// State is the current reading.
	State *mqtt.Value[TValue] `discovery:"required"`

	// Attributes are published as a json object next to the state. Home Assistant refreshes the entity whenever a
	// message arrives on this topic.
	Attributes *mqtt.Value[TAttributes]

	DeviceClass       hass.DeviceClass
	StateClass        hass.StateClass
	UnitOfMeasurement string

	// Options lists the allowed states of an enum sensor. It requires DeviceClass hass.DeviceClassEnum and excludes
	// StateClass and UnitOfMeasurement. Empty lists are omitted.
	Options []string
}

// NewSensor builds a Sensor for state and attributes.
func NewSensor[TValue, TAttributes any](state *mqtt.Value[TValue], attrs *mqtt.Value[TAttributes]) *Sensor[TValue, TAttributes] {
	return &Sensor[TValue, TAttributes]{
		State:      state,
		Attributes: attrs,
	}
}

func (s *Sensor[TValue, TAttributes]) PlatformName() string {
	return "sensor"
}

func (s *Sensor[TValue, TAttributes]) Subscriptions(_ string) []mqtt.Subscription {
	return nil
}

func (s *Sensor[TValue, TAttributes]) ServeMQTT(_ mqtt.Writer, _ string, _ []byte) {}

func (s *Sensor[TValue, TAttributes]) MarshalDiscoveryTo(f *discovery.Fields, prefix string) {
	f.RequiredTopic("state", discovery.FieldStateTopic, s.State, prefix).
		Topic(discovery.FieldAttributesTopic, s.Attributes, prefix).
		Optional(discovery.FieldDeviceClass, s.DeviceClass).
		Optional(discovery.FieldStateClass, s.StateClass).
		Optional(discovery.FieldUnitOfMeasurement, s.UnitOfMeasurement).
		Optional(discovery.FieldOptions, s.Options)
}
