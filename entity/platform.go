package entity

import (
	"github.com/govje/govje-weather/discovery"
	"github.com/govje/govje-weather/mqtt"
)

// Platform is implemented by every Home Assistant MQTT platform the bridge publishes (sensor, binary_sensor, number).
type Platform interface {
	mqtt.Handler

	// MarshalDiscoveryTo writes the platform specific discovery fields for a component rooted at prefix.
	MarshalDiscoveryTo(f *discovery.Fields, prefix string)

	// PlatformName is the value of the `platform` discovery field.
	PlatformName() string

	// Subscriptions lists the command topics the platform listens on, if any.
	Subscriptions(prefix string) []mqtt.Subscription
}
