package discovery

import (
	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/mqtt"
)

const (
	// DefaultPrefix is the topic prefix Home Assistant watches for discovery payloads.
	DefaultPrefix = "homeassistant"
	// StatusTopic is where Home Assistant announces its own availability, relative to the discovery prefix.
	StatusTopic = "status"
)

// HomeAssistantAvailability returns a RemoteValue tracking Home Assistant's birth and last-will messages. A transition
// to hass.Available means Home Assistant (re)started and discovery has to be sent again.
//
// See https://www.home-assistant.io/integrations/mqtt/#birth-and-last-will-messages.
func HomeAssistantAvailability(discoveryPrefix string) *mqtt.RemoteValue[hass.Availability] {
	return mqtt.NewRemoteValueWithOptions(
		mqtt.JoinTopic(discoveryPrefix, StatusTopic),
		hass.AvailabilityUnmarshaler,
		mqtt.ReadOptions{QoS: mqtt.QOSAtLeastOnce},
	)
}

// DeviceConfigTopic is where the discovery payload for the device with the given id is published.
func DeviceConfigTopic(discoveryPrefix, deviceID string) string {
	return mqtt.JoinTopic(discoveryPrefix, "device", deviceID, "config")
}
