// Package platform implements the Home Assistant MQTT platforms the bridge publishes: sensor, binary_sensor and
// number. See https://www.home-assistant.io/integrations/mqtt for the full list Home Assistant supports.
//
// Each type satisfies entity.Platform; PlatformName returns the Home Assistant platform name. Fields Home Assistant
// requires are tagged `discovery:"required"` and checked when the discovery payload is marshaled.
package platform
