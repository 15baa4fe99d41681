// Package discovery builds Home Assistant MQTT Device Discovery payloads. Field constants use the abbreviated names
// Home Assistant accepts, which keeps the retained discovery messages small.
//
// See https://www.home-assistant.io/integrations/mqtt/#supported-abbreviations-in-mqtt-discovery-messages for the
// full list. Only the abbreviations the bridge emits are defined here.
package discovery
