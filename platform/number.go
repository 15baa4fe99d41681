package platform

import (
	"log/slog"

	"github.com/govje/govje-weather/discovery"
	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/log"
	"github.com/govje/govje-weather/mqtt"
)

// NumberMode selects the input Home Assistant renders for a Number. Empty lets Home Assistant choose.
type NumberMode string

// NumberModeBox renders a text box, which suits ranges too wide for a slider.
const NumberModeBox NumberMode = "box"

// Number implements the number.mqtt platform: a value Home Assistant can change by publishing to Command. The
// platform only routes commands; whoever watches Command decides whether to accept the value and write State.
//
// See https://www.home-assistant.io/integrations/number.mqtt/.
type Number[T any] struct {
	State   *mqtt.Value[T]
	Command *mqtt.RemoteValue[T] `discovery:"required"`

	Min, Max, Step float64
	Mode           NumberMode

	DeviceClass       hass.DeviceClass
	UnitOfMeasurement string
}

func (n *Number[T]) PlatformName() string {
	return "number"
}

func (n *Number[T]) Subscriptions(prefix string) []mqtt.Subscription {
	return n.Command.AppendSubscription(nil, prefix)
}

// ServeMQTT passes payloads for the command topic (relative to the component prefix) to Command.
func (n *Number[T]) ServeMQTT(w mqtt.Writer, topic string, payload []byte) {
	if topic != n.Command.FullyQualifiedTopic("") {
		log.ForComponent("platform.number").With(slog.String("topic", topic)).Debug("Ignoring message for unknown topic")
		return
	}

	n.Command.ServeMQTT(w, topic, payload)
}

func (n *Number[T]) MarshalDiscoveryTo(f *discovery.Fields, prefix string) {
	f.RequiredTopic("command", discovery.FieldCommandTopic, n.Command, prefix).
		Topic(discovery.FieldStateTopic, n.State, prefix).
		Value(discovery.FieldMin, n.Min).
		Value(discovery.FieldMax, n.Max).
		Optional(discovery.FieldStep, n.Step).
		Optional(discovery.FieldMode, n.Mode).
		Optional(discovery.FieldDeviceClass, n.DeviceClass).
		Optional(discovery.FieldUnitOfMeasurement, n.UnitOfMeasurement)
}
