package mqtt

import (
	"fmt"
	"log/slog"
)

// QualityOfService is the delivery guarantee requested from the broker. It implements fmt.Stringer and
// slog.LogValuer.
type QualityOfService uint8

const (
	// QOSAtMostOnce is "fire and forget". This is the default.
	QOSAtMostOnce QualityOfService = iota
	// QOSAtLeastOnce requires a PUBACK from the receiver.
	QOSAtLeastOnce
	// QOSExactlyOnce uses the four-step PUBLISH, PUBREC, PUBREL, PUBCOMP handshake.
	QOSExactlyOnce

	QOSDefault = QOSAtMostOnce
)

func (q QualityOfService) String() string {
	switch q {
	case QOSAtMostOnce:
		return "at most once (0)"
	case QOSAtLeastOnce:
		return "at least once (1)"
	case QOSExactlyOnce:
		return "exactly once (2)"
	default:
		return fmt.Sprintf("invalid (%d)", uint8(q))
	}
}

func (q QualityOfService) LogValue() slog.Value {
	return slog.StringValue(q.String())
}

// Valid reports whether q is one of the three levels defined by MQTT.
func (q QualityOfService) Valid() bool {
	return q <= QOSExactlyOnce
}

// WriteOptions holds options for publishing. The zero value publishes with QoS 0 and no retain. It implements
// slog.LogValuer.
type WriteOptions struct {
	QoS QualityOfService

	// Retain asks the broker to keep the last message for the topic and replay it to new subscribers.
	Retain bool
}

func (w WriteOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", w.QoS),
		slog.Bool("retain", w.Retain),
	)
}

// SubscriptionRetainHandling controls when the broker replays retained messages to a subscription. It implements
// fmt.Stringer and slog.LogValuer.
type SubscriptionRetainHandling uint8

const (
	RetainHandlingSendOnSubscribe SubscriptionRetainHandling = iota
	RetainHandlingSendOnNewSubscribe
	RetainHandlingIgnoreRetained

	RetainHandlingDefault = RetainHandlingSendOnSubscribe
)

func (s SubscriptionRetainHandling) String() string {
	switch s {
	case RetainHandlingSendOnSubscribe:
		return "send on subscribe (0)"
	case RetainHandlingSendOnNewSubscribe:
		return "send on new subscribe (1)"
	case RetainHandlingIgnoreRetained:
		return "ignore retained (2)"
	default:
		return fmt.Sprintf("invalid (%d)", uint8(s))
	}
}

func (s SubscriptionRetainHandling) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// ReadOptions holds options for a subscription. It implements slog.LogValuer.
type ReadOptions struct {
	// QoS is the maximum QoS the broker may use when forwarding messages for this subscription.
	QoS QualityOfService

	// NoLocal stops the broker from echoing messages published by this client.
	NoLocal bool

	// RetainAsPublished keeps the retain flag on forwarded messages instead of clearing it.
	RetainAsPublished bool

	RetainHandling SubscriptionRetainHandling
}

func (r ReadOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", r.QoS),
		slog.Bool("no_local", r.NoLocal),
		slog.Bool("retain_as_published", r.RetainAsPublished),
		slog.Any("retain_handling", r.RetainHandling),
	)
}
