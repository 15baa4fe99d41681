package mqtt

import (
	"context"
	"log/slog"
)

// Subscription is a topic filter plus the options to subscribe with. It implements fmt.Stringer and slog.LogValuer.
type Subscription struct {
	Topic   string
	Options ReadOptions
}

func (s Subscription) String() string {
	return s.Topic
}

func (s Subscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("topic", s.Topic),
		slog.Any("options", s.Options),
	)
}

// Handler is the MQTT counterpart of http.Handler.
//
// Handlers must not block; long-running work belongs on another goroutine. A handler that needs to publish a reply
// uses the provided Writer before returning. Neither the Writer nor the message slice may be retained.
type Handler interface {
	ServeMQTT(w Writer, topic string, message []byte)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(Writer, string, []byte)

func (f HandlerFunc) ServeMQTT(w Writer, topic string, message []byte) {
	f(w, topic, message)
}

// Subscriber manages MQTT subscriptions.
type Subscriber interface {
	// Subscribe routes messages for every provided subscription to handler.
	Subscribe(ctx context.Context, handler Handler, subscriptions ...Subscription) error

	// Unsubscribe removes the subscriptions for the specified topics.
	Unsubscribe(ctx context.Context, topics ...string) error
}
