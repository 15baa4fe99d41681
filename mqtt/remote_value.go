package mqtt

import (
	"log/slog"
	"sync"

	"github.com/govje/govje-weather/log"
)

// RemoteValue is a piece of state owned by someone else (usually Home Assistant) that this process learns about by
// subscribing to its topic.
type RemoteValue[T any] struct {
	topic       string
	unmarshaler ValueUnmarshaler[T]
	opts        ReadOptions

	mu       sync.RWMutex
	watchers map[int]func(T)
	nextID   int

	log *slog.Logger
}

// NewRemoteValue builds a RemoteValue for topic using default ReadOptions.
func NewRemoteValue[T any](topic string, unmarshaler ValueUnmarshaler[T]) *RemoteValue[T] {
	return NewRemoteValueWithOptions(topic, unmarshaler, ReadOptions{})
}

// NewRemoteValueWithOptions builds a RemoteValue for topic using opts.
func NewRemoteValueWithOptions[T any](topic string, unmarshaler ValueUnmarshaler[T], opts ReadOptions) *RemoteValue[T] {
	return &RemoteValue[T]{
		topic:       topic,
		unmarshaler: unmarshaler,
		opts:        opts,
		watchers:    map[int]func(T){},

		log: log.ForComponent("mqtt.value.remote").With(slog.String("topic", topic)),
	}
}

// ServeMQTT implements Handler. Messages for other topics are ignored. Payloads that fail to decode are logged and
// dropped without notifying watchers.
func (v *RemoteValue[T]) ServeMQTT(_ Writer, topic string, payload []byte) {
	if v == nil || TrimTopic(topic) != TrimTopic(v.topic) {
		return
	}

	parsed, err := v.unmarshaler(payload)
	if err != nil {
		v.log.With(log.Error(err), slog.String("payload", string(payload))).Warn("Failed to unmarshal payload from mqtt")
		return
	}

	v.mu.RLock()
	watchers := make([]func(T), 0, len(v.watchers))
	for _, w := range v.watchers {
		watchers = append(watchers, w)
	}
	v.mu.RUnlock()

	v.log.With(slog.Any("v", parsed), slog.Int("watchers", len(watchers))).Debug("Received new value from mqtt")
	for _, w := range watchers {
		w(parsed)
	}
}

// FullyQualifiedTopic joins prefix with the topic of this RemoteValue. A nil RemoteValue yields the empty string.
func (v *RemoteValue[T]) FullyQualifiedTopic(prefix string) string {
	if v == nil {
		return ""
	}

	return JoinTopic(prefix, v.topic)
}

// AppendSubscription appends the Subscription for this RemoteValue under prefix to existing. Nil values and values
// without a topic leave existing untouched.
func (v *RemoteValue[T]) AppendSubscription(existing []Subscription, prefix string) []Subscription {
	if v == nil || v.topic == "" {
		return existing
	}

	return append(existing, Subscription{
		Topic:   v.FullyQualifiedTopic(prefix),
		Options: v.opts,
	})
}

// Watch registers callback to run with every decoded message and returns an id for Unwatch. Callbacks run on the
// delivering goroutine and must not block.
func (v *RemoteValue[T]) Watch(callback func(T)) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.watchers[id] = callback

	return id
}

// Unwatch removes the callback registered under id.
func (v *RemoteValue[T]) Unwatch(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.watchers[id]; !ok {
		v.log.With(slog.Int("id", id)).Warn("Tried to remove an unknown watcher")
		return
	}

	delete(v.watchers, id)
}
