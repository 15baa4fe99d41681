// Package mqtttest provides an in-memory mqtt.Writer and mqtt.Subscriber for tests.
package mqtttest

import (
	"context"
	"strings"
	"sync"

	"github.com/govje/govje-weather/mqtt"
)

// Message is a single publish recorded by Broker.
type Message struct {
	Topic   string
	Options mqtt.WriteOptions
	Payload []byte
}

// Broker records every publish and routes messages injected with Deliver to subscribed handlers. Topic filters
// support the single-level (+) and multi-level (#) wildcards. The zero value is ready to use.
type Broker struct {
	mu sync.Mutex

	messages []Message
	retained map[string]Message
	handlers map[string]mqtt.Handler

	// Err, when set, is returned from every WriteTopic call and nothing is recorded.
	Err error
}

var _ mqtt.Writer = &Broker{}
var _ mqtt.Subscriber = &Broker{}

func (b *Broker) WriteTopic(_ context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}

	msg := Message{Topic: topic, Options: options, Payload: append([]byte(nil), value...)}
	b.messages = append(b.messages, msg)

	if options.Retain {
		if b.retained == nil {
			b.retained = map[string]Message{}
		}
		b.retained[topic] = msg
	}

	return nil
}

func (b *Broker) Subscribe(_ context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers == nil {
		b.handlers = map[string]mqtt.Handler{}
	}

	for _, s := range subscriptions {
		b.handlers[s.Topic] = handler
	}

	return nil
}

func (b *Broker) Unsubscribe(_ context.Context, topics ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range topics {
		delete(b.handlers, t)
	}

	return nil
}

// Deliver hands payload to every handler whose filter matches topic, as if another client had published it.
func (b *Broker) Deliver(topic string, payload []byte) {
	b.mu.Lock()
	var targets []mqtt.Handler
	for filter, h := range b.handlers {
		if Match(filter, topic) {
			targets = append(targets, h)
		}
	}
	b.mu.Unlock()

	for _, h := range targets {
		h.ServeMQTT(b, topic, payload)
	}
}

// Subscribed reports whether any subscription filter matches topic.
func (b *Broker) Subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for filter := range b.handlers {
		if Match(filter, topic) {
			return true
		}
	}

	return false
}

// Messages returns a copy of every recorded publish in order.
func (b *Broker) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Message(nil), b.messages...)
}

// Last returns the most recent payload published to topic.
func (b *Broker) Last(topic string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.messages) - 1; i >= 0; i-- {
		if b.messages[i].Topic == topic {
			return string(b.messages[i].Payload), true
		}
	}

	return "", false
}

// Retained returns the retained message for topic.
func (b *Broker) Retained(topic string) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.retained[topic]
	return m, ok
}

// Reset forgets every recorded publish. Subscriptions are kept.
func (b *Broker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = nil
}

// Match reports whether topic matches the MQTT topic filter.
func Match(filter, topic string) bool {
	fp := strings.Split(filter, mqtt.TopicSeparator)
	tp := strings.Split(topic, mqtt.TopicSeparator)

	for i, f := range fp {
		if f == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if f != "+" && f != tp[i] {
			return false
		}
	}

	return len(fp) == len(tp)
}
