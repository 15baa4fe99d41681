package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoMarshaler is the error returned by Value.Write when the Value was built without a ValueMarshaler.
var ErrNoMarshaler = errors.New("no marshaler configured")

// Value is a piece of state this process owns and publishes to a topic relative to a component prefix.
type Value[T any] struct {
	topic     string
	marshaler ValueMarshaler[T]
	opts      WriteOptions

	mu sync.Mutex
	v  T
}

// NewValue builds a Value for topic that publishes with default WriteOptions.
func NewValue[T any](topic string, marshal ValueMarshaler[T]) *Value[T] {
	return NewValueWithOptions(topic, marshal, WriteOptions{})
}

// NewValueWithOptions builds a Value for topic that publishes with opts.
func NewValueWithOptions[T any](topic string, marshal ValueMarshaler[T], opts WriteOptions) *Value[T] {
	return &Value[T]{
		topic:     topic,
		marshaler: marshal,
		opts:      opts,
	}
}

// FullyQualifiedTopic joins prefix with the topic of this Value. A nil Value has no topic and yields the empty string.
func (v *Value[T]) FullyQualifiedTopic(prefix string) string {
	if v == nil {
		return ""
	}

	return JoinTopic(prefix, v.topic)
}

// Write marshals newValue and publishes it under prefix. It returns the value now on the broker: newValue, or the
// previous value when publishing fails.
func (v *Value[T]) Write(ctx context.Context, w Writer, prefix string, newValue T) (T, error) {
	if v.marshaler == nil {
		return newValue, ErrNoMarshaler
	}

	data, err := v.marshaler(newValue)
	if err != nil {
		return newValue, fmt.Errorf("marshal %s: %w", v.topic, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err = w.WriteTopic(ctx, JoinTopic(prefix, v.topic), v.opts, data); err != nil {
		return v.v, fmt.Errorf("publish %s: %w", v.topic, err)
	}

	v.v = newValue
	return v.v, nil
}
