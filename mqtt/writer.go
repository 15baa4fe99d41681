package mqtt

import (
	"context"
)

// Writer is the minimum abstraction around publishing to MQTT.
type Writer interface {
	// WriteTopic publishes value to topic with the specified WriteOptions.
	WriteTopic(ctx context.Context, topic string, options WriteOptions, value []byte) error
}

// Error discards the first result of a call such as Value.Write so several writes can be combined with errors.Join.
func Error[T any](_ T, err error) error {
	return err
}
