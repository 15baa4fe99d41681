// Package autopaho implements mqtt.Writer and mqtt.Subscriber on top of the eclipse paho autopaho connection
// manager, which reconnects on its own.
package autopaho

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/govje/govje-weather/log"
	"github.com/govje/govje-weather/mqtt"
)

// Client is a connected autopaho session. The broker may forget our session while we are away, so every active
// subscription is kept and sent again once the connection comes back.
type Client struct {
	mu sync.Mutex

	conn   *autopaho.ConnectionManager
	router *paho.StandardRouter

	// active subscriptions by topic filter
	active map[string]paho.SubscribeOptions

	log *slog.Logger
}

var _ mqtt.Writer = &Client{}
var _ mqtt.Subscriber = &Client{}

// Will is the retained last-will message for topic. Set it as autopaho.ClientConfig.WillMessage.
func Will(topic string, payload []byte) *paho.WillMessage {
	return &paho.WillMessage{
		Retain:  true,
		QoS:     uint8(mqtt.QOSAtLeastOnce),
		Topic:   topic,
		Payload: payload,
	}
}

// DialMQTT starts the connection manager for config and blocks until the broker accepts us or ctx is done.
func DialMQTT(ctx context.Context, config autopaho.ClientConfig) (*Client, error) {
	c := &Client{
		router: paho.NewStandardRouter(),
		active: map[string]paho.SubscribeOptions{},

		log: log.ForComponent("mqtt.autopaho"),
	}

	next := config.OnConnectionUp
	config.OnConnectionUp = func(cm *autopaho.ConnectionManager, ack *paho.Connack) {
		c.restore(ctx)

		if next != nil {
			next(cm, ack)
		}
	}

	// restore runs from OnConnectionUp and needs c.conn, which is only known once NewConnection returns
	c.mu.Lock()
	c.log.Debug("Dialing broker")
	conn, err := autopaho.NewConnection(ctx, config)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}

	c.conn = conn
	c.mu.Unlock()

	if err = conn.AwaitConnection(ctx); err != nil {
		return nil, fmt.Errorf("mqtt: wait for connection: %w", err)
	}

	conn.AddOnPublishReceived(func(rx autopaho.PublishReceived) (bool, error) {
		c.router.Route(rx.Packet.Packet())
		return true, nil
	})

	c.log.Debug("Broker session ready")
	return c, nil
}

func (c *Client) restore(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.active) == 0 {
		return
	}

	filters := slices.Sorted(maps.Keys(c.active))
	sub := &paho.Subscribe{Subscriptions: make([]paho.SubscribeOptions, len(filters))}
	for i, f := range filters {
		sub.Subscriptions[i] = c.active[f]
	}

	c.log.Debug("Restoring subscriptions", slog.Any("topics", filters))
	if _, err := c.conn.Subscribe(ctx, sub); err != nil {
		c.log.Error("Could not restore subscriptions", slog.Any("topics", filters), log.Error(err))
	}
}

func subscribeOptions(s mqtt.Subscription) paho.SubscribeOptions {
	return paho.SubscribeOptions{
		Topic:             s.Topic,
		QoS:               uint8(s.Options.QoS),
		RetainHandling:    uint8(s.Options.RetainHandling),
		NoLocal:           s.Options.NoLocal,
		RetainAsPublished: s.Options.RetainAsPublished,
	}
}

func (c *Client) WriteTopic(ctx context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	c.log.Debug(
		"Sending message",
		slog.String("topic", topic),
		slog.Any("options", options),
		slog.Int("bytes", len(value)),
	)

	_, err := c.conn.Publish(ctx, &paho.Publish{
		QoS:     uint8(options.QoS),
		Retain:  options.Retain,
		Topic:   topic,
		Payload: value,
	})

	return err
}

func (c *Client) Subscribe(ctx context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	if len(subscriptions) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	route := func(p *paho.Publish) {
		handler.ServeMQTT(c, p.Topic, p.Payload)
	}

	sub := &paho.Subscribe{}
	for _, s := range subscriptions {
		opts := subscribeOptions(s)

		c.active[s.Topic] = opts
		c.router.RegisterHandler(s.Topic, route)
		sub.Subscriptions = append(sub.Subscriptions, opts)
	}

	c.log.Debug("Adding subscriptions", slog.Any("subscriptions", subscriptions))
	_, err := c.conn.Subscribe(ctx, sub)
	return err
}

func (c *Client) Unsubscribe(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range topics {
		delete(c.active, t)
		c.router.UnregisterHandler(t)
	}

	c.log.Debug("Dropping subscriptions", slog.Any("topics", topics))
	_, err := c.conn.Unsubscribe(ctx, &paho.Unsubscribe{Topics: topics})
	return err
}

// Disconnect closes the session cleanly. The broker discards the will.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.conn.Disconnect(ctx)
}
