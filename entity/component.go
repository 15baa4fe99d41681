package entity

import (
	"context"
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"log/slog"

	"github.com/govje/govje-weather/discovery"
	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/log"
	"github.com/govje/govje-weather/mqtt"
)

// ErrComponentAlreadySubscribed is returned by Component.Subscribe when called twice without Unsubscribe in between.
var ErrComponentAlreadySubscribed = errors.New("component already subscribed")

// Component is one Home Assistant entity belonging to a Device. All of its topics live below TopicPrefix, which is
// also sent as the discovery base topic. It implements json.MarshalerTo by encoding its entry in the device's
// discovery payload.
type Component[TPlatform Platform] struct {
	Platform    TPlatform
	TopicPrefix string

	// Name of the entity. Empty means Home Assistant uses the device name alone.
	Name string

	UniqueID        string `discovery:"required"`
	DefaultEntityID string

	EntityCategory hass.EntityCategory
	Icon           string

	// Availability is written online after a successful refresh and offline after a failed one.
	Availability *mqtt.Value[hass.Availability] `discovery:"required"`

	// QoS is used by Home Assistant for the command topic and for its subscriptions to our topics.
	QoS mqtt.QualityOfService

	subscribedTopics []string
}

// Subscribe registers the platform's command topics with s. Messages are passed to the platform with the topic made
// relative to TopicPrefix.
func (c *Component[TPlatform]) Subscribe(ctx context.Context, s mqtt.Subscriber) error {
	if len(c.subscribedTopics) != 0 {
		return ErrComponentAlreadySubscribed
	}

	subscriptions := c.Platform.Subscriptions(c.TopicPrefix)
	if len(subscriptions) == 0 {
		return nil
	}

	topics := make([]string, len(subscriptions))
	for i, s := range subscriptions {
		topics[i] = s.Topic
	}

	l := log.ForComponent("entity").With(slog.String("unique_id", c.UniqueID))
	err := s.Subscribe(ctx, mqtt.HandlerFunc(func(w mqtt.Writer, topic string, payload []byte) {
		rest, ok := mqtt.CutTopicPrefix(topic, c.TopicPrefix)
		if !ok {
			l.With(slog.String("topic", topic)).Debug("Ignoring message outside of component prefix")
			return
		}

		c.Platform.ServeMQTT(w, rest, payload)
	}), subscriptions...)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.UniqueID, err)
	}

	c.subscribedTopics = topics
	return nil
}

// Unsubscribe removes the subscriptions added by Subscribe.
func (c *Component[TPlatform]) Unsubscribe(ctx context.Context, s mqtt.Subscriber) error {
	if len(c.subscribedTopics) == 0 {
		return nil
	}

	topics := c.subscribedTopics
	c.subscribedTopics = nil

	return s.Unsubscribe(ctx, topics...)
}

func (c *Component[TPlatform]) MarshalJSONTo(e *jsontext.Encoder) error {
	if err := e.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}

	f := discovery.NewFields(e).
		Base(c.TopicPrefix).
		Required("platform", discovery.FieldPlatform, c.Platform.PlatformName())

	if c.Name == "" {
		f.Null(discovery.FieldName)
	} else {
		f.Optional(discovery.FieldName, c.Name)
	}

	f.Required("unique id", discovery.FieldUniqueID, c.UniqueID).
		Optional(discovery.FieldDefaultEntityID, c.DefaultEntityID).
		Optional(discovery.FieldEntityCategory, c.EntityCategory).
		Optional(discovery.FieldIcon, c.Icon).
		RequiredTopic("availability", discovery.FieldAvailabilityTopic, c.Availability, c.TopicPrefix).
		Optional(discovery.FieldQualityOfService, c.QoS)

	c.Platform.MarshalDiscoveryTo(f, c.TopicPrefix)

	if err := f.Err(); err != nil {
		return fmt.Errorf("%s: %w", c.UniqueID, err)
	}

	return e.WriteToken(jsontext.EndObject)
}
