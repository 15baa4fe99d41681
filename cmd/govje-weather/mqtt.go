package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"github.com/govje/govje-weather/config"
	"github.com/govje/govje-weather/hass"
	govjelog "github.com/govje/govje-weather/log"
	adapter "github.com/govje/govje-weather/mqtt/adapter/autopaho"
)

func configureMQTT(ctx context.Context, cfg *config.Config, availabilityTopic string) (*adapter.Client, error) {
	log := govjelog.ForComponent("mqtt")

	brokerURL, err := cfg.BrokerURL()
	if err != nil {
		return nil, fmt.Errorf("mqtt: broker url: %w", err)
	}

	clientID := cfg.MQTT.ClientID
	if clientID == "" {
		clientID = "govje-weather-" + uuid.NewString()
	}

	will, err := hass.AvailabilityMarshaler(hass.Unavailable)
	if err != nil {
		return nil, err
	}

	mqttConfig := autopaho.ClientConfig{
		ServerUrls: []*url.URL{brokerURL},
		KeepAlive:  cfg.MQTT.KeepAlive,

		// Seconds that a session survives a disconnect. Queued messages are lost once it expires.
		SessionExpiryInterval: 60,

		ConnectUsername: cfg.MQTT.Username,
		ConnectPassword: []byte(cfg.MQTT.Password),

		// The broker marks every entity unavailable if we vanish without a clean disconnect.
		WillMessage: adapter.Will(availabilityTopic, will),

		OnConnectionUp: func(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
			log.Info("mqtt connected")
		},
		OnConnectError: func(err error) {
			log.With(govjelog.Error(err)).Error("mqtt connection error")
		},

		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			OnClientError: func(err error) {
				log.With(govjelog.Error(err)).Error("mqtt client error")
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				log := log.With(slog.Int("reason", int(d.ReasonCode)))

				if d.Properties != nil {
					log = log.With(
						slog.Group(
							"properties",
							slog.String("reference", d.Properties.ServerReference),
							slog.String("reason", d.Properties.ReasonString),
							slog.Any("user", d.Properties.User),
						),
					)
				}

				log.Warn("Disconnected from server")
			},
		},
	}

	log.With(slog.String("broker", brokerURL.Redacted()), slog.String("client", clientID)).Info("Connecting to mqtt")
	c, err := adapter.DialMQTT(ctx, mqttConfig)
	if err != nil {
		return nil, err
	}

	log.With(slog.String("broker", brokerURL.Redacted())).Info("Connected to mqtt")
	return c, nil
}
