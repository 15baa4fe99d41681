// Command govje-weather publishes the Government of Jersey weather forecast to Home Assistant over MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	govje "github.com/govje/govje-weather"
	"github.com/govje/govje-weather/api"
	"github.com/govje/govje-weather/config"
	"github.com/govje/govje-weather/coordinator"
	"github.com/govje/govje-weather/forecast"
	govjelog "github.com/govje/govje-weather/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	h, err := govjelog.NewHandler(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	govjelog.To(h)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err = run(ctx, cfg); err != nil {
		govjelog.ForComponent("main").With(govjelog.Error(err)).Error("Exiting")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := govjelog.ForComponent("main")
	log.Info("Starting Up")

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}

	configurationURL, err := cfg.ConfigurationURL()
	if err != nil {
		return fmt.Errorf("configuration url: %w", err)
	}

	if cfg.Remove {
		return remove(ctx, cfg, configurationURL)
	}

	client := forecast.NewClient(forecast.ClientConfig{
		URL:     cfg.Feed.URL,
		Timeout: cfg.Feed.Timeout,
	})

	c, err := coordinator.New("govje", client.Fetch, cfg.ScanInterval())
	if err != nil {
		return err
	}

	log.With(slog.String("url", client.URL())).Info("Fetching forecast")
	if err = c.FirstRefresh(ctx); err != nil {
		return err
	}

	if err = c.Start(); err != nil {
		return err
	}
	defer c.Stop()

	bridge := govje.New(c, bridgeConfig(cfg, configurationURL, loc))

	mqttClient, err := configureMQTT(ctx, cfg, bridge.AvailabilityTopic())
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		log.Info("Disconnecting from mqtt")
		if err := mqttClient.Disconnect(shutdownCtx); err != nil {
			log.With(govjelog.Error(err)).Error("Failed to disconnect from mqtt")
		}
	}()

	if err = bridge.Start(ctx, mqttClient, mqttClient); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := bridge.Stop(shutdownCtx); err != nil {
			log.With(govjelog.Error(err)).Error("Failed to mark entities unavailable")
		}
	}()

	if cfg.HTTP.Listen != "" {
		serveAPI(ctx, cfg.HTTP.Listen, c, bridge, loc)
	}

	<-ctx.Done()
	log.Info("Goodbye!")
	return nil
}

// remove deletes the device and its retained state from the broker. It never fetches the forecast.
func remove(ctx context.Context, cfg *config.Config, configurationURL *url.URL) error {
	bridge := govje.New(nil, bridgeConfig(cfg, configurationURL, nil))

	mqttClient, err := configureMQTT(ctx, cfg, bridge.AvailabilityTopic())
	if err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(
		bridge.Remove(ctx, mqttClient),
		mqttClient.Disconnect(shutdownCtx),
	)
}

func bridgeConfig(cfg *config.Config, configurationURL *url.URL, loc *time.Location) govje.Config {
	return govje.Config{
		Name:             cfg.Device.Name,
		TopicPrefix:      cfg.MQTT.TopicPrefix,
		DiscoveryPrefix:  cfg.MQTT.DiscoveryPrefix,
		RainThreshold:    cfg.Device.RainThreshold,
		ConfigurationURL: configurationURL,
		Location:         loc,
	}
}

// serveAPI listens on addr until ctx is done.
func serveAPI(ctx context.Context, addr string, status api.Status, readings api.Readings, loc *time.Location) {
	log := govjelog.ForComponent("api")
	app := api.New(status, readings, func() time.Time { return time.Now().In(loc) })

	go func() {
		log.With(slog.String("addr", addr)).Info("Serving status api")
		if err := app.Listen(addr); err != nil {
			log.With(govjelog.Error(err)).Error("Status api stopped")
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.With(govjelog.Error(err)).Error("Failed to stop status api")
		}
	}()
}
