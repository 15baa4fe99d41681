package govje

import (
	"cmp"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/govje/govje-weather/discovery"
	"github.com/govje/govje-weather/entity"
	"github.com/govje/govje-weather/forecast"
	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/log"
	"github.com/govje/govje-weather/mqtt"
	"github.com/govje/govje-weather/platform"
	"github.com/govje/govje-weather/sensors"
)

const (
	DefaultName          = "GOV.JE Weather"
	DefaultTopicPrefix   = "govje"
	DefaultRainThreshold = 50

	Manufacturer = "Government of Jersey"
	Model        = "Weather Forecast"

	// AvailabilityTopic is shared by every entity of the bridge, relative to the topic prefix.
	AvailabilityTopic = "availability"

	publishTimeout = 30 * time.Second
)

// ErrAlreadyStarted is returned by Bridge.Start when called twice.
var ErrAlreadyStarted = errors.New("bridge already started")

// Source is the forecast data a Bridge publishes. *coordinator.Coordinator[*forecast.Report] implements it.
type Source interface {
	Data() (*forecast.Report, bool)
	LastUpdateSuccess() bool
	AddListener(fn func()) (remove func())
	Interval() time.Duration
	SetInterval(d time.Duration) error
}

// Config describes the Home Assistant device. Zero fields take their defaults.
type Config struct {
	// Name of the device. Defaults to DefaultName.
	Name string
	// TopicPrefix holds every state topic. Defaults to DefaultTopicPrefix.
	TopicPrefix string
	// DiscoveryPrefix defaults to discovery.DefaultPrefix.
	DiscoveryPrefix string

	// RainThreshold is the rain probability, in percent, from which rain is expected. Zero means
	// DefaultRainThreshold.
	RainThreshold int

	// ConfigurationURL is linked from the device page.
	ConfigurationURL *url.URL

	// Location defaults to forecast.TimeZone.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

type sensorEntity struct {
	description sensors.Description
	component   *entity.Component[*platform.Sensor[hass.SensorState, sensors.Attributes]]
}

// Bridge publishes a Source to Home Assistant as one device with a sensor per sensors.Description, a binary sensor
// telling whether rain is expected, and a number controlling the update interval.
type Bridge struct {
	cfg    Config
	source Source

	device       *entity.Device
	availability *mqtt.Value[hass.Availability]
	sensors      []sensorEntity
	rain         *entity.Component[*platform.BinarySensor[sensors.Attributes]]
	interval     *entity.Component[*platform.Number[uint]]
	haStatus     *mqtt.RemoteValue[hass.Availability]

	// publishing is serialized so states from two refreshes never interleave
	publishMu sync.Mutex

	mu             sync.Mutex
	w              mqtt.Writer
	s              mqtt.Subscriber
	removeListener func()
	statusWatch    int
	commandWatch   int

	log *slog.Logger
}

// New builds the entities for source. source may be nil when the Bridge is only used to Remove the device.
func New(source Source, cfg Config) *Bridge {
	cfg.Name = cmp.Or(cfg.Name, DefaultName)
	cfg.TopicPrefix = mqtt.TrimTopic(cmp.Or(cfg.TopicPrefix, DefaultTopicPrefix))
	cfg.DiscoveryPrefix = cmp.Or(cfg.DiscoveryPrefix, discovery.DefaultPrefix)
	cfg.RainThreshold = cmp.Or(cfg.RainThreshold, DefaultRainThreshold)
	if cfg.Location == nil {
		cfg.Location = forecast.TimeZone
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	b := &Bridge{
		cfg:    cfg,
		source: source,

		device: &entity.Device{
			DiscoveryID:      discovery.IDSanitizer.Replace(cfg.TopicPrefix),
			Name:             cfg.Name,
			Manufacturer:     Manufacturer,
			Model:            Model,
			SoftwareVersion:  entity.DefaultOrigin.SoftwareVersion,
			Identifiers:      []string{cfg.Name},
			ConfigurationURL: cfg.ConfigurationURL,
		},
		availability: mqtt.NewValueWithOptions(AvailabilityTopic, hass.AvailabilityMarshaler, mqtt.WriteOptions{
			QoS:    mqtt.QOSAtLeastOnce,
			Retain: true,
		}),
		haStatus: discovery.HomeAssistantAvailability(cfg.DiscoveryPrefix),

		log: log.ForComponent("bridge"),
	}

	for _, d := range sensors.Descriptions {
		p := platform.NewSensor(
			mqtt.NewValue(mqtt.JoinTopic(d.Key, "state"), hass.SensorStateMarshaler),
			mqtt.NewValue(mqtt.JoinTopic(d.Key, "attributes"), sensors.AttributesMarshaler),
		)
		p.DeviceClass = d.DeviceClass
		p.StateClass = d.StateClass
		p.UnitOfMeasurement = d.Unit
		p.Options = d.Options

		b.sensors = append(b.sensors, sensorEntity{
			description: d,
			component: &entity.Component[*platform.Sensor[hass.SensorState, sensors.Attributes]]{
				Platform:        p,
				TopicPrefix:     cfg.TopicPrefix,
				Name:            d.Name,
				UniqueID:        d.UniqueID(),
				DefaultEntityID: "sensor." + d.UniqueID(),
				Icon:            d.Icon,
				Availability:    b.availability,
			},
		})
	}

	rainID := sensors.UniqueIDPrefix + "rain_expected"
	b.rain = &entity.Component[*platform.BinarySensor[sensors.Attributes]]{
		Platform: platform.NewBinarySensor(
			mqtt.NewValue(mqtt.JoinTopic("rain_expected", "state"), hass.PowerStateMarshaler),
			mqtt.NewValue(mqtt.JoinTopic("rain_expected", "attributes"), sensors.AttributesMarshaler),
		),
		TopicPrefix:     cfg.TopicPrefix,
		Name:            "GOV.JE Rain Expected",
		UniqueID:        rainID,
		DefaultEntityID: "binary_sensor." + rainID,
		Icon:            "mdi:weather-pouring",
		Availability:    b.availability,
	}

	intervalID := sensors.UniqueIDPrefix + "scan_interval"
	b.interval = &entity.Component[*platform.Number[uint]]{
		Platform: &platform.Number[uint]{
			State: mqtt.NewValueWithOptions(mqtt.JoinTopic("scan_interval", "state"), mqtt.UintMarshaler, mqtt.WriteOptions{
				QoS:    mqtt.QOSAtLeastOnce,
				Retain: true,
			}),
			Command:           mqtt.NewRemoteValue(mqtt.JoinTopic("scan_interval", "set"), mqtt.UintUnmarshaler),
			Min:               5,
			Max:               1440,
			Step:              1,
			Mode:              platform.NumberModeBox,
			DeviceClass:       hass.DeviceClassDuration,
			UnitOfMeasurement: hass.UnitMinutes,
		},
		TopicPrefix:     cfg.TopicPrefix,
		Name:            "GOV.JE Scan Interval",
		UniqueID:        intervalID,
		DefaultEntityID: "number." + intervalID,
		EntityCategory:  hass.EntityCategoryConfig,
		Icon:            "mdi:timer-cog-outline",
		Availability:    b.availability,
		QoS:             mqtt.QOSAtLeastOnce,
	}

	return b
}

// Device returns the Home Assistant device the entities belong to.
func (b *Bridge) Device() *entity.Device {
	return b.device
}

// AvailabilityTopic returns the fully qualified availability topic, for use as the MQTT last will.
func (b *Bridge) AvailabilityTopic() string {
	return b.availability.FullyQualifiedTopic(b.cfg.TopicPrefix)
}

// Components returns the discovery entry of every entity, keyed by unique id.
func (b *Bridge) Components() map[string]json.MarshalerTo {
	out := make(map[string]json.MarshalerTo, len(b.sensors)+2)
	for _, s := range b.sensors {
		out[s.component.UniqueID] = s.component
	}

	out[b.rain.UniqueID] = b.rain
	out[b.interval.UniqueID] = b.interval

	return out
}

// Start sends discovery, publishes the current data, and keeps publishing after every refresh of the source and
// every time Home Assistant comes back online. When Start fails nothing stays attached and it may be called again.
func (b *Bridge) Start(ctx context.Context, w mqtt.Writer, s mqtt.Subscriber) error {
	b.mu.Lock()
	if b.w != nil {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.w, b.s = w, s
	b.mu.Unlock()

	b.statusWatch = b.haStatus.Watch(b.onHomeAssistantStatus)
	b.commandWatch = b.interval.Platform.Command.Watch(b.onIntervalCommand)

	if err := b.attach(ctx, s); err != nil {
		b.detach(ctx, s)
		return err
	}

	remove := b.source.AddListener(func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := b.Publish(ctx); err != nil {
			b.log.Error("Failed to publish forecast", log.Error(err))
		}
	})

	b.mu.Lock()
	b.removeListener = remove
	b.mu.Unlock()

	b.log.Info("Bridge started", slog.String("device", b.device.ID()), slog.Int("entities", len(b.sensors)+2))
	return nil
}

func (b *Bridge) attach(ctx context.Context, s mqtt.Subscriber) error {
	if err := s.Subscribe(ctx, b.haStatus, b.haStatus.AppendSubscription(nil, "")...); err != nil {
		return fmt.Errorf("subscribe to home assistant status: %w", err)
	}

	if err := b.interval.Subscribe(ctx, s); err != nil {
		return err
	}

	if err := b.Rediscover(ctx); err != nil {
		return err
	}

	return b.Publish(ctx)
}

// detach undoes a failed Start.
func (b *Bridge) detach(ctx context.Context, s mqtt.Subscriber) {
	b.haStatus.Unwatch(b.statusWatch)
	b.interval.Platform.Command.Unwatch(b.commandWatch)

	err := errors.Join(
		s.Unsubscribe(ctx, b.haStatus.FullyQualifiedTopic("")),
		b.interval.Unsubscribe(ctx, s),
	)
	if err != nil {
		b.log.Warn("Failed to drop subscriptions after failed start", log.Error(err))
	}

	b.mu.Lock()
	b.w, b.s = nil, nil
	b.mu.Unlock()
}

// Stop detaches from the source and Home Assistant and marks every entity unavailable.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	w, s, remove := b.w, b.s, b.removeListener
	b.w, b.s, b.removeListener = nil, nil, nil
	b.mu.Unlock()

	if w == nil {
		return nil
	}

	if remove != nil {
		remove()
	}

	b.haStatus.Unwatch(b.statusWatch)
	b.interval.Platform.Command.Unwatch(b.commandWatch)

	b.log.Info("Marking entities unavailable")
	return errors.Join(
		s.Unsubscribe(ctx, b.haStatus.FullyQualifiedTopic("")),
		b.interval.Unsubscribe(ctx, s),
		mqtt.Error(b.availability.Write(ctx, w, b.cfg.TopicPrefix, hass.Unavailable)),
	)
}

// Remove deletes the device from Home Assistant and clears the retained availability and interval state. It does not
// need Start.
func (b *Bridge) Remove(ctx context.Context, w mqtt.Writer) error {
	b.log.Info("Removing device from Home Assistant", slog.String("device", b.device.ID()))

	retained := mqtt.WriteOptions{QoS: mqtt.QOSAtLeastOnce, Retain: true}
	return errors.Join(
		b.device.Remove(ctx, w, b.cfg.DiscoveryPrefix),
		w.WriteTopic(ctx, b.availability.FullyQualifiedTopic(b.cfg.TopicPrefix), retained, nil),
		w.WriteTopic(ctx, b.interval.Platform.State.FullyQualifiedTopic(b.cfg.TopicPrefix), retained, nil),
	)
}

func (b *Bridge) writer() mqtt.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.w
}

// Rediscover sends the discovery payload of the device.
func (b *Bridge) Rediscover(ctx context.Context) error {
	w := b.writer()
	if w == nil {
		return nil
	}

	b.log.Debug("Sending discovery")
	return b.device.Configure(ctx, w, b.cfg.DiscoveryPrefix, b.Components())
}

// Publish writes the state and attributes of every entity, followed by the availability: online when the last
// refresh of the source succeeded and offline otherwise.
func (b *Bridge) Publish(ctx context.Context) error {
	w := b.writer()
	if w == nil {
		return nil
	}

	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	prefix := b.cfg.TopicPrefix
	report, ok := b.source.Data()
	now := b.now()

	var errs []error
	if ok {
		for _, s := range b.sensors {
			var attrs sensors.Attributes
			if s.description.Attributes != nil {
				attrs = s.description.Attributes(report, now)
			}

			errs = append(errs,
				mqtt.Error(s.component.Platform.State.Write(ctx, w, prefix, s.description.Value(report, now))),
				mqtt.Error(s.component.Platform.Attributes.Write(ctx, w, prefix, attrs)),
			)
		}

		_, rain := sensors.RainExpected(report, now, b.cfg.RainThreshold)
		errs = append(errs,
			mqtt.Error(b.rain.Platform.State.Write(ctx, w, prefix, rain)),
			mqtt.Error(b.rain.Platform.Attributes.Write(ctx, w, prefix, sensors.RainExpectedAttributes(report, now, b.cfg.RainThreshold))),
		)
	}

	available := ok && b.source.LastUpdateSuccess()
	errs = append(errs,
		mqtt.Error(b.interval.Platform.State.Write(ctx, w, prefix, uint(b.source.Interval()/time.Minute))),
		mqtt.Error(b.availability.Write(ctx, w, prefix, hass.AvailabilityOf(available))),
	)

	b.log.Debug("Published forecast", slog.Bool("available", available))
	return errors.Join(errs...)
}

func (b *Bridge) now() time.Time {
	return b.cfg.Now().In(b.cfg.Location)
}

func (b *Bridge) onHomeAssistantStatus(status hass.Availability) {
	b.log.Info("Home Assistant status changed", slog.String("status", string(status)))
	if status != hass.Available {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := errors.Join(b.Rediscover(ctx), b.Publish(ctx)); err != nil {
		b.log.Error("Failed to rediscover after Home Assistant restart", log.Error(err))
	}
}

func (b *Bridge) onIntervalCommand(minutes uint) {
	l := b.log.With(slog.Uint64("minutes", uint64(minutes)))

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := b.source.SetInterval(time.Duration(minutes) * time.Minute); err != nil {
		l.Warn("Rejected update interval", log.Error(err))
	} else {
		l.Info("Changed update interval")
	}

	w := b.writer()
	if w == nil {
		return
	}

	// Home Assistant shows what we publish, so a rejected value snaps back to the interval in effect
	current := uint(b.source.Interval() / time.Minute)
	if err := mqtt.Error(b.interval.Platform.State.Write(ctx, w, b.cfg.TopicPrefix, current)); err != nil {
		l.Error("Failed to publish update interval", log.Error(err))
	}
}
