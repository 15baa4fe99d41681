// Package config loads the bridge configuration. Values are layered: built-in defaults, then the YAML file, then
// command line flags and GOVJE_* environment variables (which may also come from a .env file).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	govje "github.com/govje/govje-weather"
	"github.com/govje/govje-weather/coordinator"
	"github.com/govje/govje-weather/discovery"
	"github.com/govje/govje-weather/forecast"
)

const (
	DefaultBroker    = "mqtt://localhost:1883"
	DefaultKeepAlive = 20
	DefaultTimeZone  = "Europe/Jersey"
	DefaultTimeout   = 30 * time.Second
)

// ErrHelp is returned by Parse when --help was requested. The usage has already been printed.
var ErrHelp = errors.New("help requested")

type Log struct {
	Level  string `yaml:"level" validate:"omitempty,slog_level"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json TEXT JSON"`
}

type MQTT struct {
	Broker   string `yaml:"broker" validate:"required,url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
	// KeepAlive in seconds.
	KeepAlive uint16 `yaml:"keep_alive" validate:"min=1"`

	DiscoveryPrefix string `yaml:"discovery_prefix" validate:"required"`
	TopicPrefix     string `yaml:"topic_prefix" validate:"required"`
}

type Feed struct {
	URL     string        `yaml:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout"`
	// ScanInterval in minutes.
	ScanInterval uint `yaml:"scan_interval" validate:"min=5,max=1440"`
}

type Device struct {
	Name             string `yaml:"name" validate:"required"`
	ConfigurationURL string `yaml:"configuration_url" validate:"omitempty,url"`
	// RainThreshold is the rain probability, in percent, from which rain is expected.
	RainThreshold int `yaml:"rain_threshold" validate:"min=1,max=100"`
}

type HTTP struct {
	// Listen is the address of the status API. Empty disables it.
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// Config is the whole bridge configuration.
type Config struct {
	Log      Log    `yaml:"log"`
	MQTT     MQTT   `yaml:"mqtt"`
	Feed     Feed   `yaml:"feed"`
	Device   Device `yaml:"device"`
	HTTP     HTTP   `yaml:"http"`
	TimeZone string `yaml:"time_zone" validate:"required,timezone"`

	// Remove asks for the device to be deleted from Home Assistant instead of running the bridge. It is only set from
	// the command line.
	Remove bool `yaml:"-"`
}

// Options are the command line flags. Every flag can also be set from the environment.
type Options struct {
	ConfigFile string `short:"c" long:"config" env:"GOVJE_CONFIG" description:"Path to the YAML configuration file"`
	EnvFile    string `long:"env-file" env:"GOVJE_ENV_FILE" default:".env" description:"dotenv file to load before reading the environment"`

	LogLevel  string `long:"log-level" env:"GOVJE_LOG_LEVEL" description:"Log level (debug, info, warn, error)"`
	LogFormat string `long:"log-format" env:"GOVJE_LOG_FORMAT" description:"Log format (text, json)"`

	Broker       string `long:"broker" env:"GOVJE_MQTT_BROKER" description:"MQTT broker URL"`
	MQTTUsername string `long:"mqtt-username" env:"GOVJE_MQTT_USERNAME" description:"MQTT username"`
	MQTTPassword string `long:"mqtt-password" env:"GOVJE_MQTT_PASSWORD" description:"MQTT password"`
	ClientID     string `long:"client-id" env:"GOVJE_MQTT_CLIENT_ID" description:"MQTT client id (random when unset)"`

	FeedURL      string `long:"feed-url" env:"GOVJE_FEED_URL" description:"Forecast feed URL"`
	ScanInterval uint   `long:"scan-interval" env:"GOVJE_SCAN_INTERVAL" description:"Minutes between forecast updates"`

	HTTPListen string `long:"http-listen" env:"GOVJE_HTTP_LISTEN" description:"Address of the status API, empty to disable"`

	Remove bool `long:"remove" description:"Delete the device from Home Assistant and exit"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("slog_level", func(fl validator.FieldLevel) bool {
		var l slog.Level
		return l.UnmarshalText([]byte(fl.Field().String())) == nil
	})

	return v
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		MQTT: MQTT{
			Broker:          DefaultBroker,
			KeepAlive:       DefaultKeepAlive,
			DiscoveryPrefix: discovery.DefaultPrefix,
			TopicPrefix:     govje.DefaultTopicPrefix,
		},
		Feed: Feed{
			URL:          forecast.DefaultURL,
			Timeout:      DefaultTimeout,
			ScanInterval: uint(coordinator.DefaultInterval / time.Minute),
		},
		Device: Device{
			Name:          govje.DefaultName,
			RainThreshold: govje.DefaultRainThreshold,
		},
		TimeZone: DefaultTimeZone,
	}
}

// Parse reads the command line in args (without the program name), the dotenv file and the environment, then loads
// the configuration they point at.
func Parse(args []string) (*Config, error) {
	var pre struct {
		EnvFile string `long:"env-file" env:"GOVJE_ENV_FILE" default:".env"`
	}

	// The dotenv file has to be loaded before the real parse so its values reach env-backed flags.
	if _, err := flags.NewParser(&pre, flags.IgnoreUnknown).ParseArgs(args); err == nil {
		if err = LoadEnv(pre.EnvFile); err != nil {
			return nil, err
		}
	}

	opts, err := ParseOptions(args)
	if err != nil {
		return nil, err
	}

	return Load(opts)
}

// LoadEnv loads the dotenv file at path into the process environment without overriding variables that are
// already set. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load %s: %w", path, err)
	}

	return nil
}

// ParseOptions parses the command line flags in args, falling back to the environment.
func ParseOptions(args []string) (Options, error) {
	var opts Options

	p := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := p.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			p.WriteHelp(os.Stdout)
			return opts, ErrHelp
		}

		return opts, fmt.Errorf("config: flags: %w", err)
	}

	return opts, nil
}

// Load builds the configuration for opts and validates it.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if opts.ConfigFile != "" {
		f, err := os.Open(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		defer f.Close()

		if err = cfg.Decode(f); err != nil {
			return nil, fmt.Errorf("config: %s: %w", opts.ConfigFile, err)
		}
	}

	cfg.apply(opts)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Decode reads YAML from r over the current values. Unknown keys are rejected and an empty document changes
// nothing.
func (c *Config) Decode(r io.Reader) error {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

func (c *Config) apply(opts Options) {
	set(&c.Log.Level, opts.LogLevel)
	set(&c.Log.Format, opts.LogFormat)
	set(&c.MQTT.Broker, opts.Broker)
	set(&c.MQTT.Username, opts.MQTTUsername)
	set(&c.MQTT.Password, opts.MQTTPassword)
	set(&c.MQTT.ClientID, opts.ClientID)
	set(&c.Feed.URL, opts.FeedURL)
	set(&c.Feed.ScanInterval, opts.ScanInterval)
	set(&c.HTTP.Listen, opts.HTTPListen)
	set(&c.Remove, opts.Remove)
}

func set[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}

// ScanInterval is Feed.ScanInterval as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Feed.ScanInterval) * time.Minute
}

// Location loads TimeZone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// BrokerURL parses MQTT.Broker.
func (c *Config) BrokerURL() (*url.URL, error) {
	return url.Parse(c.MQTT.Broker)
}

// ConfigurationURL parses Device.ConfigurationURL. It is nil when unset.
func (c *Config) ConfigurationURL() (*url.URL, error) {
	if c.Device.ConfigurationURL == "" {
		return nil, nil
	}

	return url.Parse(c.Device.ConfigurationURL)
}
