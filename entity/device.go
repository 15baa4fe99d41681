package entity

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/govje/govje-weather/discovery"
	"github.com/govje/govje-weather/mqtt"
)

// ErrInvalidDevice is returned by Device.Valid and Device.Configure for devices without identifiers.
var ErrInvalidDevice = errors.New("device must have at least one identifier")

// Device groups the bridge's components in Home Assistant. The grouping only exists in the discovery payload sent by
// Configure.
//
// See https://www.home-assistant.io/integrations/mqtt/#device-discovery-payload
type Device struct {
	// DiscoveryID overrides the id calculated by ID.
	DiscoveryID string `json:"-"`

	Name            string   `json:"name,omitempty"`
	Manufacturer    string   `json:"mf,omitempty"`
	Model           string   `json:"mdl,omitempty"`
	SoftwareVersion string   `json:"sw,omitempty"`
	Identifiers     []string `json:"ids,omitempty"`

	// ConfigurationURL is shown as "Visit" in the device page.
	ConfigurationURL *url.URL `json:"cu,omitempty"`

	// Origin defaults to DefaultOrigin.
	Origin *Origin `json:"-"`
}

// ID returns DiscoveryID, or the sanitized identifiers followed by the name, joined with discovery.IDSep.
func (d *Device) ID() string {
	if d.DiscoveryID != "" {
		return d.DiscoveryID
	}

	parts := make([]string, 0, len(d.Identifiers)+1)
	for _, ident := range d.Identifiers {
		parts = append(parts, discovery.IDSanitizer.Replace(ident))
	}

	if d.Name != "" {
		parts = append(parts, discovery.IDSanitizer.Replace(d.Name))
	}

	return strings.Join(parts, discovery.IDSep)
}

// Valid reports ErrInvalidDevice when Home Assistant would reject the device.
func (d *Device) Valid() error {
	if len(d.Identifiers) == 0 {
		return ErrInvalidDevice
	}

	return nil
}

// MarshalDiscovery encodes the device discovery payload for components, keyed by component id.
func (d *Device) MarshalDiscovery(components map[string]json.MarshalerTo) ([]byte, error) {
	if err := d.Valid(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	e := jsontext.NewEncoder(&buf)

	if err := e.WriteToken(jsontext.BeginObject); err != nil {
		return nil, err
	}

	f := discovery.NewFields(e).
		Required("device", discovery.FieldDevice, d).
		Required("origin", discovery.FieldOrigin, cmp.Or(d.Origin, &DefaultOrigin))

	if err := f.Err(); err != nil {
		return nil, err
	}

	err := errors.Join(
		e.WriteToken(jsontext.String(discovery.FieldComponents)),
		e.WriteToken(jsontext.BeginObject),
		discovery.Inline(discovery.NewFields(e), components).Err(),
		e.WriteToken(jsontext.EndObject),
		e.WriteToken(jsontext.EndObject),
	)
	if err != nil {
		return nil, err
	}

	return bytes.TrimSpace(buf.Bytes()), nil
}

// Configure publishes the retained discovery payload for this device and its components.
func (d *Device) Configure(ctx context.Context, w mqtt.Writer, discoveryPrefix string, components map[string]json.MarshalerTo) error {
	payload, err := d.MarshalDiscovery(components)
	if err != nil {
		return fmt.Errorf("configure: marshal discovery config: %w", err)
	}

	return w.WriteTopic(ctx, discovery.DeviceConfigTopic(discoveryPrefix, d.ID()), mqtt.WriteOptions{Retain: true}, payload)
}

// Remove clears the retained discovery payload, which makes Home Assistant delete the device and its entities.
func (d *Device) Remove(ctx context.Context, w mqtt.Writer, discoveryPrefix string) error {
	return w.WriteTopic(ctx, discovery.DeviceConfigTopic(discoveryPrefix, d.ID()), mqtt.WriteOptions{Retain: true}, nil)
}
