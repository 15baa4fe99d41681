package govje

import (
	"github.com/govje/govje-weather/hass"
	"github.com/govje/govje-weather/sensors"
)

// Reading is the current state of one entity as the bridge would publish it.
type Reading struct {
	UniqueID   string             `json:"unique_id"`
	Name       string             `json:"name"`
	State      hass.SensorState   `json:"state"`
	Unit       string             `json:"unit,omitempty"`
	Attributes sensors.Attributes `json:"attributes,omitempty"`
}

// Readings evaluates every sensor against the latest data of the source. It returns nil before the first successful
// refresh.
func (b *Bridge) Readings() []Reading {
	report, ok := b.source.Data()
	if !ok {
		return nil
	}

	now := b.now()
	out := make([]Reading, 0, len(b.sensors)+1)
	for _, s := range b.sensors {
		r := Reading{
			UniqueID: s.description.UniqueID(),
			Name:     s.description.Name,
			State:    s.description.Value(report, now),
			Unit:     s.description.Unit,
		}

		if s.description.Attributes != nil {
			r.Attributes = s.description.Attributes(report, now)
		}

		out = append(out, r)
	}

	state := hass.Unknown
	if _, rain := sensors.RainExpected(report, now, b.cfg.RainThreshold); rain != hass.PowerStateUnknown {
		state = hass.Text(string(rain))
	}

	out = append(out, Reading{
		UniqueID:   b.rain.UniqueID,
		Name:       b.rain.Name,
		State:      state,
		Attributes: sensors.RainExpectedAttributes(report, now, b.cfg.RainThreshold),
	})

	return out
}
