package hass

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/govje/govje-weather/mqtt"
)

// UnknownPayload is the state payload Home Assistant renders as "unknown".
const UnknownPayload = "None"

// SensorState is the state of a sensor, which may be unknown when the feed does not carry the field. The zero value
// is unknown. It implements fmt.Stringer and slog.LogValuer.
type SensorState struct {
	value string
	known bool
}

// Unknown is the SensorState for a missing value.
var Unknown = SensorState{}

// Text builds a known SensorState from s. An empty s is unknown.
func Text(s string) SensorState {
	return SensorState{value: s, known: s != ""}
}

// Number builds a known SensorState from f using the shortest representation that round-trips.
func Number(f float64) SensorState {
	return SensorState{value: strconv.FormatFloat(f, 'f', -1, 64), known: true}
}

// Integer builds a known SensorState from i.
func Integer(i int) SensorState {
	return SensorState{value: strconv.Itoa(i), known: true}
}

// Known reports whether the state carries a value.
func (s SensorState) Known() bool {
	return s.known
}

func (s SensorState) String() string {
	if !s.known {
		return UnknownPayload
	}

	return s.value
}

func (s SensorState) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// MarshalJSON renders known states as json strings and unknown states as null.
func (s SensorState) MarshalJSON() ([]byte, error) {
	if !s.known {
		return []byte("null"), nil
	}

	return []byte(strconv.Quote(s.value)), nil
}

var SensorStateMarshaler mqtt.ValueMarshaler[SensorState] = func(v SensorState) ([]byte, error) {
	return mqtt.StringMarshaler(v.String())
}

var _ fmt.Stringer = SensorState{}
