package hass

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorState(t *testing.T) {
	for _, tt := range []struct {
		name    string
		sut     SensorState
		known   bool
		payload string
		json    string
	}{
		{name: "Zero", sut: SensorState{}, known: false, payload: "None", json: "null"},
		{name: "Unknown", sut: Unknown, known: false, payload: "None", json: "null"},
		{name: "Empty text", sut: Text(""), known: false, payload: "None", json: "null"},
		{name: "Text", sut: Text("NW"), known: true, payload: "NW", json: `"NW"`},
		{name: "Number", sut: Number(21.5), known: true, payload: "21.5", json: `"21.5"`},
		{name: "Whole number", sut: Number(19), known: true, payload: "19", json: `"19"`},
		{name: "Integer", sut: Integer(40), known: true, payload: "40", json: `"40"`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.known, tt.sut.Known())

			payload, err := SensorStateMarshaler(tt.sut)
			require.NoError(t, err)
			assert.Equal(t, tt.payload, string(payload))

			b, err := json.Marshal(tt.sut)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(b))
		})
	}
}

func TestAvailabilityOf(t *testing.T) {
	assert.Equal(t, Available, AvailabilityOf(true))
	assert.Equal(t, Unavailable, AvailabilityOf(false))
}

func TestPowerStateOf(t *testing.T) {
	assert.Equal(t, PowerStateOn, PowerStateOf(true))
	assert.Equal(t, PowerStateOff, PowerStateOf(false))
}
