package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	govje "github.com/govje/govje-weather"
	"github.com/govje/govje-weather/coordinator"
	"github.com/govje/govje-weather/forecast"
	"github.com/govje/govje-weather/hass"
)

type fakeStatus struct {
	report   *forecast.Report
	success  bool
	updated  time.Time
	err      error
	interval time.Duration
}

func (f *fakeStatus) Data() (*forecast.Report, bool) { return f.report, f.report != nil }
func (f *fakeStatus) LastUpdateSuccess() bool         { return f.success }
func (f *fakeStatus) LastUpdate() time.Time           { return f.updated }
func (f *fakeStatus) LastError() error                { return f.err }
func (f *fakeStatus) Interval() time.Duration         { return f.interval }

func (f *fakeStatus) SetInterval(d time.Duration) error {
	if err := coordinator.ValidateInterval(d); err != nil {
		return err
	}

	f.interval = d
	return nil
}

type fakeReadings []govje.Reading

func (f fakeReadings) Readings() []govje.Reading { return f }

func healthy() *fakeStatus {
	return &fakeStatus{
		report: &forecast.Report{
			CurrentTemperature: forecast.Text("18°C"),
			Days:               []forecast.Day{{DayName: forecast.Text("Today"), DayToolTip: forecast.Text("Sunny")}},
		},
		success:  true,
		updated:  time.Date(2025, time.July, 11, 13, 0, 0, 0, time.UTC),
		interval: coordinator.DefaultInterval,
	}
}

func fixedNow() time.Time {
	return time.Date(2025, time.July, 11, 14, 0, 0, 0, forecast.TimeZone)
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}

	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		code, body := do(t, New(healthy(), fakeReadings{}, fixedNow), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, true, body["last_update_success"])
		assert.Equal(t, "2025-07-11T13:00:00Z", body["last_update"])
		assert.EqualValues(t, 10, body["interval_minutes"])
		assert.NotContains(t, body, "last_error")
	})

	t.Run("Degraded", func(t *testing.T) {
		status := healthy()
		status.success = false
		status.err = errors.New("fetch failed")

		code, body := do(t, New(status, fakeReadings{}, fixedNow), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "fetch failed", body["last_error"])
	})
}

func TestForecast(t *testing.T) {
	t.Run("Report", func(t *testing.T) {
		code, body := do(t, New(healthy(), fakeReadings{}, fixedNow), http.MethodGet, "/api/v1/forecast", "")
		require.Equal(t, http.StatusOK, code)

		report, ok := body["report"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "18°C", report["currentTemprature"])

		daily, ok := body["daily"].([]any)
		require.True(t, ok)
		require.Len(t, daily, 1)
		assert.Equal(t, "2025-07-11T12:00:00", daily[0].(map[string]any)["datetime"])
		assert.Equal(t, "sunny", daily[0].(map[string]any)["condition"])
	})

	t.Run("No data", func(t *testing.T) {
		code, body := do(t, New(&fakeStatus{}, fakeReadings{}, fixedNow), http.MethodGet, "/api/v1/forecast", "")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, true, body["error"])
	})
}

func TestSensors(t *testing.T) {
	readings := fakeReadings{
		{UniqueID: "govje_temperature", Name: "GOV.JE Temperature", State: hass.Number(18), Unit: hass.UnitCelsius},
		{UniqueID: "govje_uv_index", Name: "GOV.JE UV Index", State: hass.Unknown},
	}
	app := New(healthy(), readings, fixedNow)

	t.Run("List", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Len(t, got, 2)
		assert.Equal(t, "18", got[0]["state"])
		assert.Nil(t, got[1]["state"])
	})

	t.Run("One", func(t *testing.T) {
		code, body := do(t, app, http.MethodGet, "/api/v1/sensors/govje_temperature", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "°C", body["unit"])
	})

	t.Run("Unknown", func(t *testing.T) {
		code, _ := do(t, app, http.MethodGet, "/api/v1/sensors/govje_nope", "")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("No data", func(t *testing.T) {
		code, _ := do(t, New(&fakeStatus{}, fakeReadings(nil), fixedNow), http.MethodGet, "/api/v1/sensors", "")
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
}

func TestInterval(t *testing.T) {
	status := healthy()
	app := New(status, fakeReadings{}, fixedNow)

	code, body := do(t, app, http.MethodGet, "/api/v1/interval", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 10, body["minutes"])

	code, _ = do(t, app, http.MethodPut, "/api/v1/interval", `{"minutes":30}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 30*time.Minute, status.interval)

	for _, body := range []string{`{"minutes":4}`, `{"minutes":1441}`, `{}`, `not json`} {
		code, _ = do(t, app, http.MethodPut, "/api/v1/interval", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
	}
	assert.Equal(t, 30*time.Minute, status.interval)
}
