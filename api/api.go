// Package api serves the bridge's state over HTTP: a health check for container orchestrators and read-only views of
// the latest forecast and sensor readings.
package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	govje "github.com/govje/govje-weather"
	"github.com/govje/govje-weather/forecast"
	"github.com/govje/govje-weather/log"
)

// Status is the coordinator state the API reports. *coordinator.Coordinator[*forecast.Report] implements it.
type Status interface {
	Data() (*forecast.Report, bool)
	LastUpdateSuccess() bool
	LastUpdate() time.Time
	LastError() error
	Interval() time.Duration
	SetInterval(d time.Duration) error
}

// Readings is implemented by *govje.Bridge.
type Readings interface {
	Readings() []govje.Reading
}

var validate = validator.New()

type intervalRequest struct {
	Minutes uint `json:"minutes" validate:"required,min=5,max=1440"`
}

// New builds the fiber app. now dates the daily forecast and defaults to time.Now in forecast.TimeZone.
func New(status Status, readings Readings, now func() time.Time) *fiber.App {
	if now == nil {
		now = func() time.Time { return time.Now().In(forecast.TimeZone) }
	}

	l := log.ForComponent("api")

	app := fiber.New(fiber.Config{
		AppName:               "govje-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		l.Debug(
			"Handled request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("took", time.Since(start)),
		)

		return err
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		ok := status.LastUpdateSuccess()

		body := fiber.Map{
			"status":              "ok",
			"last_update_success": ok,
			"interval_minutes":    uint(status.Interval() / time.Minute),
		}

		if t := status.LastUpdate(); !t.IsZero() {
			body["last_update"] = t.UTC().Format(time.RFC3339)
		}

		if err := status.LastError(); err != nil {
			body["last_error"] = err.Error()
		}

		if !ok {
			body["status"] = "degraded"
			return c.Status(fiber.StatusServiceUnavailable).JSON(body)
		}

		return c.JSON(body)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		report, ok := status.Data()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "no forecast fetched yet")
		}

		return c.JSON(fiber.Map{
			"report": report,
			"daily":  report.Daily(now()),
		})
	})

	v1.Get("/sensors", func(c *fiber.Ctx) error {
		r := readings.Readings()
		if r == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "no forecast fetched yet")
		}

		return c.JSON(r)
	})

	v1.Get("/sensors/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		for _, r := range readings.Readings() {
			if r.UniqueID == id {
				return c.JSON(r)
			}
		}

		return fiber.NewError(fiber.StatusNotFound, "no sensor with unique id "+id)
	})

	v1.Get("/interval", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"minutes": uint(status.Interval() / time.Minute)})
	})

	v1.Put("/interval", func(c *fiber.Ctx) error {
		var req intervalRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := status.SetInterval(time.Duration(req.Minutes) * time.Minute); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		l.Info("Changed update interval", slog.Uint64("minutes", uint64(req.Minutes)))
		return c.JSON(fiber.Map{"minutes": req.Minutes})
	})

	return app
}
