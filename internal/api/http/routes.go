package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-report/internal/weather"
)

var validate = validator.New()

// ReportService is the part of weather.Service the routes depend on.
type ReportService interface {
	GetReport(ctx context.Context, city, state, country, units string) (weather.Report, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service ReportService) {
	api := app.Group("/api")

	api.Get("/weather/:city", func(c *fiber.Ctx) error {
		q, err := parseReportQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.GetReport(c.UserContext(), q.City, q.State, q.Country, q.Units)
		if err != nil {
			if re, ok := weather.AsReportError(err); ok {
				if re.Category == weather.CategoryProviderError {
					return sendProviderBody(c, re)
				}
				return c.Status(re.Status).JSON(fiber.Map{
					"error":    true,
					"category": re.Category,
					"message":  re.Message,
				})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather report")
		}

		return c.JSON(report)
	})
}

// sendProviderBody relays the provider's answer unchanged.
func sendProviderBody(c *fiber.Ctx, re *weather.ReportError) error {
	body := []byte(re.Message)
	if json.Valid(body) {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	}
	return c.Status(re.Status).Send(body)
}

// CacheHealth describes the cache for the health endpoint. Both fields are
// optional.
type CacheHealth struct {
	Size func() int
	Ping func(ctx context.Context) error
}

// RegisterHealth adds the liveness endpoint. It answers 503 when the cache
// backend cannot be reached.
func RegisterHealth(app *fiber.App, service string, cache CacheHealth) {
	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "ok",
			"service": service,
		}
		if cache.Size != nil {
			body["cacheEntries"] = cache.Size()
		}
		if cache.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				body["status"] = "degraded"
				body["cache"] = err.Error()
				return c.Status(fiber.StatusServiceUnavailable).JSON(body)
			}
			body["cache"] = "ok"
		}
		return c.JSON(body)
	})
}

// reportQuery is the request model of the report endpoint. Defaults for
// country and the canonical checks live in weather.Normalize.
type reportQuery struct {
	City    string `validate:"required"`
	State   string
	Country string
	Units   string
}

func parseReportQuery(c *fiber.Ctx) (reportQuery, error) {
	var q reportQuery

	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return q, errors.New("invalid city path segment")
	}

	// Fiber reuses request buffers; anything that may end up in the cache
	// key has to be copied.
	q.City = utils.CopyString(city)
	q.State = utils.CopyString(c.Query("state"))
	q.Country = utils.CopyString(c.Query("country"))
	// Only an absent units parameter defaults; "?units=" reaches the
	// validator as an empty value.
	q.Units = string(weather.UnitsMetric)
	if c.Context().QueryArgs().Has("units") {
		q.Units = utils.CopyString(c.Query("units"))
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}
