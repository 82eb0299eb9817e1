package common

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/i474232898/weather-report/internal/logger"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or generates one, echoes it on
// the response and carries it in the user context for downstream logging.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Header values are only valid inside the handler; keep a copy.
		id := utils.CopyString(c.Get(RequestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDHeader, id)
		c.SetUserContext(logger.ContextWithRequestID(c.UserContext(), id))
		return c.Next()
	}
}
