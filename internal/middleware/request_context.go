package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequestLogger puts a request-scoped logger into the user context so that
// log.Ctx in services carries the request id and the active trace. It must be
// registered after requestid and otelfiber.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		builder := log.Logger.With().Ctx(ctx)
		if requestID, ok := c.Locals("requestid").(string); ok && requestID != "" {
			builder = builder.Str("request_id", requestID)
		}
		logger := builder.Logger()
		c.SetUserContext(logger.WithContext(ctx))
		return c.Next()
	}
}
