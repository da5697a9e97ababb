package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header request ids are read from and echoed to.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is where the id is stored in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID ensures every request has an id: the incoming X-Request-ID is
// reused when present, otherwise a new UUID is generated. The id is stored
// in context locals and echoed on the response so a failed upload stage can
// be correlated across client logs, server logs and the error envelope.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
