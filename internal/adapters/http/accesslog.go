package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AccessLogMiddleware emits one structured line per request. The session id
// rides along when the client sends one, which ties a REST mutation to the
// interaction session that triggered it. WebSocket upgrades are skipped; the
// socket handler logs its own connect/disconnect pair.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/ws" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes_out", len(c.Response().Body()),
			"request_id", c.Get(fiber.HeaderXRequestID, "unknown"),
		}
		if session := sessionID(c); session != "" {
			attrs = append(attrs, "session", session)
		}
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		}

		switch {
		case err != nil || status >= 500:
			slog.Error("request", attrs...)
		case status >= 400:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}

		return err
	}
}
