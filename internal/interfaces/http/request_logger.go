package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

const (
	localLogger     = "logger"
	headerRequestID = "X-Request-ID"
)

var nopLogger = logger.Nop()

// RequestLogger asigna un request id, deja un logger con ese id en Locals y registra
// cada petición al terminar.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(headerRequestID, reqID)
		reqLog := log.WithStr("request_id", reqID)
		c.Locals(localLogger, reqLog)

		err := c.Next()
		if err != nil {
			// el ErrorHandler escribe la respuesta antes de medir el status
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := reqLog.Info()
		if status >= 500 {
			ev = reqLog.Error()
		} else if status >= 400 {
			ev = reqLog.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("company_id", GetCompanyID(c)).
			Msg("request")
		return nil
	}
}

// requestLog logger de la petición; sin middleware devuelve uno nulo.
func requestLog(c *fiber.Ctx) *logger.Logger {
	if l, ok := c.Locals(localLogger).(*logger.Logger); ok {
		return l
	}
	return nopLogger
}
