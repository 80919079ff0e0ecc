package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/observability"
	"github.com/authgate/auth-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware converts every handler error and recovered panic
// into the structured error envelope. Raw error text reaches the client only
// for validation-class failures; everything else gets the curated default
// message, with a trace id logged alongside 500s for correlation.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = errorutil.New(errorutil.KindInternalError, "")
			}
			if err != nil {
				entry, detail := classify(err)
				metrics.RecordError(c.Path(), c.Method(), entry.Code)

				envelope := errorutil.NewEnvelope(entry, detail, c.Path())
				if entry.Status >= 500 {
					traceID := uuid.NewString()
					envelope = envelope.WithTraceID(traceID)
					logger.Error("request failed",
						zap.String("trace_id", traceID),
						zap.String("code", entry.Code),
						zap.Error(err))
				}

				c.Status(entry.Status)
				_ = c.JSON(envelope)
				err = nil
			}
		}()
		return c.Next()
	}
}

// classify resolves an error to its taxonomy entry and client-safe detail.
func classify(err error) (errorutil.Entry, string) {
	var authErr *errorutil.AuthError
	if errors.As(err, &authErr) {
		entry := authErr.Entry()
		if entry.Status >= 500 {
			// never leak internal detail
			return entry, ""
		}
		return entry, authErr.Detail
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusBadRequest:
			return errorutil.Lookup(errorutil.KindValidationFailed), fiberErr.Message
		case fiber.StatusUnauthorized:
			return errorutil.Lookup(errorutil.KindTokenMissing), ""
		case fiber.StatusForbidden:
			return errorutil.Lookup(errorutil.KindAccessDenied), ""
		case fiber.StatusNotFound:
			return errorutil.Lookup(errorutil.KindNotFound), ""
		}
	}

	return errorutil.Lookup(errorutil.KindInternalError), ""
}
