package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/pkg/util/errorutil"
)

// RespondUnauthenticated renders an authentication failure as the fixed JSON
// envelope. The taxonomy entry is selected from the typed kind carried on the
// failure value; anything unrecognized falls back to the generic
// invalid-credentials entry. Responses are 401 with a WWW-Authenticate
// challenge. The raw error text never reaches the client.
func RespondUnauthenticated(c *fiber.Ctx, logger *zap.Logger, cause error) error {
	entry := unauthenticatedEntry(cause)

	logger.Warn("unauthenticated access attempt",
		zap.String("path", c.Path()),
		zap.String("origin", c.IP()),
		zap.String("code", entry.Code))

	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(entry.Status).JSON(errorutil.NewEnvelope(entry, "", c.Path()))
}

// RespondForbidden renders an authorization failure: the caller is
// authenticated but lacks the required authority. Always ACCESS_DENIED, 403.
func RespondForbidden(c *fiber.Ctx, logger *zap.Logger) error {
	entry := errorutil.Lookup(errorutil.KindAccessDenied)

	logger.Warn("access denied",
		zap.String("path", c.Path()),
		zap.String("origin", c.IP()))

	return c.Status(entry.Status).JSON(errorutil.NewEnvelope(entry, "", c.Path()))
}

func unauthenticatedEntry(cause error) errorutil.Entry {
	switch kind := errorutil.KindOf(cause); kind {
	case errorutil.KindTokenExpired,
		errorutil.KindTokenInvalid,
		errorutil.KindTokenMissing,
		errorutil.KindPrincipalNotFound:
		return errorutil.Lookup(kind)
	default:
		return errorutil.Lookup(errorutil.KindInvalidCredentials)
	}
}
