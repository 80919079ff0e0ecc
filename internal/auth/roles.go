package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/pkg/util/errorutil"
)

// RequireAuthenticated rejects requests that reached a protected resource
// without an attached principal.
func RequireAuthenticated(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return RespondUnauthenticated(c, logger, errorutil.New(errorutil.KindTokenMissing, ""))
		}
		return c.Next()
	}
}

// RequireAuthority ensures the authenticated principal holds at least one of
// the allowed authorities. An empty list only requires authentication.
func RequireAuthority(logger *zap.Logger, allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return RespondUnauthenticated(c, logger, errorutil.New(errorutil.KindTokenMissing, ""))
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		for _, authority := range allowed {
			if principal.HasAuthority(authority) {
				return c.Next()
			}
		}
		return RespondForbidden(c, logger)
	}
}
