package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/domain"
	"github.com/authgate/auth-service/internal/events"
	"github.com/authgate/auth-service/internal/repository"
	"github.com/authgate/auth-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Gate is the per-request authentication pipeline. Each request passes the
// stages in a fixed order: prior-authentication check, exemption check,
// extraction, verification, principal resolution, attachment. The gate holds
// no per-request state of its own and is safe for concurrent use.
type Gate struct {
	codec      *TokenCodec
	users      repository.UserStore
	dispatcher events.Dispatcher
	basePath   string
	exempt     []string
	logger     *zap.Logger
}

// NewGate constructs the authentication gate middleware.
func NewGate(codec *TokenCodec, users repository.UserStore, dispatcher events.Dispatcher, basePath string, exemptPrefixes []string, logger *zap.Logger) *Gate {
	return &Gate{
		codec:      codec,
		users:      users,
		dispatcher: dispatcher,
		basePath:   basePath,
		exempt:     exemptPrefixes,
		logger:     logger,
	}
}

// verdict tags the outcome of a gate stage.
type verdict int

const (
	// verdictProceed continues to the next stage.
	verdictProceed verdict = iota
	// verdictPassThrough lets the request continue without a principal.
	verdictPassThrough
	// verdictRejected terminates the request via the unauthenticated responder.
	verdictRejected
)

type stageResult struct {
	verdict verdict
	cause   error
}

func proceed() stageResult           { return stageResult{verdict: verdictProceed} }
func passThrough() stageResult       { return stageResult{verdict: verdictPassThrough} }
func rejected(err error) stageResult { return stageResult{verdict: verdictRejected, cause: err} }

// Handle runs the authentication pipeline for one request.
func (g *Gate) Handle(c *fiber.Ctx) error {
	for _, stage := range []func(*fiber.Ctx) stageResult{
		g.checkAlreadyAuthenticated,
		g.checkExempt,
		g.authenticate,
	} {
		switch result := stage(c); result.verdict {
		case verdictPassThrough:
			return c.Next()
		case verdictRejected:
			g.publishRejection(c, result.cause)
			return RespondUnauthenticated(c, g.logger, result.cause)
		}
	}
	return c.Next()
}

// checkAlreadyAuthenticated makes repeated gate invocations a no-op: a
// request that already carries a principal is passed through unchanged and
// no second store lookup happens.
func (g *Gate) checkAlreadyAuthenticated(c *fiber.Ctx) stageResult {
	if _, ok := PrincipalFromContext(c); ok {
		return passThrough()
	}
	return proceed()
}

// checkExempt short-circuits public paths before any token inspection.
func (g *Gate) checkExempt(c *fiber.Ctx) stageResult {
	path := strings.TrimPrefix(c.Path(), g.basePath)
	for _, prefix := range g.exempt {
		if strings.HasPrefix(path, prefix) {
			return passThrough()
		}
	}
	return proceed()
}

// authenticate runs extraction, verification, resolution, and attachment. A
// missing token is not a failure here: the request continues unauthenticated
// and downstream authorization decides whether that is acceptable.
func (g *Gate) authenticate(c *fiber.Ctx) stageResult {
	token, present := extractBearerToken(c)
	if !present {
		return passThrough()
	}

	claims, err := g.codec.Verify(token)
	if err != nil {
		return rejected(err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		g.logger.Warn("token missing subject claim, continuing unauthenticated",
			zap.String("origin", c.IP()))
		return passThrough()
	}

	user, err := g.users.FindByIdentifier(c.Context(), subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return rejected(errorutil.Wrap(errorutil.KindPrincipalNotFound, "", err))
		}
		return rejected(errorutil.Wrap(errorutil.KindInternalError, "principal resolution failed", err))
	}

	c.Locals(principalKey, domain.PrincipalFromUser(user, c.IP()))
	g.logger.Debug("request authenticated",
		zap.String("subject", subject),
		zap.String("path", c.Path()))
	return proceed()
}

func (g *Gate) publishRejection(c *fiber.Ctx, cause error) {
	if g.dispatcher == nil {
		return
	}
	_ = g.dispatcher.Publish(c.Context(), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAuthenticationRejected,
		Origin:    c.IP(),
		Timestamp: time.Now().UTC(),
		Payload: events.AuthenticationRejectedPayload{
			Path: c.Path(),
			Kind: string(errorutil.KindOf(cause)),
		},
	})
}

// extractBearerToken reads the Authorization header. The second return value
// reports whether a bearer credential was present at all.
func extractBearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// PrincipalFromContext retrieves the authenticated principal, if any.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
