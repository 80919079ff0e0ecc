package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/config"
	"github.com/authgate/auth-service/pkg/util/errorutil"
)

const bearerPrefix = "Bearer "

// TokenType selects the expiration policy applied at issuance.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the typed JWT payload. Every field is validated at decode time;
// there are no dynamic claim lookups.
type Claims struct {
	PrincipalID string    `json:"uid"`
	TokenType   TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies signed compact tokens. It holds no mutable
// state beyond the immutable key material and is safe for concurrent use.
type TokenCodec struct {
	keys       *KeyMaterial
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	skew       time.Duration
	logger     *zap.Logger
}

// NewTokenCodec builds a codec from loaded key material and auth config.
func NewTokenCodec(keys *KeyMaterial, cfg config.AuthConfig, logger *zap.Logger) *TokenCodec {
	return &TokenCodec{
		keys:       keys,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		skew:       cfg.ClockSkew(),
		logger:     logger,
	}
}

// Issue signs a new token for the principal. Timestamps are second
// granularity; the expiry is issuance time plus the per-type configured TTL.
func (c *TokenCodec) Issue(principalID uuid.UUID, subject string, tokenType TokenType) (string, time.Time, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(c.ttl(tokenType))

	claims := &Claims{
		PrincipalID: principalID.String(),
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(c.keys.SigningMethod(), claims)
	signed, err := token.SignedString(c.keys.SigningKey())
	if err != nil {
		return "", time.Time{}, errorutil.Wrap(errorutil.KindInternalError, "failed to sign token", err)
	}
	return signed, expiresAt, nil
}

// Verify validates a token string and returns its claims. Gates run in
// order: shape, signature, issuer, expiry. The first failing gate decides
// the error kind; expiry is reported distinctly so callers can trigger a
// refresh flow instead of a re-login.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	compact := StripBearerPrefix(tokenString)
	if compact == "" || !strings.Contains(compact, ".") {
		return nil, errorutil.New(errorutil.KindTokenInvalid, "token is empty or not in compact form")
	}

	parsed, err := jwt.ParseWithClaims(compact, &Claims{}, c.verificationKey,
		jwt.WithIssuer(c.issuer),
		jwt.WithLeeway(c.skew),
	)
	if err != nil {
		return nil, c.classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errorutil.New(errorutil.KindTokenInvalid, "token claims are not usable")
	}
	return claims, nil
}

// ExtractSubject returns the subject claim of a verified token.
func (c *TokenCodec) ExtractSubject(tokenString string) (string, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractPrincipalID returns the principal identifier claim of a verified
// token. A missing or unparseable identifier is an invalid token.
func (c *TokenCodec) ExtractPrincipalID(tokenString string) (uuid.UUID, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if strings.TrimSpace(claims.PrincipalID) == "" {
		c.logger.Warn("token missing required principal claim")
		return uuid.Nil, errorutil.New(errorutil.KindTokenInvalid, "token missing required principal claim")
	}
	id, parseErr := uuid.Parse(claims.PrincipalID)
	if parseErr != nil {
		c.logger.Warn("corrupted principal identifier in token claim")
		return uuid.Nil, errorutil.Wrap(errorutil.KindTokenInvalid, "principal identifier format is corrupt", parseErr)
	}
	return id, nil
}

// ExtractTokenType returns the token type claim of a verified token.
func (c *TokenCodec) ExtractTokenType(tokenString string) (TokenType, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.TokenType, nil
}

func (c *TokenCodec) ttl(tokenType TokenType) time.Duration {
	if tokenType == TokenTypeRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

func (c *TokenCodec) verificationKey(token *jwt.Token) (any, error) {
	if token.Method.Alg() != c.keys.SigningMethod().Alg() {
		return nil, errors.New("unexpected signing method: " + token.Method.Alg())
	}
	return c.keys.VerificationKey(), nil
}

// classifyParseError maps library errors onto the taxonomy. Signature
// mismatch is logged at elevated severity: it is a tamper signal, not
// routine user error.
func (c *TokenCodec) classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		c.logger.Error("token signature mismatch, possible tampering attempt", zap.Error(err))
		return errorutil.Wrap(errorutil.KindTokenInvalid, "token signature could not be verified", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		c.logger.Warn("token expired, refresh flow suggested")
		return errorutil.Wrap(errorutil.KindTokenExpired, "", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		c.logger.Warn("token issuer mismatch")
		return errorutil.Wrap(errorutil.KindTokenInvalid, "token issuer mismatch", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errorutil.Wrap(errorutil.KindTokenInvalid, "token structure is malformed", err)
	default:
		c.logger.Warn("token validation failed", zap.Error(err))
		return errorutil.Wrap(errorutil.KindTokenInvalid, "", err)
	}
}

// StripBearerPrefix removes an optional "Bearer " prefix from a credential.
func StripBearerPrefix(token string) string {
	if strings.HasPrefix(token, bearerPrefix) {
		return strings.TrimSpace(token[len(bearerPrefix):])
	}
	return strings.TrimSpace(token)
}
