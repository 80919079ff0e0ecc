package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/config"
	"github.com/authgate/auth-service/pkg/util/errorutil"
)

func newTestCodec(t *testing.T, cfg config.AuthConfig) *TokenCodec {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = randomSecret(t, 64)
	}
	if cfg.MinSecretBytes == 0 {
		cfg.MinSecretBytes = 64
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "test-issuer"
	}
	keys, err := LoadKeyMaterial(cfg, zap.NewNop())
	require.NoError(t, err)
	return NewTokenCodec(keys, cfg, zap.NewNop())
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{
		AccessTokenTTLSeconds:  900,
		RefreshTokenTTLSeconds: 3600,
		ClockSkewSeconds:       60,
	})

	principalID := uuid.New()
	token, expiresAt, err := codec.Issue(principalID, "user@example.com", TokenTypeAccess)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Subject)
	assert.Equal(t, principalID.String(), claims.PrincipalID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, 900*time.Second, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.True(t, expiresAt.Equal(claims.ExpiresAt.Time))
}

func TestRefreshTokenUsesOwnDuration(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{
		AccessTokenTTLSeconds:  900,
		RefreshTokenTTLSeconds: 7200,
		ClockSkewSeconds:       60,
	})

	token, _, err := codec.Issue(uuid.New(), "user@example.com", TokenTypeRefresh)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Equal(t, 7200*time.Second, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyExpired(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{
		AccessTokenTTLSeconds: -120,
		ClockSkewSeconds:      0,
	})

	token, _, err := codec.Issue(uuid.New(), "user@example.com", TokenTypeAccess)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindTokenExpired, errorutil.KindOf(err))
}

func TestVerifyExpiredWithinSkewPasses(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{
		AccessTokenTTLSeconds: -10,
		ClockSkewSeconds:      60,
	})

	token, _, err := codec.Issue(uuid.New(), "user@example.com", TokenTypeAccess)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.NoError(t, err)
}

func TestVerifyTamperedSignature(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{
		AccessTokenTTLSeconds: -120,
		ClockSkewSeconds:      0,
	})

	token, _, err := codec.Issue(uuid.New(), "user@example.com", TokenTypeAccess)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	signature := []byte(parts[2])
	if signature[0] == 'A' {
		signature[0] = 'B'
	} else {
		signature[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(signature)

	// tamper wins over expiry: never TOKEN_EXPIRED for a bad signature
	_, err = codec.Verify(tampered)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindTokenInvalid, errorutil.KindOf(err))
}

func TestVerifyIssuerMismatch(t *testing.T) {
	secret := randomSecret(t, 64)
	issuing := newTestCodec(t, config.AuthConfig{
		Issuer:                "other-issuer",
		Secret:                secret,
		AccessTokenTTLSeconds: 900,
	})
	verifying := newTestCodec(t, config.AuthConfig{
		Issuer:                "test-issuer",
		Secret:                secret,
		AccessTokenTTLSeconds: 900,
	})

	token, _, err := issuing.Issue(uuid.New(), "user@example.com", TokenTypeAccess)
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindTokenInvalid, errorutil.KindOf(err))
}

func TestVerifyWrongKey(t *testing.T) {
	issuing := newTestCodec(t, config.AuthConfig{AccessTokenTTLSeconds: 900})
	verifying := newTestCodec(t, config.AuthConfig{AccessTokenTTLSeconds: 900})

	token, _, err := issuing.Issue(uuid.New(), "user@example.com", TokenTypeAccess)
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindTokenInvalid, errorutil.KindOf(err))
}

func TestVerifyMalformedInputs(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{AccessTokenTTLSeconds: 900})

	for _, input := range []string{"", "Bearer ", "no-dots-here", "only.two"} {
		_, err := codec.Verify(input)
		require.Error(t, err, "input %q", input)
		assert.Equal(t, errorutil.KindTokenInvalid, errorutil.KindOf(err))
	}
}

func TestVerifyStripsBearerPrefix(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{AccessTokenTTLSeconds: 900})

	token, _, err := codec.Issue(uuid.New(), "user@example.com", TokenTypeAccess)
	require.NoError(t, err)

	claims, err := codec.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Subject)
}

func TestRSAIssueVerify(t *testing.T) {
	privatePath, publicPath := writeRSAKeyPair(t)
	cfg := config.AuthConfig{
		Issuer:                "test-issuer",
		PrivateKeyPath:        privatePath,
		PublicKeyPath:         publicPath,
		AccessTokenTTLSeconds: 900,
	}
	keys, err := LoadKeyMaterial(cfg, zap.NewNop())
	require.NoError(t, err)
	codec := NewTokenCodec(keys, cfg, zap.NewNop())

	token, _, err := codec.Issue(uuid.New(), "user@example.com", TokenTypeAccess)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Subject)
}

func TestExtractProjections(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{AccessTokenTTLSeconds: 900})

	principalID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	token, _, err := codec.Issue(principalID, "a@b.com", TokenTypeAccess)
	require.NoError(t, err)

	subject, err := codec.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", subject)

	extractedID, err := codec.ExtractPrincipalID(token)
	require.NoError(t, err)
	assert.Equal(t, principalID, extractedID)

	tokenType, err := codec.ExtractTokenType(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, tokenType)
}

func TestExtractPrincipalIDMissingClaim(t *testing.T) {
	secret := randomSecret(t, 64)
	codec := newTestCodec(t, config.AuthConfig{Secret: secret, AccessTokenTTLSeconds: 900})

	// token signed with the right key and issuer, but without a uid claim
	now := time.Now()
	raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"iss": "test-issuer",
		"sub": "a@b.com",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString(codec.keys.SigningKey())
	require.NoError(t, err)

	_, err = codec.ExtractPrincipalID(token)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindTokenInvalid, errorutil.KindOf(err))
}

func TestExtractPrincipalIDCorruptClaim(t *testing.T) {
	codec := newTestCodec(t, config.AuthConfig{AccessTokenTTLSeconds: 900})

	now := time.Now()
	raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"iss": "test-issuer",
		"sub": "a@b.com",
		"uid": "not-a-uuid",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString(codec.keys.SigningKey())
	require.NoError(t, err)

	_, err = codec.ExtractPrincipalID(token)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindTokenInvalid, errorutil.KindOf(err))
}
