package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/auth"
	"github.com/authgate/auth-service/internal/config"
	"github.com/authgate/auth-service/internal/domain"
	"github.com/authgate/auth-service/internal/events"
	"github.com/authgate/auth-service/internal/repository"
	"github.com/authgate/auth-service/pkg/util/errorutil"
)

// DefaultAuthority is granted to every freshly registered account.
const DefaultAuthority = "ROLE_USER"

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService coordinates registration, login, and the refresh flow.
type AuthService struct {
	users      repository.UserStore
	validator  *CredentialValidator
	codec      *auth.TokenCodec
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	Users      repository.UserStore
	Validator  *CredentialValidator
	Codec      *auth.TokenCodec
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      deps.Users,
		validator:  deps.Validator,
		codec:      deps.Codec,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// Register creates a new account after the credential policy passes, then
// issues the first token pair.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, *TokenPair, error) {
	if err := s.validator.ValidateEmailFormat(email); err != nil {
		return nil, nil, err
	}
	if err := s.validator.ValidatePasswordStrength(password); err != nil {
		return nil, nil, err
	}
	if err := s.validator.EnsureEmailAvailable(ctx, email); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, errorutil.Wrap(errorutil.KindInternalError, "password hashing failed", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Authorities:  []string{DefaultAuthority},
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, errorutil.Wrap(errorutil.KindInternalError, "account creation failed", err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		Subject: user.Email,
		Payload: events.UserRegisteredPayload{UserID: user.ID},
	})
	return user, pair, nil
}

// Login authenticates by email and password. Every failure is reported as
// invalid credentials so callers cannot probe which part was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	user, err := s.users.FindByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, s.loginFailed(ctx, email, "unknown account")
		}
		return nil, nil, errorutil.Wrap(errorutil.KindInternalError, "account lookup failed", err)
	}

	if user.Status != domain.UserStatusActive {
		return nil, nil, s.loginFailed(ctx, email, "account not active")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, s.loginFailed(ctx, email, "password mismatch")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventLoginSucceeded,
		Subject: user.Email,
	})
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair. Access
// tokens are rejected here even when otherwise valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return nil, nil, errorutil.New(errorutil.KindTokenInvalid, "a refresh token is required for this operation")
	}

	user, err := s.users.FindByIdentifier(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, errorutil.Wrap(errorutil.KindPrincipalNotFound, "", err)
		}
		return nil, nil, errorutil.Wrap(errorutil.KindInternalError, "account lookup failed", err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTokenRefreshed,
		Subject: user.Email,
		Payload: events.TokenRefreshedPayload{UserID: user.ID},
	})
	return user, pair, nil
}

func (s *AuthService) issuePair(user *domain.User) (*TokenPair, error) {
	principalID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, errorutil.Wrap(errorutil.KindInternalError, "account identifier is not a uuid", err)
	}

	accessToken, accessExp, err := s.codec.Issue(principalID, user.Email, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.codec.Issue(principalID, user.Email, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) error {
	s.logger.Warn("login failed", zap.String("email", email), zap.String("reason", reason))
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Subject: email,
		Payload: events.LoginFailedPayload{Reason: reason},
	})
	return errorutil.New(errorutil.KindInvalidCredentials, "")
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}
