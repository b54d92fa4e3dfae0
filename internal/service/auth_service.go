package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/campus-auth/internal/auth"
	"github.com/spec-kit/campus-auth/internal/domain"
	"github.com/spec-kit/campus-auth/internal/events"
	"github.com/spec-kit/campus-auth/internal/repository"
)

// Issuance failure kinds. These stay precise so the client-facing layer
// can give actionable feedback; only the perimeter flattens errors.
var (
	ErrIdentityExists     = errors.New("identity already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrLoginThrottled     = errors.New("login throttled")
)

// AuthService coordinates registration and login flows. It holds no
// request-scoped state; every dependency is safe for concurrent use.
type AuthService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	tokens     *auth.TokenCodec
	limiter    *LoginLimiter
	dispatcher events.Dispatcher
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     auth.PasswordHasher
	Tokens     *auth.TokenCodec
	Limiter    *LoginLimiter
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
	}
}

// Register creates a new identity. On success exactly one record is
// written; every failure path leaves the store untouched. A concurrent
// duplicate insert surfaces from the store and maps to ErrIdentityExists.
func (s *AuthService) Register(ctx context.Context, email, password, rawRole string) (*domain.User, error) {
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRole, err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrIdentityExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdentity) {
			return nil, ErrIdentityExists
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user.Email, user.Role, "")
	return user, nil
}

// Login verifies the password and mints a token carrying the stored role.
// It performs no writes against the credential store.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.Role, error) {
	if s.limiter.Throttled(ctx, email) {
		s.publish(ctx, events.EventLoginDenied, email, "", "throttled")
		return "", "", ErrLoginThrottled
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.limiter.RecordFailure(ctx, email)
		s.publish(ctx, events.EventLoginDenied, email, "", "password mismatch")
		return "", "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Mint(user.Email, user.Role, time.Now())
	if err != nil {
		return "", "", err
	}

	s.limiter.Reset(ctx, email)
	s.publish(ctx, events.EventLoginSucceeded, user.Email, user.Role, "")
	return token, user.Role, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject string, role domain.Role, reason string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Role:      role,
		Timestamp: time.Now(),
		Reason:    reason,
	})
}
