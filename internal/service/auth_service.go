package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/user"
	infrastructure "skillswap/internal/interfaces/infrastructure"
	interfaces "skillswap/internal/interfaces/service"
	"skillswap/pkg/logger"

	"github.com/google/uuid"
)

// TokenIssuer issues and verifies access tokens
type TokenIssuer interface {
	Generate(userID uuid.UUID, role string) (string, time.Time, error)
	UserIDFromToken(token string) (uuid.UUID, error)
}

type authService struct {
	users  infrastructure.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(users infrastructure.UserRepository, hasher PasswordHasher, tokens TokenIssuer) interfaces.AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Login checks credentials. Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, req *user.LoginRequest) (*interfaces.LoginResult, error) {
	creds := *req
	creds.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate(&creds); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Authentication("invalid email or password")
		}
		return nil, err
	}
	if err := s.hasher.Compare(u.PasswordHash, creds.Password); err != nil {
		logger.Debug("Failed login for user %s: %v", u.ID, err)
		return nil, apperror.Authentication("invalid email or password")
	}
	if !u.Active {
		return nil, apperror.Authentication("account is deactivated")
	}

	token, expiresAt, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return nil, err
	}

	logger.WithField("user_id", u.ID).Info("User logged in")
	return &interfaces.LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, apperror.Authentication("missing bearer token")
	}
	id, err := s.tokens.UserIDFromToken(token)
	if err != nil {
		return uuid.Nil, apperror.Authentication("invalid or expired token")
	}

	// A token outlives deactivation, so the account state is checked on every call.
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return uuid.Nil, apperror.Authentication("invalid or expired token")
		}
		return uuid.Nil, err
	}
	if !u.Active {
		return uuid.Nil, apperror.Authentication("account is deactivated")
	}
	return id, nil
}
