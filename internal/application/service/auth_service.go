package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"github.com/coopec/missions-backend/pkg/utils"
)

// AuthResult bundles the authenticated user with the issued session tokens
type AuthResult struct {
	User         *entity.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// AuthService authenticates users and issues session tokens
type AuthService interface {
	// Authenticate checks the credentials and returns fresh tokens.
	// A wrong identifiant and a wrong password are indistinguishable.
	Authenticate(ctx context.Context, identifiant, password string) (*AuthResult, error)

	// Refresh exchanges a valid refresh token for a fresh pair
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
}

type authServiceImpl struct {
	userRepo port.UserRepository
	tokenMgr *utils.TokenManager
	logger   Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo port.UserRepository, tokenMgr *utils.TokenManager, logger Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		tokenMgr: tokenMgr,
		logger:   logger,
	}
}

func (s *authServiceImpl) Authenticate(ctx context.Context, identifiant, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByIdentifiant(ctx, identifiant)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || !user.Active {
		return nil, fmt.Errorf("%w: invalid credentials", ErrNotAuthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrNotAuthorized)
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User authenticated", "user_id", user.ID, "identifiant", user.Identifiant)
	return result, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	msg, err := s.tokenMgr.CheckToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrNotAuthorized)
	}

	user, err := s.userRepo.GetByID(ctx, msg.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || !user.Active {
		return nil, fmt.Errorf("%w: account is no longer active", ErrNotAuthorized)
	}

	return s.issueTokens(user)
}

func (s *authServiceImpl) issueTokens(user *entity.User) (*AuthResult, error) {
	access, refresh, err := s.tokenMgr.CreateTokens(&utils.JWTMessage{
		UserID:      user.ID,
		Identifiant: user.Identifiant,
		Role:        user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create tokens: %w", err)
	}

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
