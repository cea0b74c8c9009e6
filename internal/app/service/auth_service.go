package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"classhub/internal/common"
	"classhub/internal/common/security"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type AuthService struct {
	userRepo  repository.UserRepository
	tokenSvc  *TokenService
	analytics *AnalyticsService

	profileGroup singleflight.Group
}

func NewAuthService(userRepo repository.UserRepository, tokenSvc *TokenService, analytics *AnalyticsService) *AuthService {
	return &AuthService{userRepo: userRepo, tokenSvc: tokenSvc, analytics: analytics}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type AuthResponse struct {
	User               *model.User `json:"user"`
	Token              string      `json:"token"`
	MustChangePassword bool        `json:"must_change_password"`
}

const minPasswordLength = 8

// Bcrypt hash of an unused password, compared against when the email is
// unknown so the response time matches the wrong-password path.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return nil, common.Errorf("email, name and password are required: %w", common.ErrBadRequest)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, common.Errorf("invalid email address: %w", common.ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, common.Errorf("password must be at least %d characters: %w", minPasswordLength, common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		Name:           req.Name,
		HashedPassword: hashedPassword,
		Role:           model.RoleStudent, // Default role
		Status:         model.StatusActive,
		FirstLogin:     false, // Self-registered users chose their own password
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo might return common.ErrConflict
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, _, err := security.GenerateToken(user.ID, user.Role, false)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.analytics.Increment(ctx, model.MetricRegistrations)
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.Errorf("email and password are required: %w", common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Generic answer, and burn a hash comparison so timing does
			// not reveal whether the email exists.
			security.CheckPasswordHash(req.Password, dummyPasswordHash)
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	if user.Status != model.StatusActive {
		return nil, common.Errorf("account is %s: %w", user.Status, common.ErrForbidden)
	}

	token, _, err := security.GenerateToken(user.ID, user.Role, user.FirstLogin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.analytics.Increment(ctx, model.MetricLogins)
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token, MustChangePassword: user.FirstLogin}, nil
}

// Logout denylists the presenting token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, userID, jti string, expiresAt time.Time) error {
	return s.tokenSvc.Revoke(ctx, jti, userID, model.RevokeReasonLogout, expiresAt)
}

// ChangePassword re-hashes, clears the first-login flag and revokes the
// presenting token so the client has to log in with the new password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, jti string, expiresAt time.Time, req ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return common.Errorf("password must be at least %d characters: %w", minPasswordLength, common.ErrValidation)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	// A first-login user is changing a temp password the token already
	// vouches for, so only settled accounts must prove the current one.
	if !user.FirstLogin {
		if req.CurrentPassword == "" {
			return common.Errorf("current password is required: %w", common.ErrBadRequest)
		}
		if !security.CheckPasswordHash(req.CurrentPassword, user.HashedPassword) {
			return common.ErrUnauthorized
		}
	}

	hashedPassword, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword, false); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokenSvc.Revoke(ctx, jti, userID, model.RevokeReasonPasswordChange, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token after password change: %w", err)
	}
	return nil
}

// GetProfile collapses concurrent fetches for the same user into one query.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	v, err, _ := s.profileGroup.Do(userID, func() (interface{}, error) {
		return s.userRepo.FindByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	user := *v.(*model.User) // Copy so callers can't race on the shared result
	user.HashedPassword = ""
	return &user, nil
}
