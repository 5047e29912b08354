package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	VerifyCredentials(ctx context.Context, username, password string) (*model.User, error)
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=128"`
}

type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      model.UserResponse `json:"user"`
}

type TokenValidationResponse struct {
	UserID    uuid.UUID  `json:"user_id"`
	Username  string     `json:"username"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type authService struct {
	userRepo repository.UserRepository
	hasher   *password.Hasher
	issuer   *jwt.Issuer
}

func NewAuthService(userRepo repository.UserRepository, hasher *password.Hasher, issuer *jwt.Issuer) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.issuer.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

// VerifyCredentials returns the same ErrAuthFailure for an unknown user and a
// wrong password, and pays for one hash either way.
func (s *authService) VerifyCredentials(ctx context.Context, username, plaintext string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeError(err, nil)
		}
		if err := s.hasher.VerifyDummy(ctx, plaintext); err != nil {
			return nil, storeError(err, nil)
		}
		return nil, ErrAuthFailure
	}

	ok, err := s.hasher.Verify(ctx, plaintext, user.Password)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) || errors.Is(err, password.ErrIncompatibleVersion) {
			return nil, ErrAuthFailure
		}
		return nil, storeError(err, nil)
	}
	if !ok {
		return nil, ErrAuthFailure
	}
	return user, nil
}

// ValidateToken is purely cryptographic; it never reads the user table.
func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	resp := &TokenValidationResponse{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     model.Role(claims.Role),
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	return resp, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return storeError(err, ErrUserNotFound)
	}
	if _, err := s.VerifyCredentials(ctx, user.Username, req.CurrentPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return storeError(err, nil)
	}
	return storeError(s.userRepo.UpdatePassword(ctx, user.ID, hashed), ErrUserNotFound)
}
