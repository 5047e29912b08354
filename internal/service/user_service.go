package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, creatorID uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, updaterID uuid.UUID) (*model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID, deleterID uuid.UUID) error
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	// ResetPassword sets a new password by username. Operator tooling only.
	ResetPassword(ctx context.Context, username, newPassword string) error
	// EnsureAdmin seeds an administrator when the user table is empty and reports whether it did.
	EnsureAdmin(ctx context.Context, username, plaintext string) (bool, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,username,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     string `json:"role" validate:"required,role"`
}

type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,username,min=3,max=50"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=128"`
	Role     *string `json:"role,omitempty" validate:"omitempty,role"`
}

type userService struct {
	userRepo repository.UserRepository
	hasher   *password.Hasher
}

func NewUserService(userRepo repository.UserRepository, hasher *password.Hasher) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, creatorID uuid.UUID) (*model.User, error) {
	// 1. Validate request
	if err := validate(req); err != nil {
		return nil, err
	}
	role, _ := model.ParseRole(req.Role)

	// 2. Cheap duplicate check before paying for the hash
	if existing, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, ErrDuplicateUsername
	}

	// 3. Hash outside any transaction
	hashed, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, storeError(err, nil)
	}

	user := &model.User{
		Username: req.Username,
		Password: hashed,
		Role:     role,
	}
	if creatorID != uuid.Nil {
		user.CreatedBy = creatorID.String()
		user.UpdatedBy = creatorID.String()
	}

	// 4. The unique index settles races between concurrent creates
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, storeError(err, nil)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, updaterID uuid.UUID) (*model.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}

	// Only the fields present in the request are written, so a concurrent
	// password change or delete is not overwritten.
	var columns []string
	if req.Username != nil && *req.Username != user.Username {
		if existing, err := s.userRepo.FindByUsername(ctx, *req.Username); err == nil && existing.ID != user.ID {
			return nil, ErrDuplicateUsername
		}
		user.Username = *req.Username
		columns = append(columns, "username")
	}
	if req.Role != nil {
		role, _ := model.ParseRole(*req.Role)
		user.Role = role
		columns = append(columns, "role")
	}
	if req.Password != nil {
		hashed, err := s.hasher.Hash(ctx, *req.Password)
		if err != nil {
			return nil, storeError(err, nil)
		}
		user.Password = hashed
		columns = append(columns, "password")
	}
	user.UpdatedBy = updaterID.String()

	if err := s.userRepo.Update(ctx, user, columns...); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, storeError(err, ErrUserNotFound)
	}
	return user, nil
}

// DeleteUser soft-deletes the account; transactions it recorded keep pointing at it.
func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID, deleterID uuid.UUID) error {
	if userID == deleterID {
		return ErrCannotDeleteSelf
	}
	if err := s.userRepo.Delete(ctx, userID, deleterID.String()); err != nil {
		return storeError(err, ErrUserNotFound)
	}
	return nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, nil)
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return storeError(err, ErrUserNotFound)
	}
	hashed, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return storeError(err, nil)
	}
	return storeError(s.userRepo.UpdatePassword(ctx, user.ID, hashed), ErrUserNotFound)
}

func (s *userService) EnsureAdmin(ctx context.Context, username, plaintext string) (bool, error) {
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, storeError(err, nil)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := s.CreateUser(ctx, &CreateUserRequest{
		Username: username,
		Password: plaintext,
		Role:     string(model.RoleAdmin),
	}, uuid.Nil); err != nil {
		return false, err
	}
	log.Printf("Seeded administrator %q; change its password now", username)
	return true, nil
}
