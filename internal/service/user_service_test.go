package service

import (
	"context"
	"errors"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/testutil"
	"go-inventory-ledger/pkg/password"

	"github.com/google/uuid"
)

func TestCreateUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateUserRequest
		want error
	}{
		{"duplicate", CreateUserRequest{Username: "clerk", Password: "secret1", Role: "REGULAR"}, ErrDuplicateUsername},
		{"unknown role", CreateUserRequest{Username: "dave", Password: "secret1", Role: "MANAGER"}, ErrValidation},
		{"short password", CreateUserRequest{Username: "dave", Password: "abc", Role: "REGULAR"}, ErrValidation},
		{"short username", CreateUserRequest{Username: "da", Password: "secret1", Role: "REGULAR"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := e.users.CreateUser(ctx, &req, e.admin.ID); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	user, err := e.users.CreateUser(ctx, &CreateUserRequest{Username: "Clerk", Password: "secret1", Role: "regular"}, e.admin.ID)
	if err != nil {
		t.Fatalf("usernames differing only in case must both exist: %v", err)
	}
	if user.Role != model.RoleRegular || user.Password == "secret1" {
		t.Errorf("unexpected stored user %+v", user)
	}
}

func TestUpdateUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	role := "ADMIN"
	pw := "promoted1"
	updated, err := e.users.UpdateUser(ctx, e.clerk.ID, &UpdateUserRequest{Role: &role, Password: &pw}, e.admin.ID)
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Role != model.RoleAdmin {
		t.Errorf("role = %s", updated.Role)
	}
	if _, err := e.auth.Login(ctx, "clerk", "promoted1"); err != nil {
		t.Errorf("login with reset password: %v", err)
	}

	name := "admin"
	if _, err := e.users.UpdateUser(ctx, e.clerk.ID, &UpdateUserRequest{Username: &name}, e.admin.ID); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("rename onto existing: got %v", err)
	}
	if _, err := e.users.UpdateUser(ctx, uuid.New(), &UpdateUserRequest{Role: &role}, e.admin.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if err := e.users.DeleteUser(ctx, e.admin.ID, e.admin.ID); !errors.Is(err, ErrCannotDeleteSelf) {
		t.Errorf("self delete: got %v", err)
	}
	if err := e.users.DeleteUser(ctx, e.clerk.ID, e.admin.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := e.auth.Login(ctx, "clerk", "clerk123"); !errors.Is(err, ErrAuthFailure) {
		t.Errorf("deleted user can still log in: %v", err)
	}
	if err := e.users.DeleteUser(ctx, e.clerk.ID, e.admin.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestEnsureAdmin_OnlyOnEmptyStore(t *testing.T) {
	db := testutil.NewDB(t)
	users := NewUserService(repository.NewUserRepo(db), password.NewHasher(testParams, 1))
	ctx := context.Background()

	seeded, err := users.EnsureAdmin(ctx, "admin", "admin123")
	if err != nil || !seeded {
		t.Fatalf("EnsureAdmin on empty store = %v, %v", seeded, err)
	}
	seeded, err = users.EnsureAdmin(ctx, "other", "admin123")
	if err != nil || seeded {
		t.Errorf("EnsureAdmin on populated store = %v, %v", seeded, err)
	}

	all, err := users.GetAllUsers(ctx)
	if err != nil {
		t.Fatalf("GetAllUsers: %v", err)
	}
	if len(all) != 1 || all[0].Role != model.RoleAdmin {
		t.Errorf("unexpected users %+v", all)
	}
}

func TestResetPassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if err := e.users.ResetPassword(ctx, "clerk", "fresh-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := e.auth.Login(ctx, "clerk", "fresh-pass"); err != nil {
		t.Errorf("login after reset: %v", err)
	}
	if err := e.users.ResetPassword(ctx, "ghost", "fresh-pass"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: got %v", err)
	}
}

// interleavedUserRepo runs between once, right after the next FindByID, so a
// competing writer lands between the service's read and its write.
type interleavedUserRepo struct {
	repository.UserRepository
	between func()
}

func (r *interleavedUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := r.UserRepository.FindByID(ctx, id)
	if f := r.between; f != nil {
		r.between = nil
		f()
	}
	return user, err
}

func TestUpdateUser_DoesNotReviveDeletedUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	repo := &interleavedUserRepo{UserRepository: repository.NewUserRepo(e.db)}
	users := NewUserService(repo, password.NewHasher(testParams, 1))

	repo.between = func() {
		if err := e.users.DeleteUser(ctx, e.clerk.ID, e.admin.ID); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}
	}
	role := "ADMIN"
	if _, err := users.UpdateUser(ctx, e.clerk.ID, &UpdateUserRequest{Role: &role}, e.admin.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("update of a user deleted meanwhile: got %v, want ErrUserNotFound", err)
	}

	var stored model.User
	if err := e.db.Unscoped().First(&stored, "id = ?", e.clerk.ID).Error; err != nil {
		t.Fatalf("load clerk: %v", err)
	}
	if !stored.DeletedAt.Valid || stored.Role != model.RoleRegular {
		t.Errorf("deleted clerk changed: deleted=%v role=%s", stored.DeletedAt.Valid, stored.Role)
	}
	if _, err := e.auth.Login(ctx, "clerk", "clerk123"); !errors.Is(err, ErrAuthFailure) {
		t.Errorf("deleted clerk can log in again: %v", err)
	}
}

func TestUpdateUser_KeepsConcurrentPasswordChange(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	repo := &interleavedUserRepo{UserRepository: repository.NewUserRepo(e.db)}
	users := NewUserService(repo, password.NewHasher(testParams, 1))

	repo.between = func() {
		if err := e.auth.ChangePassword(ctx, e.clerk.ID, &ChangePasswordRequest{CurrentPassword: "clerk123", NewPassword: "changed1"}); err != nil {
			t.Fatalf("ChangePassword: %v", err)
		}
	}
	role := "ADMIN"
	if _, err := users.UpdateUser(ctx, e.clerk.ID, &UpdateUserRequest{Role: &role}, e.admin.ID); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if _, err := e.auth.Login(ctx, "clerk", "changed1"); err != nil {
		t.Errorf("password change was overwritten: %v", err)
	}
	if me, err := e.auth.Me(ctx, e.clerk.ID); err != nil || me.Role != model.RoleAdmin {
		t.Errorf("role update lost: %+v %v", me, err)
	}
}
