package service

import (
	"context"
	"errors"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/jwt"
)

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	resp, err := e.auth.Login(context.Background(), "clerk", "clerk123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" || resp.User.Username != "clerk" || resp.User.Role != model.RoleRegular {
		t.Errorf("unexpected login response %+v", resp)
	}

	claims, err := e.auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != e.clerk.ID || claims.Role != model.RoleRegular {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestLogin_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, unknown := e.auth.Login(ctx, "nobody", "whatever")
	_, wrong := e.auth.Login(ctx, "clerk", "whatever")
	if !errors.Is(unknown, ErrAuthFailure) || !errors.Is(wrong, ErrAuthFailure) {
		t.Fatalf("got %v and %v, want ErrAuthFailure for both", unknown, wrong)
	}
	if unknown.Error() != wrong.Error() {
		t.Errorf("messages differ: %q vs %q", unknown, wrong)
	}
}

func TestLogin_UsernameIsCaseSensitive(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.auth.Login(context.Background(), "CLERK", "clerk123"); !errors.Is(err, ErrAuthFailure) {
		t.Errorf("got %v, want ErrAuthFailure", err)
	}
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.auth.ValidateToken("not-a-token"); !errors.Is(err, jwt.ErrMalformed) {
		t.Errorf("got %v, want ErrMalformed", err)
	}
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	err := e.auth.ChangePassword(ctx, e.clerk.ID, &ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpass1"})
	if !errors.Is(err, ErrAuthFailure) {
		t.Fatalf("wrong current password: got %v", err)
	}
	if err := e.auth.ChangePassword(ctx, e.clerk.ID, &ChangePasswordRequest{CurrentPassword: "clerk123", NewPassword: "newpass1"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := e.auth.Login(ctx, "clerk", "clerk123"); !errors.Is(err, ErrAuthFailure) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := e.auth.Login(ctx, "clerk", "newpass1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}
