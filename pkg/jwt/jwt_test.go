package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestIssueVerify_ExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	issuer := NewIssuer([]byte("secret"), 24*time.Hour, WithClock(clock.Now))
	userID := uuid.New()

	token, expiresAt, err := issuer.Issue(userID, "alice", "REGULAR")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !expiresAt.Equal(clock.t.Add(24 * time.Hour)) {
		t.Errorf("unexpected expiry %v", expiresAt)
	}

	clock.t = clock.t.Add(time.Hour)
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("expected token valid at t+1h, got %v", err)
	}
	if claims.UserID != userID || claims.Role != "REGULAR" || claims.Username != "alice" {
		t.Errorf("unexpected claims %+v", claims)
	}

	clock.t = clock.t.Add(24 * time.Hour)
	if _, err := issuer.Verify(token); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired at t+25h, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	a := NewIssuer([]byte("secret-a"), time.Hour)
	b := NewIssuer([]byte("secret-b"), time.Hour)

	token, _, err := a.Issue(uuid.New(), "bob", "ADMIN")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := b.Verify(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	token, _, _ := issuer.Issue(uuid.New(), "bob", "REGULAR")
	other, _, _ := issuer.Issue(uuid.New(), "eve", "ADMIN")

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	if _, err := issuer.Verify(forged); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)

	for _, tok := range []string{"garbage", "a.b.c", "a.b"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrMalformed) {
			t.Errorf("Verify(%q) = %v, want ErrMalformed", tok, err)
		}
	}
	if _, err := issuer.Verify(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}
