package password

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// Small parameters keep the tests fast; production values come from config.
var testParams = Params{MemoryKiB: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashVerify(t *testing.T) {
	h := NewHasher(testParams, 2)
	ctx := context.Background()

	encoded, err := h.Hash(ctx, "correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Errorf("unexpected encoding %q", encoded)
	}
	if strings.Contains(encoded, "correct horse") {
		t.Fatal("plaintext leaked into hash")
	}

	ok, err := h.Verify(ctx, "correct horse", encoded)
	if err != nil || !ok {
		t.Errorf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify(ctx, "wrong horse", encoded)
	if err != nil || ok {
		t.Errorf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHash_Salted(t *testing.T) {
	h := NewHasher(testParams, 1)
	a, _ := h.Hash(context.Background(), "same")
	b, _ := h.Hash(context.Background(), "same")
	if a == b {
		t.Error("two hashes of the same password must differ")
	}
}

func TestVerify_ParamsTravelWithHash(t *testing.T) {
	old := NewHasher(testParams, 1)
	encoded, _ := old.Hash(context.Background(), "pw")

	stronger := testParams
	stronger.Iterations = 2
	current := NewHasher(stronger, 1)

	ok, err := current.Verify(context.Background(), "pw", encoded)
	if err != nil || !ok {
		t.Errorf("old hash should still verify, got ok=%v err=%v", ok, err)
	}
}

func TestVerify_InvalidHash(t *testing.T) {
	h := NewHasher(testParams, 1)
	for _, enc := range []string{"", "plain", "$2a$10$bcrypt", "$argon2id$v=19$m=x$a$b", "$argon2id$v=18$m=64,t=1,p=1$c2FsdA$a2V5"} {
		if _, err := h.Verify(context.Background(), "pw", enc); err == nil {
			t.Errorf("Verify with %q should fail", enc)
		}
	}
	_, err := h.Verify(context.Background(), "pw", "$argon2id$v=18$m=64,t=1,p=1$c2FsdA$a2V5")
	if !errors.Is(err, ErrIncompatibleVersion) {
		t.Errorf("expected ErrIncompatibleVersion, got %v", err)
	}
}

func TestVerifyDummy(t *testing.T) {
	h := NewHasher(testParams, 1)
	if err := h.VerifyDummy(context.Background(), "anything"); err != nil {
		t.Errorf("VerifyDummy failed: %v", err)
	}
}

func TestHash_CanceledContext(t *testing.T) {
	h := NewHasher(testParams, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Hold the only worker so Acquire has to wait on the canceled context.
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer h.sem.Release(1)

	if _, err := h.Hash(ctx, "pw"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
