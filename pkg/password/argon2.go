// Package password hashes and verifies passwords with argon2id.
//
// Hashes are stored in the PHC string format
// ($argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>) so the cost parameters travel
// with the hash and older hashes keep verifying after the configuration changes.
package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

var (
	ErrInvalidHash         = errors.New("password hash is not a valid argon2id hash")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Params are the argon2id cost parameters.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher runs argon2id on a bounded number of concurrent workers so a burst of
// logins cannot starve the rest of the process of CPU.
type Hasher struct {
	params Params
	sem    *semaphore.Weighted

	dummyOnce sync.Once
	dummy     string
}

func NewHasher(params Params, workers int64) *Hasher {
	if workers <= 0 {
		workers = 1
	}
	return &Hasher{params: params, sem: semaphore.NewWeighted(workers)}
}

// Hash returns the encoded argon2id hash of plaintext.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)
	h.sem.Release(1)

	return encode(h.params, salt, key), nil
}

// Verify reports whether plaintext matches encoded. The key comparison is constant-time.
func (h *Hasher) Verify(ctx context.Context, plaintext, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	other := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.MemoryKiB, params.Parallelism, params.KeyLength)
	h.sem.Release(1)

	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// VerifyDummy burns the same work as a real verification. Callers use it when
// the account does not exist so response time does not reveal which usernames are valid.
func (h *Hasher) VerifyDummy(ctx context.Context, plaintext string) error {
	h.dummyOnce.Do(func() {
		salt := make([]byte, h.params.SaltLength)
		key := make([]byte, h.params.KeyLength)
		h.dummy = encode(h.params, salt, key)
	})
	_, err := h.Verify(ctx, plaintext, h.dummy)
	return err
}

func encode(p Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
