// Package cryptox holds the password hashing used by the credential verifier.
//
// Hashes are stored in the PHC-style argon2id encoding
//
//	$argon2id$v=19$m=<memKiB>,t=<iterations>,p=<parallelism>$<salt>$<key>
//
// with salt and key in unpadded standard base64.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash is returned when an encoded hash cannot be parsed or carries
// parameters outside the accepted bounds.
var ErrInvalidHash = errors.New("invalid password hash")

// PasswordHasher turns a secret into a storable hash and checks a secret
// against such a hash.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(encoded, secret string) (bool, error)
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params follow the OWASP argon2id baseline.
var DefaultArgon2Params = Argon2Params{
	MemoryKiB:   64 * 1024,
	Iterations:  1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

const argon2Version = 19

// Argon2Hasher implements PasswordHasher with argon2id.
type Argon2Hasher struct {
	Params Argon2Params
}

// NewArgon2Hasher returns a hasher with the given parameters.
func NewArgon2Hasher(p Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{Params: p}
}

func deriveKey(secret, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(secret, salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)
}

// Hash derives a key from secret with a fresh random salt and returns the
// encoded form.
func (h *Argon2Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, h.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := deriveKey([]byte(secret), salt, h.Params)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.Params.MemoryKiB, h.Params.Iterations, h.Params.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

// Verify reports whether secret matches encoded. A malformed hash yields
// ErrInvalidHash; a mismatch yields (false, nil).
func (h *Argon2Hasher) Verify(encoded, secret string) (bool, error) {
	p, salt, expected, err := decode(encoded)
	if err != nil {
		return false, err
	}
	if !withinBounds(p, h.Params) {
		return false, ErrInvalidHash
	}

	key := deriveKey([]byte(secret), salt, p)
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// withinBounds refuses hashes whose cost would let a stored value force
// excessive work on verification.
func withinBounds(got, limits Argon2Params) bool {
	switch {
	case uint64(got.MemoryKiB) > uint64(limits.MemoryKiB)*2,
		uint64(got.Iterations) > uint64(limits.Iterations)*2,
		int(got.Parallelism) > int(limits.Parallelism)*2,
		got.SaltLength < 8 || got.SaltLength > 64,
		got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}
	return true
}

func decode(encoded string) (Argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}

	return Argon2Params{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}, salt, key, nil
}
