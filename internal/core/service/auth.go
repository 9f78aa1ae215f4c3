package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for new password hashes.
const (
	argon2Time    = 2
	argon2Memory  = 16384 // KiB
	argon2Threads = 2
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// ErrInvalidHash is returned for a password hash that is not a
// supported argon2id PHC string.
var ErrInvalidHash = errors.New("service: invalid argon2id hash")

// HashPassword returns an argon2id PHC string for password:
//
//	$argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("service: generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// PasswordVerifier checks passwords against one parsed argon2id hash.
type PasswordVerifier struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// ParsePasswordHash parses an argon2id PHC string.
func ParsePasswordHash(encoded string) (*PasswordVerifier, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrInvalidHash
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("%w: algorithm %q", ErrInvalidHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: version %q", ErrInvalidHash, parts[2])
	}

	v := &PasswordVerifier{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &v.memory, &v.time, &v.threads); err != nil {
		return nil, fmt.Errorf("%w: parameters %q", ErrInvalidHash, parts[3])
	}
	if v.memory == 0 || v.time == 0 || v.threads == 0 {
		return nil, fmt.Errorf("%w: parameters %q", ErrInvalidHash, parts[3])
	}

	var err error
	if v.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	if v.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(v.key) == 0 {
		return nil, fmt.Errorf("%w: key", ErrInvalidHash)
	}
	return v, nil
}

// Verify reports whether password matches. The comparison is constant
// time.
func (v *PasswordVerifier) Verify(password []byte) bool {
	computed := argon2.IDKey(password, v.salt, v.time, v.memory, v.threads, uint32(len(v.key)))
	return subtle.ConstantTimeCompare(computed, v.key) == 1
}
