package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count for new hashes. The
	// count is serialized into every stored hash, so raising it later keeps
	// old records verifiable.
	DefaultIterations = 210000

	saltLen = 16
	keyLen  = 32
)

// Hasher derives and verifies password hashes. The zero iteration count is
// replaced by DefaultIterations, so Hasher{} is usable as-is.
type Hasher struct {
	Iterations int
}

// Hash derives a PBKDF2-SHA256 hash over the password with a fresh random
// salt and serializes it as "iterations:saltHex:hashHex".
func (h Hasher) Hash(password string) (string, error) {
	iters := h.Iterations
	if iters <= 0 {
		iters = DefaultIterations
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iters, keyLen, sha256.New)
	return fmt.Sprintf("%d:%s:%s", iters, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify re-derives the hash with the salt and iteration count embedded in
// stored and compares in constant time. A wrong password is an expected,
// frequent outcome, so any mismatch — including malformed or truncated
// stored values — is reported as false, never as an error.
func (h Hasher) Verify(password, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 3 {
		return false
	}
	iters, err := strconv.Atoi(parts[0])
	if err != nil || iters <= 0 {
		return false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, iters, len(want), sha256.New)
	return hmac.Equal(got, want)
}
