// Package secrethash hashes and verifies the lock and share passwords named
// in spec §3 ("optional password hash (argon2 family)") and §9 ("tuned
// parameters: time cost ~3, memory cost tuned per deployment"). No example
// repo in the retrieval pack carries a password hashing dependency;
// golang.org/x/crypto/argon2 is the standard extended-stdlib module for it.
package secrethash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params tunes the argon2id cost; defaults match spec §9's "time cost ~3".
type Params struct {
	TimeCost   uint32
	MemoryCost uint32 // KiB
	Threads    uint8
	SaltLen    uint32
	KeyLen     uint32
}

func DefaultParams() Params {
	return Params{TimeCost: 3, MemoryCost: 64 * 1024, Threads: 2, SaltLen: 16, KeyLen: 32}
}

// Hash returns an encoded string of the form
// argon2id$v=19$m=...,t=...,p=...$salt$hash, self-describing so Verify
// never needs out-of-band parameter storage.
func Hash(password string, p Params) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("secrethash: read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.TimeCost, p.MemoryCost, p.Threads, p.KeyLen)

	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryCost, p.TimeCost, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded, using a constant-time
// comparison on the derived key.
func Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return false, fmt.Errorf("secrethash: malformed encoded hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil {
		return false, fmt.Errorf("secrethash: parse version: %w", err)
	}

	var memory, timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false, fmt.Errorf("secrethash: parse params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("secrethash: decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("secrethash: decode hash: %w", err)
	}

	got := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
