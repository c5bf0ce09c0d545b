package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const argonPrefix = "$argon2id$"

// argonParams is the cost section of an encoded Argon2id hash.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

var currentParams = argonParams{memory: 64 * 1024, time: 1, threads: 4}

const (
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// Hash returns the Argon2id hash stored for new passwords, encoded as
// $argon2id$v=19$m=..,t=..,p=..$salt$key.
func Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password salt: %w", err)
	}
	p := currentParams
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, argonKeyLen)
	return strings.Join([]string{
		"",
		"argon2id",
		"v=" + strconv.Itoa(argon2.Version),
		p.String(),
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	}, "$"), nil
}

var b64 = base64.RawStdEncoding

func (p argonParams) String() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, p.threads)
}

func parseArgonParams(s string) (argonParams, bool) {
	var p argonParams
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return p, false
	}
	values := make([]uint64, len(fields))
	bits := []int{32, 32, 8}
	for i, prefix := range []string{"m=", "t=", "p="} {
		raw, ok := strings.CutPrefix(fields[i], prefix)
		if !ok {
			return p, false
		}
		v, err := strconv.ParseUint(raw, 10, bits[i])
		if err != nil || v == 0 {
			return p, false
		}
		values[i] = v
	}
	p.memory = uint32(values[0])
	p.time = uint32(values[1])
	p.threads = uint8(values[2])
	return p, true
}

// Verify checks password against an encoded hash. Besides Argon2id it
// accepts bcrypt hashes and unsalted SHA-256 hex digests from older
// account tables.
func Verify(password, encoded string) bool {
	encoded = strings.TrimSpace(encoded)
	switch {
	case strings.HasPrefix(encoded, argonPrefix):
		return verifyArgon2id(password, encoded)
	case isBcrypt(encoded):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	case isSHA256Hex(encoded):
		sum := sha256.Sum256([]byte(password))
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(encoded))) == 1
	}
	return false
}

// NeedsRehash reports whether encoded should be replaced by a fresh Hash:
// legacy digests and Argon2id hashes with outdated costs.
func NeedsRehash(encoded string) bool {
	parts := strings.Split(strings.TrimSpace(encoded), "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return true
	}
	p, ok := parseArgonParams(parts[3])
	return !ok || p != currentParams
}

func isBcrypt(encoded string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, prefix) {
			return true
		}
	}
	return false
}

func isSHA256Hex(encoded string) bool {
	if len(encoded) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(encoded)
	return err == nil
}

func verifyArgon2id(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return false
	}
	p, ok := parseArgonParams(parts[3])
	if !ok {
		return false
	}
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return false
	}
	check := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, check) == 1
}
