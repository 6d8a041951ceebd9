// Package password provides credential strength validation and one-way
// hashing. The argon2id hasher encodes parameters in PHC string format
// so work factors can be raised without invalidating stored hashes.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// Hasher is the pluggable one-way hashing collaborator. Implementations
// must compare in constant time and never log inputs.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	NeedsRehash(encodedHash string) (bool, error)
}

// Argon2Config defines a public type used by homeaze-auth APIs.
//
// Argon2Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Argon2Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Argon2 defines a public type used by homeaze-auth APIs.
//
// Argon2 instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Argon2 struct {
	config Argon2Config
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// NewArgon2 validates the work-factor configuration and returns a hasher.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if cfg.Memory < minMemoryKB {
		return nil, errors.New("argon2 memory below minimum")
	}
	if cfg.Time < minTimeCost {
		return nil, errors.New("argon2 time cost below minimum")
	}
	if cfg.Parallelism < minParallelism {
		return nil, errors.New("argon2 parallelism below minimum")
	}
	if cfg.SaltLength < minSaltLength {
		return nil, errors.New("argon2 salt length below minimum")
	}
	if cfg.KeyLength < minKeyLength {
		return nil, errors.New("argon2 key length below minimum")
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives an argon2id hash of the password with a fresh random salt
// and returns it in PHC string format.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash),
	), nil
}

// Verify recomputes the hash with the parameters embedded in encodedHash
// and compares in constant time.
func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsRehash reports whether the stored hash was produced with weaker
// parameters than the current configuration.
func (a *Argon2) NeedsRehash(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	return parsed.memory < a.config.Memory ||
		parsed.time < a.config.Time ||
		parsed.parallelism < a.config.Parallelism ||
		parsed.keyLength < a.config.KeyLength, nil
}

func parsePHC(encoded string) (parsedPHC, error) {
	var out parsedPHC

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return out, errors.New("malformed hash encoding")
	}
	if parts[1] != algorithmID {
		return out, errors.New("unsupported hash algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return out, errors.New("malformed hash version")
	}
	if version != argon2.Version {
		return out, errors.New("unsupported argon2 version")
	}

	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return out, errors.New("malformed hash parameters")
	}
	for _, p := range params {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return out, errors.New("malformed hash parameters")
		}
		v, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return out, errors.New("malformed hash parameters")
		}
		switch kv[0] {
		case "m":
			out.memory = uint32(v)
		case "t":
			out.time = uint32(v)
		case "p":
			if v > 255 {
				return out, errors.New("malformed hash parameters")
			}
			out.parallelism = uint8(v)
		default:
			return out, errors.New("malformed hash parameters")
		}
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return out, errors.New("malformed hash salt")
	}
	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return out, errors.New("malformed hash digest")
	}

	out.salt = salt
	out.hash = hash
	out.keyLength = uint32(len(hash))
	return out, nil
}
