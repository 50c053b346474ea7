// Package password implements argon2id password hashing in the PHC string
// format ($argon2id$v=19$m=...,t=...,p=...$salt$hash).
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

const algorithmID = "argon2id"

// Params controls the argon2id cost. Instances are immutable after
// construction of a Hasher.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams matches the cost the service has always hashed with
// (m=65536,t=3,p=4), so existing hashes verify without an upgrade pass.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Hasher struct {
	params Params
}

func NewHasher(p Params) (*Hasher, error) {
	if p.Memory < 8*1024 {
		return nil, errors.New("argon2 memory must be >= 8192 KiB")
	}
	if p.Time < 1 {
		return nil, errors.New("argon2 time must be >= 1")
	}
	if p.Parallelism < 1 {
		return nil, errors.New("argon2 parallelism must be >= 1")
	}
	if p.SaltLength < 16 {
		return nil, errors.New("argon2 salt length must be >= 16")
	}
	if p.KeyLength < 16 {
		return nil, errors.New("argon2 key length must be >= 16")
	}
	return &Hasher{params: p}, nil
}

// Hash derives a key from password with a fresh random salt and encodes the
// result as a PHC string.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the PHC-encoded hash. The key
// comparison is constant-time. Cost parameters come from the encoded hash,
// not from the Hasher, so old hashes stay verifiable after a cost bump.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	p, salt, key, err := decode(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func decode(encodedHash string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return p, nil, nil, errors.New("unsupported algorithm")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return p, nil, nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return p, nil, nil, errors.New("unsupported argon2 version")
	}

	var parallelism uint64
	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return p, nil, nil, errors.New("invalid parameter entry")
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				return p, nil, nil, errors.New("invalid memory parameter")
			}
			p.Memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				return p, nil, nil, errors.New("invalid time parameter")
			}
			p.Time = uint32(v)
		case "p":
			parallelism, err = strconv.ParseUint(kv[1], 10, 8)
			if err != nil {
				return p, nil, nil, errors.New("invalid parallelism parameter")
			}
			p.Parallelism = uint8(parallelism)
		default:
			return p, nil, nil, errors.New("unsupported parameter")
		}
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return p, nil, nil, errors.New("missing parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errors.New("invalid salt encoding")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, errors.New("invalid hash encoding")
	}
	if len(key) == 0 {
		return p, nil, nil, errors.New("invalid hash length")
	}

	return p, salt, key, nil
}
