package faultline

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Hasher performs one-way deterministic hashing.
type Hasher interface {
	// Hash returns the hex-encoded digest of data.
	Hash(data []byte) (string, error)
}

type sha256Hasher struct{}

// SHA256Hasher returns a SHA-256 hasher.
func SHA256Hasher() Hasher { return sha256Hasher{} }

func (sha256Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

type sha512Hasher struct{}

// SHA512Hasher returns a SHA-512 hasher.
func SHA512Hasher() Hasher { return sha512Hasher{} }

func (sha512Hasher) Hash(data []byte) (string, error) {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:]), nil
}

type blake2bHasher struct{}

// BLAKE2bHasher returns a BLAKE2b-256 hasher.
func BLAKE2bHasher() Hasher { return blake2bHasher{} }

func (blake2bHasher) Hash(data []byte) (string, error) {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// HasherFor returns the built-in hasher for algo.
func HasherFor(algo HashAlgo) (Hasher, error) {
	switch algo {
	case HashSHA256:
		return SHA256Hasher(), nil
	case HashSHA512:
		return SHA512Hasher(), nil
	case HashBLAKE2b:
		return BLAKE2bHasher(), nil
	}
	return nil, fmt.Errorf("%w: hash %q", ErrInvalidAlgorithm, algo)
}

// Fingerprint digests the parts of err that identify a recurring failure:
// name, code and message of err and of every error in its cause and
// aggregate structure. Stacks and custom properties are left out, so the
// same failure raised from different places groups together.
func Fingerprint(err error, algo HashAlgo) (string, error) {
	h, herr := HasherFor(algo)
	if herr != nil {
		return "", herr
	}
	return FingerprintWith(err, h)
}

// FingerprintWith is Fingerprint with a caller-supplied Hasher.
func FingerprintWith(err error, h Hasher) (string, error) {
	data, merr := json.Marshal(fingerprintShape(Serialize(err)))
	if merr != nil {
		return "", newCodecError(ErrMarshal, merr)
	}
	return h.Hash(data)
}

// fingerprintShape keeps the identifying keys of every error-shaped map.
func fingerprintShape(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, 5)
		for _, key := range [...]string{"name", "message", "code"} {
			if val, ok := x[key]; ok {
				out[key] = val
			}
		}
		if cause, ok := x["cause"]; ok {
			out["cause"] = fingerprintShape(cause)
		}
		if errs, ok := x["errors"]; ok {
			out["errors"] = fingerprintShape(errs)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = fingerprintShape(item)
		}
		return out
	}
	return v
}
