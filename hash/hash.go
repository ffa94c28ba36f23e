// Package hash implements the digest primitive used by Robokassa signatures.
package hash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	stdhash "hash"
	"strings"

	"golang.org/x/crypto/ripemd160"
)

// Algorithm is the digest function configured for a merchant in the Robokassa dashboard.
type Algorithm string

const (
	MD5       Algorithm = "md5"
	RIPEMD160 Algorithm = "ripemd160"
	SHA1      Algorithm = "sha1"
	SHA256    Algorithm = "sha256"
	SHA384    Algorithm = "sha384"
	SHA512    Algorithm = "sha512"
)

// Default is the algorithm Robokassa assigns to new shops.
const Default = MD5

var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

// Algorithms lists every supported algorithm.
func Algorithms() []Algorithm {
	return []Algorithm{MD5, RIPEMD160, SHA1, SHA256, SHA384, SHA512}
}

// ParseAlgorithm maps a case-insensitive name to an Algorithm.
// An empty value selects Default.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default, nil
	}
	alg := Algorithm(name)
	if !alg.Valid() {
		return "", ErrUnsupportedAlgorithm
	}
	return alg, nil
}

func (a Algorithm) String() string { return string(a) }

// Valid reports whether a is one of the six supported algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case MD5, RIPEMD160, SHA1, SHA256, SHA384, SHA512:
		return true
	default:
		return false
	}
}

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() (stdhash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case RIPEMD160:
		return ripemd160.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// Sum returns the lowercase hex digest of the UTF-8 bytes of data.
func Sum(alg Algorithm, data string) (string, error) {
	h, err := alg.New()
	if err != nil {
		return "", err
	}
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil)), nil
}
