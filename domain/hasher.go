package domain

import "errors"

// Algorithm names a digest function.
type Algorithm string

const (
	SHA256   Algorithm = "sha256"
	SHA3_256 Algorithm = "sha3-256"
	BLAKE3   Algorithm = "blake3"
)

// DefaultAlgorithm is what callers get when they don't ask for one.
const DefaultAlgorithm = SHA256

// DigestSize is the length in bytes of every supported digest.
const DigestSize = 32

// HexSize is the length of a rendered digest.
const HexSize = DigestSize * 2

var (
	ErrNilInput             = errors.New("input is nil")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrHashFailed           = errors.New("hash computation failed")
	ErrInvalidDigest        = errors.New("invalid digest")
)

// Hasher is the core port for any hashing strategy.
type Hasher interface {
	Algorithm() Algorithm
	// Hash returns the lowercase hex digest of data.
	Hash(data []byte) (string, error)
}

// Digest is a computed digest rendered as hex.
type Digest struct {
	Algorithm Algorithm `json:"algorithm"`
	Hex       string    `json:"hex"`
}

// String renders the digest as an "algorithm:hex" reference.
func (d Digest) String() string {
	return string(d.Algorithm) + ":" + d.Hex
}
