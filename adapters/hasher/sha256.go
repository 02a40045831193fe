package hasher

import (
	"crypto/sha256"

	sha256simd "github.com/minio/sha256-simd"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
)

// NewSHA256 returns a domain.Hasher backed by the standard library SHA‑256.
func NewSHA256() domain.Hasher {
	return sumHasher{alg: domain.SHA256, sum: sha256.Sum256}
}

// NewSIMD returns a SHA-256 domain.Hasher that uses SHA extensions / AVX when the CPU has them.
func NewSIMD() domain.Hasher {
	return sumHasher{alg: domain.SHA256, sum: sha256simd.Sum256}
}
