package hasher

import (
	"github.com/zeebo/blake3"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
)

// NewBLAKE3 returns a hasher producing the default 32-byte BLAKE3 output.
func NewBLAKE3() domain.Hasher {
	return sumHasher{alg: domain.BLAKE3, sum: blake3.Sum256}
}
