package hasher

import (
	"golang.org/x/crypto/sha3"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
)

func NewSHA3() domain.Hasher {
	return sumHasher{alg: domain.SHA3_256, sum: sha3.Sum256}
}
