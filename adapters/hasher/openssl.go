//go:build linux && cgo

package hasher

import (
	"crypto"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/golang-fips/openssl/v2"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
)

var (
	opensslOnce sync.Once
	opensslErr  error
)

// NewOpenSSL loads libcrypto from library and returns a SHA-256 hasher running inside it.
// libcrypto can only be loaded once per process; later calls reuse the first result.
func NewOpenSSL(library string) (domain.Hasher, error) {
	if library == "" {
		library = "libcrypto.so.3"
	}
	opensslOnce.Do(func() {
		opensslErr = openssl.Init(library)
	})
	if opensslErr != nil {
		return nil, fmt.Errorf("%w: loading %s: %v", ErrBackendUnavailable, library, opensslErr)
	}
	if !openssl.SupportsHash(crypto.SHA256) {
		return nil, fmt.Errorf("%w: %s does not provide sha256", ErrBackendUnavailable, library)
	}
	return opensslHasher{}, nil
}

type opensslHasher struct{}

func (opensslHasher) Algorithm() domain.Algorithm { return domain.SHA256 }

func (opensslHasher) Hash(data []byte) (hexSum string, err error) {
	// The binding panics when an EVP call fails.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: openssl: %v", domain.ErrHashFailed, r)
		}
	}()

	h := openssl.NewSHA256()
	if _, err := h.Write(data); err != nil {
		return "", fmt.Errorf("%w: openssl: %v", domain.ErrHashFailed, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
