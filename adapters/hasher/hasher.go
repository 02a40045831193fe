package hasher

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
)

// SHA-256 backends.
const (
	BackendStd     = "std"
	BackendSIMD    = "simd"
	BackendOpenSSL = "openssl"
)

// ErrBackendUnavailable is returned when a backend cannot run in this build or on this host.
var ErrBackendUnavailable = errors.New("hash backend unavailable")

type Config struct {
	Algorithm domain.Algorithm
	// Backend selects the SHA-256 implementation. Ignored for other algorithms.
	Backend string
	// OpenSSLLibrary is the libcrypto the openssl backend loads.
	OpenSSLLibrary string
}

// New returns the domain.Hasher described by cfg.
func New(cfg Config) (domain.Hasher, error) {
	switch cfg.Algorithm {
	case domain.SHA256, "":
		switch cfg.Backend {
		case BackendStd, "":
			return NewSHA256(), nil
		case BackendSIMD:
			return NewSIMD(), nil
		case BackendOpenSSL:
			return NewOpenSSL(cfg.OpenSSLLibrary)
		}
		return nil, fmt.Errorf("%w: sha256 backend %q", domain.ErrUnsupportedAlgorithm, cfg.Backend)
	case domain.SHA3_256:
		return NewSHA3(), nil
	case domain.BLAKE3:
		return NewBLAKE3(), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedAlgorithm, cfg.Algorithm)
}

// NewSet builds one hasher per supported algorithm, using cfg.Backend for SHA-256.
func NewSet(cfg Config) ([]domain.Hasher, error) {
	algs := []domain.Algorithm{domain.SHA256, domain.SHA3_256, domain.BLAKE3}
	set := make([]domain.Hasher, 0, len(algs))
	for _, alg := range algs {
		h, err := New(Config{Algorithm: alg, Backend: cfg.Backend, OpenSSLLibrary: cfg.OpenSSLLibrary})
		if err != nil {
			return nil, err
		}
		set = append(set, h)
	}
	return set, nil
}

// sumHasher adapts a fixed-size one-shot sum function to domain.Hasher.
type sumHasher struct {
	alg domain.Algorithm
	sum func([]byte) [domain.DigestSize]byte
}

func (h sumHasher) Algorithm() domain.Algorithm { return h.alg }

func (h sumHasher) Hash(data []byte) (string, error) {
	sum := h.sum(data)
	return hex.EncodeToString(sum[:]), nil
}
