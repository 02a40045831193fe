// Package bridge is the lenient digest entry point shared by the native
// exports (cmd/libhexdigest) and the gomobile package (mobile).
//
// Host runtimes expect a plain string back, so every failure, including an
// absent input, collapses to "".
package bridge

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/hexdigest/adapters/hasher"
	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
	"github.com/satriahrh/cocoa-fruit/hexdigest/usecase"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/config"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/log"
)

var (
	current  atomic.Pointer[usecase.DigestService]
	initOnce sync.Once
)

// Use replaces the process-wide service. Passing nil restores the environment-configured one.
func Use(svc *usecase.DigestService) {
	if svc == nil {
		svc = fromEnv()
	}
	current.Store(svc)
}

func service() *usecase.DigestService {
	initOnce.Do(func() {
		current.CompareAndSwap(nil, fromEnv())
	})
	return current.Load()
}

// fromEnv reads SHA256_BACKEND and OPENSSL_LIBCRYPTO. Hosts embedding the
// library have no .env, so only the process environment is consulted.
func fromEnv() *usecase.DigestService {
	cfg, err := config.FromEnv()
	var h domain.Hasher
	if err == nil {
		h, err = hasher.New(hasher.Config{
			Algorithm:      domain.SHA256,
			Backend:        cfg.SHA256Backend,
			OpenSSLLibrary: cfg.OpenSSLLibrary,
		})
	}
	if err != nil {
		log.With(zap.Error(err)).Warn("falling back to std sha256 backend")
		h = hasher.NewSHA256()
	}
	return usecase.NewDigestService(h)
}

// Sha256Hex returns the lowercase hex SHA-256 of *text, or "" when text is nil
// or the backend fails.
func Sha256Hex(text *string) string {
	return service().Sha256Hex(context.Background(), text)
}

// Sha256HexBytes is Sha256Hex for binary input. A nil slice is an empty input.
func Sha256HexBytes(data []byte) string {
	d, err := service().Compute(context.Background(), domain.SHA256, data)
	if err != nil {
		log.With(zap.Error(err)).Warn("sha256HexBytes failed")
		return ""
	}
	return d.Hex
}
