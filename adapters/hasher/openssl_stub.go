//go:build !(linux && cgo)

package hasher

import (
	"fmt"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
)

// NewOpenSSL is only available on linux builds with cgo enabled.
func NewOpenSSL(library string) (domain.Hasher, error) {
	return nil, fmt.Errorf("%w: openssl requires linux and cgo", ErrBackendUnavailable)
}
