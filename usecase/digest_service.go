package usecase

import (
	"context"
	_ "crypto/sha256" // go-digest validates sha256 references only when it is linked
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/log"
)

type DigestService struct {
	hashers    map[domain.Algorithm]domain.Hasher
	defaultAlg domain.Algorithm
	broker     domain.MessageBroker
	now        func() time.Time
}

type Option func(*DigestService)

// WithHasher registers an additional algorithm. A later hasher for the same algorithm wins.
func WithHasher(h domain.Hasher) Option {
	return func(s *DigestService) { s.hashers[h.Algorithm()] = h }
}

// WithBroker publishes a domain.DigestEvent for every computed digest.
func WithBroker(b domain.MessageBroker) Option {
	return func(s *DigestService) { s.broker = b }
}

// NewDigestService builds a service whose default algorithm is def's.
func NewDigestService(def domain.Hasher, opts ...Option) *DigestService {
	s := &DigestService{
		hashers:    map[domain.Algorithm]domain.Hasher{def.Algorithm(): def},
		defaultAlg: def.Algorithm(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// The default hasher is never replaced by an option.
	s.hashers[def.Algorithm()] = def
	return s
}

// DefaultAlgorithm reports the algorithm used when a caller names none.
func (s *DigestService) DefaultAlgorithm() domain.Algorithm {
	return s.defaultAlg
}

// Algorithms lists the configured algorithms in name order.
func (s *DigestService) Algorithms() []domain.Algorithm {
	algs := make([]domain.Algorithm, 0, len(s.hashers))
	for alg := range s.hashers {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// ComputeDigestHex returns the lowercase hex digest of data under the default algorithm.
func (s *DigestService) ComputeDigestHex(ctx context.Context, data []byte) (string, error) {
	d, err := s.Compute(ctx, s.defaultAlg, data)
	if err != nil {
		return "", err
	}
	return d.Hex, nil
}

// ComputeText is Compute for nullable text. A nil text yields domain.ErrNilInput.
func (s *DigestService) ComputeText(ctx context.Context, alg domain.Algorithm, text *string) (domain.Digest, error) {
	if text == nil {
		return domain.Digest{}, domain.ErrNilInput
	}
	return s.Compute(ctx, alg, []byte(*text))
}

// Compute hashes data with alg, or the default algorithm when alg is empty.
func (s *DigestService) Compute(ctx context.Context, alg domain.Algorithm, data []byte) (domain.Digest, error) {
	h, err := s.hasher(alg)
	if err != nil {
		return domain.Digest{}, err
	}

	sum, err := h.Hash(data)
	if err != nil {
		if !errors.Is(err, domain.ErrHashFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrHashFailed, err)
		}
		return domain.Digest{}, fmt.Errorf("hashing with %s: %w", h.Algorithm(), err)
	}

	d := domain.Digest{Algorithm: h.Algorithm(), Hex: sum}
	log.WithCtx(ctx).Debug("digest computed",
		zap.String("algorithm", string(d.Algorithm)),
		zap.String("hex", d.Hex),
		zap.Int("size", len(data)))

	s.publish(ctx, d, len(data))
	return d, nil
}

// Sha256Hex is the lenient host-facing call: a nil text or a failing backend
// both yield "" instead of an error.
func (s *DigestService) Sha256Hex(ctx context.Context, text *string) string {
	if text == nil {
		return ""
	}
	d, err := s.Compute(ctx, domain.SHA256, []byte(*text))
	if err != nil {
		log.WithCtx(ctx).Warn("sha256Hex failed", zap.Error(err))
		return ""
	}
	return d.Hex
}

// Verify reports whether data hashes to expected. expected is either bare hex
// for alg (default when empty) or an "algorithm:hex" reference.
func (s *DigestService) Verify(ctx context.Context, alg domain.Algorithm, data []byte, expected string) (bool, error) {
	refAlg, want, err := parseReference(expected)
	if err != nil {
		return false, err
	}
	if refAlg != "" {
		if alg != "" && alg != refAlg {
			return false, fmt.Errorf("%w: reference is %s, requested %s", domain.ErrInvalidDigest, refAlg, alg)
		}
		alg = refAlg
	}

	d, err := s.Compute(ctx, alg, data)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(d.Hex), []byte(want)) == 1, nil
}

func (s *DigestService) hasher(alg domain.Algorithm) (domain.Hasher, error) {
	if alg == "" {
		alg = s.defaultAlg
	}
	h, ok := s.hashers[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedAlgorithm, alg)
	}
	return h, nil
}

func (s *DigestService) publish(ctx context.Context, d domain.Digest, size int) {
	if s.broker == nil {
		return
	}

	payload, err := json.Marshal(domain.DigestEvent{
		RequestID: log.RequestID(ctx),
		DeviceID:  log.DeviceID(ctx),
		UserID:    log.UserID(ctx),
		Algorithm: d.Algorithm,
		Hex:       d.Hex,
		Size:      size,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		log.WithCtx(ctx).Error("marshaling digest event", zap.Error(err))
		return
	}
	// Publishing is best effort, the caller already has its digest.
	if err := s.broker.Publish(ctx, domain.DigestTopic, "", payload); err != nil {
		log.WithCtx(ctx).Warn("publishing digest event", zap.Error(err))
	}
}

// parseReference splits expected into an optional algorithm and a normalized hex value.
func parseReference(expected string) (domain.Algorithm, string, error) {
	expected = strings.TrimSpace(expected)

	var alg domain.Algorithm
	if i := strings.IndexByte(expected, ':'); i >= 0 {
		alg = domain.Algorithm(strings.ToLower(expected[:i]))
		if alg == domain.SHA256 {
			d, err := digest.Parse(strings.ToLower(expected))
			if err != nil {
				return "", "", fmt.Errorf("%w: %v", domain.ErrInvalidDigest, err)
			}
			return alg, d.Encoded(), nil
		}
		expected = expected[i+1:]
	}

	expected = strings.ToLower(expected)
	if len(expected) != domain.HexSize {
		return "", "", fmt.Errorf("%w: expected %d hex characters, got %d", domain.ErrInvalidDigest, domain.HexSize, len(expected))
	}
	if _, err := hex.DecodeString(expected); err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrInvalidDigest, err)
	}
	return alg, expected, nil
}
