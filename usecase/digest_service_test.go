package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/satriahrh/cocoa-fruit/hexdigest/adapters/hasher"
	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/log"
)

const (
	emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	abcSHA256   = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
)

var lowerHex = regexp.MustCompile(`^[0-9a-f]{64}$`)

type failingHasher struct{ err error }

func (failingHasher) Algorithm() domain.Algorithm { return domain.SHA256 }

func (h failingHasher) Hash([]byte) (string, error) { return "", h.err }

type recordingBroker struct {
	mu       sync.Mutex
	messages []domain.Message
	err      error
}

func (b *recordingBroker) Publish(_ context.Context, topic, routingKey string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.messages = append(b.messages, domain.Message{Topic: topic, RoutingKey: routingKey, Payload: message})
	return nil
}

func (b *recordingBroker) Subscribe(context.Context, string, string) (<-chan domain.Message, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBroker) Close() error { return nil }

func newService(opts ...Option) *DigestService {
	opts = append([]Option{WithHasher(hasher.NewSHA3()), WithHasher(hasher.NewBLAKE3())}, opts...)
	return NewDigestService(hasher.NewSHA256(), opts...)
}

func TestComputeDigestHexKnownValues(t *testing.T) {
	t.Parallel()
	svc := newService()
	ctx := context.Background()

	got, err := svc.ComputeDigestHex(ctx, []byte(""))
	if err != nil {
		t.Fatalf("ComputeDigestHex() error = %v", err)
	}
	if got != emptySHA256 {
		t.Fatalf("expected %s, got %s", emptySHA256, got)
	}

	got, err = svc.ComputeDigestHex(ctx, nil)
	if err != nil || got != emptySHA256 {
		t.Fatalf("nil slice: got %s, %v", got, err)
	}

	got, err = svc.ComputeDigestHex(ctx, []byte("abc"))
	if err != nil {
		t.Fatalf("ComputeDigestHex() error = %v", err)
	}
	if got != abcSHA256 {
		t.Fatalf("expected %s, got %s", abcSHA256, got)
	}
}

func TestComputeDigestHexDeterministicAndIndependent(t *testing.T) {
	t.Parallel()
	svc := newService()
	ctx := context.Background()

	inputs := []string{"", "abc", "hello world", "日本語", string(make([]byte, 1000))}
	first := make(map[string]string, len(inputs))
	for _, in := range inputs {
		got, err := svc.ComputeDigestHex(ctx, []byte(in))
		if err != nil {
			t.Fatal(err)
		}
		if !lowerHex.MatchString(got) {
			t.Fatalf("output %q is not 64 lowercase hex chars", got)
		}
		first[in] = got
	}

	// Reverse order: no call may depend on a previous one.
	for i := len(inputs) - 1; i >= 0; i-- {
		got, err := svc.ComputeDigestHex(ctx, []byte(inputs[i]))
		if err != nil {
			t.Fatal(err)
		}
		if got != first[inputs[i]] {
			t.Fatalf("expected deterministic hash, got %s vs %s", first[inputs[i]], got)
		}
	}
}

func TestComputeConcurrent(t *testing.T) {
	t.Parallel()
	svc := newService()

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.ComputeDigestHex(context.Background(), []byte("abc"))
			if err != nil || got != abcSHA256 {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Fatalf("concurrent call returned %q", got)
	}
}

func TestComputeAlgorithms(t *testing.T) {
	t.Parallel()
	svc := newService()
	ctx := context.Background()

	d, err := svc.Compute(ctx, domain.SHA3_256, []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if d.Algorithm != domain.SHA3_256 || d.Hex != "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532" {
		t.Fatalf("unexpected digest %+v", d)
	}

	d, err = svc.Compute(ctx, "", []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if d.Algorithm != domain.SHA256 || d.String() != "sha256:"+abcSHA256 {
		t.Fatalf("unexpected default digest %s", d)
	}

	if _, err := svc.Compute(ctx, "md5", []byte("abc")); !errors.Is(err, domain.ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}

	want := []domain.Algorithm{domain.BLAKE3, domain.SHA256, domain.SHA3_256}
	got := svc.Algorithms()
	if len(got) != len(want) {
		t.Fatalf("Algorithms() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Algorithms() = %v, want %v", got, want)
		}
	}
}

func TestComputeTextNil(t *testing.T) {
	t.Parallel()
	svc := newService()

	if _, err := svc.ComputeText(context.Background(), "", nil); !errors.Is(err, domain.ErrNilInput) {
		t.Fatalf("expected ErrNilInput, got %v", err)
	}

	abc := "abc"
	d, err := svc.ComputeText(context.Background(), "", &abc)
	if err != nil || d.Hex != abcSHA256 {
		t.Fatalf("ComputeText() = %+v, %v", d, err)
	}
}

func TestComputeWrapsBackendFailure(t *testing.T) {
	t.Parallel()
	cause := errors.New("EVP_DigestInit_ex failed")
	svc := NewDigestService(failingHasher{err: cause})

	_, err := svc.ComputeDigestHex(context.Background(), []byte("abc"))
	if !errors.Is(err, domain.ErrHashFailed) {
		t.Fatalf("expected ErrHashFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestSha256HexLenient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newService()
	if got := svc.Sha256Hex(ctx, nil); got != "" {
		t.Fatalf("nil input: expected empty string, got %q", got)
	}
	empty := ""
	if got := svc.Sha256Hex(ctx, &empty); got != emptySHA256 {
		t.Fatalf("empty input: got %q", got)
	}
	abc := "abc"
	if got := svc.Sha256Hex(ctx, &abc); got != abcSHA256 {
		t.Fatalf("abc: got %q", got)
	}

	broken := NewDigestService(failingHasher{err: errors.New("out of memory")})
	if got := broken.Sha256Hex(ctx, &abc); got != "" {
		t.Fatalf("backend failure: expected empty string, got %q", got)
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()
	svc := newService()
	ctx := context.Background()
	data := []byte("abc")

	tests := []struct {
		name     string
		alg      domain.Algorithm
		expected string
		want     bool
		wantErr  error
	}{
		{"bare hex", "", abcSHA256, true, nil},
		{"uppercase hex", "", "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD", true, nil},
		{"oci reference", "", "sha256:" + abcSHA256, true, nil},
		{"uppercase oci reference", "", "SHA256:" + abcSHA256, true, nil},
		{"wrong digest", "", emptySHA256, false, nil},
		{"sha3 reference", "", "sha3-256:3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532", true, nil},
		{"conflicting algorithm", domain.BLAKE3, "sha256:" + abcSHA256, false, domain.ErrInvalidDigest},
		{"short", "", "abc123", false, domain.ErrInvalidDigest},
		{"not hex", "", "zz7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", false, domain.ErrInvalidDigest},
		{"bad oci reference", "", "sha256:1234", false, domain.ErrInvalidDigest},
		{"unknown algorithm", "", "md5:" + abcSHA256, false, domain.ErrUnsupportedAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Verify(ctx, tt.alg, data, tt.expected)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputePublishesEvent(t *testing.T) {
	t.Parallel()
	broker := &recordingBroker{}
	svc := newService(WithBroker(broker))

	ctx := log.ContextWithDevice(context.Background(), 99, "esp32-1", "0.1.0")
	ctx = log.ContextWithRequestID(ctx, "req-1")
	if _, err := svc.Compute(ctx, domain.SHA256, []byte("abc")); err != nil {
		t.Fatal(err)
	}

	if len(broker.messages) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(broker.messages))
	}
	msg := broker.messages[0]
	if msg.Topic != domain.DigestTopic {
		t.Fatalf("topic = %q", msg.Topic)
	}
	var event domain.DigestEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.Fatal(err)
	}
	if event.Hex != abcSHA256 || event.DeviceID != "esp32-1" || event.UserID != 99 || event.RequestID != "req-1" || event.Size != 3 {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestComputeIgnoresPublishFailure(t *testing.T) {
	t.Parallel()
	svc := newService(WithBroker(&recordingBroker{err: errors.New("topic channel is full")}))

	got, err := svc.ComputeDigestHex(context.Background(), []byte("abc"))
	if err != nil || got != abcSHA256 {
		t.Fatalf("ComputeDigestHex() = %q, %v", got, err)
	}
}
