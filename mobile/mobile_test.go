package mobile

import "testing"

func TestSha256Hex(t *testing.T) {
	t.Setenv("SHA256_BACKEND", "std")

	if got := Sha256Hex(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("empty: %q", got)
	}
	if got := Sha256Hex("abc"); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("abc: %q", got)
	}
	if got := Sha256HexBytes([]byte("abc")); got != Sha256Hex("abc") {
		t.Fatalf("bytes variant disagrees: %q", got)
	}
	if Version() == "" {
		t.Fatal("empty version")
	}
}
