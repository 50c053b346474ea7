package password

import (
	"strings"
	"testing"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	// Cheap parameters so tests stay fast.
	h, err := NewHasher(Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16})
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return h
}

func TestHashAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	h := newTestHasher(t)

	encoded, err := h.Hash("Sup3r-secret!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=") {
		t.Fatalf("unexpected PHC prefix: %s", encoded)
	}

	ok, err := h.Verify("Sup3r-secret!", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	t.Parallel()
	h := newTestHasher(t)

	encoded, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := h.Verify("battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch")
	}
}

func TestVerify_ParamsComeFromHash(t *testing.T) {
	t.Parallel()
	// A hash produced under one cost must verify under a Hasher constructed
	// with a different cost.
	h1 := newTestHasher(t)
	encoded, err := h1.Hash("pass-123456")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	h2, err := NewHasher(DefaultParams)
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	ok, err := h2.Verify("pass-123456", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected old hash to verify under new params")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()
	h := newTestHasher(t)

	for _, bad := range []string{
		"",
		"not-a-phc-string",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	} {
		if _, err := h.Verify("whatever", bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNewHasher_RejectsWeakParams(t *testing.T) {
	t.Parallel()

	weak := []Params{
		{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}
	for _, p := range weak {
		if _, err := NewHasher(p); err == nil {
			t.Fatalf("expected error for params %+v", p)
		}
	}
}
