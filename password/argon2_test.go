package password

import (
	"strings"
	"testing"
)

func testArgon2(t *testing.T) *Argon2 {
	t.Helper()

	a, err := NewArgon2(Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return a
}

func TestHashAndVerify(t *testing.T) {
	a := testArgon2(t)

	encoded, err := a.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("expected PHC format, got %q", encoded)
	}

	ok, err := a.Verify("correct horse battery staple", encoded)
	if err != nil || !ok {
		t.Fatalf("expected verify to succeed, ok=%v err=%v", ok, err)
	}

	ok, err = a.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("Verify errored: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail")
	}
}

func TestHashProducesUniqueSalts(t *testing.T) {
	a := testArgon2(t)

	h1, err := a.Hash("same input")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	h2, err := a.Hash("same input")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h1 == h2 {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	a := testArgon2(t)

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=8192,t=1,p=1$notbase64$also-not",
		"$bcrypt$v=19$m=8192,t=1,p=1$YQ==$YQ==",
	} {
		if _, err := a.Verify("x", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := NewArgon2(Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	encoded, err := weak.Hash("some password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	strong, err := NewArgon2(Argon2Config{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	needs, err := strong.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("NeedsRehash failed: %v", err)
	}
	if !needs {
		t.Fatal("expected rehash for weaker parameters")
	}

	needs, err = weak.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("NeedsRehash failed: %v", err)
	}
	if needs {
		t.Fatal("expected no rehash for matching parameters")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	_, err := NewArgon2(Argon2Config{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err == nil {
		t.Fatal("expected low-memory config to be rejected")
	}
}
