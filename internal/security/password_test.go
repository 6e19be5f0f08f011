package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the plain password")
	}

	if err := h.Compare(hash, "secret1"); err != nil {
		t.Fatalf("compare with correct password: %v", err)
	}

	if err := h.Compare(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("got %v, want ErrPasswordMismatch", err)
	}
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, _ := h.Hash("secret1")
	b, _ := h.Hash("secret1")

	if a == b {
		t.Fatal("two hashes of the same password should differ")
	}
}

func TestHasher_CorruptHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	err := h.Compare("not-a-bcrypt-hash", "secret1")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("got %v, want a non-mismatch error", err)
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if got := NewHasher(1).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}
}
