package hashing

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashCompare(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)

	h, err := b.Hash("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h == "s3cret!" {
		t.Fatalf("hash must not equal plain password")
	}
	if !b.Compare(h, "s3cret!") {
		t.Fatalf("expected password to match")
	}
	if b.Compare(h, "wrong") {
		t.Fatalf("expected mismatch for wrong password")
	}
	if b.Compare("", "s3cret!") {
		t.Fatalf("empty hash must never match")
	}
}

func TestNewBcrypt_DefaultCost(t *testing.T) {
	if got := NewBcrypt(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}
}
