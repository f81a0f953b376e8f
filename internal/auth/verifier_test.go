package auth

import (
	"errors"
	"testing"

	"github.com/mercalog/go-backend/pkg/e"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifier(t *testing.T) {
	hash, err := GenerateHash("secreto", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to generate hash: %v", err)
	}

	v, err := NewVerifier(hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !v.Verify("secreto") {
		t.Error("correct code must verify")
	}
	if v.Verify("wrong") {
		t.Error("wrong code must not verify")
	}
	if v.Verify("") {
		t.Error("empty code must not verify")
	}
}

func TestVerifierRequiresHash(t *testing.T) {
	_, err := NewVerifier("")
	if !errors.Is(err, e.ErrMissingAccessHash) {
		t.Fatalf("expected ErrMissingAccessHash, got %v", err)
	}
}

func TestVerifierRejectsOnGarbageHash(t *testing.T) {
	v, err := NewVerifier("not-a-bcrypt-hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Битый хэш обязан отказывать, а не паниковать
	if v.Verify("anything") {
		t.Error("garbage hash must never verify")
	}
}
